package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tibiantis-tools/deathwatch/internal/repository"
	"github.com/tibiantis-tools/deathwatch/internal/seeder"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with a generated development roster",
	RunE:  runSeed,
}

var (
	seedSpecPath string
	seedValue    int64
	seedDryRun   bool
)

func init() {
	seedCmd.Flags().StringVar(&seedSpecPath, "spec", "", "seed spec YAML file (default: built-in roster)")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 1, "random seed for reproducible rosters")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "generate into memory and print, without touching the database")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	spec := seeder.DefaultSpec()
	if seedSpecPath != "" {
		loaded, err := seeder.LoadSpec(seedSpecPath)
		if err != nil {
			return err
		}
		spec = loaded
	}

	var repo repository.Repository
	if seedDryRun {
		repo = repository.NewInMemoryRepository()
	} else {
		a, err := buildApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close()
		repo = a.repo
	}

	result, err := seeder.NewSeeder(repo, seedValue).Run(ctx, spec)
	if err != nil {
		return err
	}

	color.Green("Seeded %d characters (%d enemies, %d skipped).",
		result.Characters, result.Enemies, result.Skipped)

	if seedDryRun {
		characters, err := repo.ListCharacters(ctx)
		if err != nil {
			return err
		}
		for _, c := range characters {
			level := 0
			if c.Level != nil {
				level = *c.Level
			}
			fmt.Printf("  %-25s level %d\n", c.Name, level)
		}
	}
	return nil
}
