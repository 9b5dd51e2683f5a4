package main

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var refreshRosterCmd = &cobra.Command{
	Use:   "refresh-roster",
	Short: "Scan the online list and upsert tracked characters",
	RunE:  runRefreshRoster,
}

var publishRoster bool

func init() {
	refreshRosterCmd.Flags().BoolVar(&publishRoster, "publish", false, "also publish the enemy roster report")
	rootCmd.AddCommand(refreshRosterCmd)
}

func runRefreshRoster(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.svc.RefreshOnlineRoster(ctx)
	if err != nil {
		return err
	}

	color.Green("Roster refreshed: %d online, %d added, %d updated.",
		result.Seen, result.Added, result.Updated)

	if publishRoster {
		if err := a.svc.PublishEnemyRoster(ctx); err != nil {
			return err
		}
		color.Green("Enemy roster report published.")
	}
	return nil
}
