package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkDeathsCmd = &cobra.Command{
	Use:   "check-deaths",
	Short: "Run one correlation pass and publish the kills report",
	RunE:  runCheckDeaths,
}

func init() {
	rootCmd.AddCommand(checkDeathsCmd)
}

func runCheckDeaths(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	matches, err := a.svc.CheckDeathsNow(ctx)
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		color.Green("No enemy kills in the current window.")
		return nil
	}

	color.Red("%d enemy kill(s) found:", len(matches))
	for _, match := range matches {
		when := "unknown time"
		if match.Time != nil {
			when = match.Time.Format("2006-01-02 15:04")
		}
		fmt.Printf("  %s  %s  (%s)\n", color.YellowString(match.Victim), match.Killer, when)
	}
	return nil
}
