package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tibiantis-tools/deathwatch/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "deathwatch",
	Short: "Enemy-death tracker for Tibiantis Online",
	Long: `deathwatch scrapes public Tibiantis character pages, correlates
recent deaths against a tracked enemy list and publishes report tables
to a notification channel.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: env / built-in defaults)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
}
