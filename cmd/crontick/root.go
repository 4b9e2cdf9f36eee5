package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crontick",
	Short: "Crontick - minute-resolution cron scheduler",
	Long: `Crontick runs shell commands on crontab schedules. It parses classic
five-field crontab expressions, computes upcoming occurrences, and runs a
minute-tick scheduling loop with per-task timeouts and failure reporting.`,
	Version: Version,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(configCmd)
}
