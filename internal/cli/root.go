// Package cli implements the Shadow command-line interface using Cobra.
// Each subcommand drives the practice-statistics engine: record events,
// inspect streaks and milestones, or run the API server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "shadow",
	Short: "Shadow — practice statistics for language shadowing",
	Long: `Shadow tracks language-shadowing practice: phrase counts, daily
streaks, and rank milestones, persisted locally in a document store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	appVersion = version
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
