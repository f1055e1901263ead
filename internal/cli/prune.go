package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shadowlingo/shadow/internal/daemon"
)

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "keep", 0, "Days of history to keep (default from config)")
	rootCmd.AddCommand(pruneCmd)
}

var pruneDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete daily records older than the retention window",
	RunE:  runPrune,
}

func runPrune(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(appVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	keep := pruneDays
	if keep <= 0 {
		keep = d.Config.Stats.RetentionDays
	}

	pruned, err := d.Aggregator.PruneDaily(cmd.Context(), keep)
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d daily record(s), kept the last %d day(s).\n", pruned, keep)
	return nil
}
