package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shadowlingo/shadow/internal/daemon"
)

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "How many days of history to show")
	rootCmd.AddCommand(statsCmd)
}

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show practice statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(appVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	lifetime, err := d.Aggregator.LifetimeSnapshot(ctx)
	if err != nil {
		return err
	}
	records, err := d.Aggregator.DailyHistory(ctx, statsDays)
	if err != nil {
		return err
	}

	fmt.Printf("Lifetime: %d listened, %d viewed (%d total). Streak: %d day(s).\n\n",
		lifetime.PhrasesListened, lifetime.PhrasesViewed, lifetime.Total(), lifetime.CurrentStreak)

	if len(records) == 0 {
		fmt.Printf("No practice recorded in the last %d day(s).\n", statsDays)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tLISTENED\tVIEWED\tTOTAL")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", r.Date, r.CountListened, r.CountViewed, r.TotalCount)
	}
	return w.Flush()
}
