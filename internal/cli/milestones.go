package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shadowlingo/shadow/internal/app/stats"
	"github.com/shadowlingo/shadow/internal/daemon"
)

func init() {
	rootCmd.AddCommand(milestonesCmd)
}

var milestonesCmd = &cobra.Command{
	Use:   "milestones",
	Short: "Show rank progress and upcoming milestones",
	RunE:  runMilestones,
}

func runMilestones(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(appVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	lifetime, err := d.Aggregator.LifetimeSnapshot(cmd.Context())
	if err != nil {
		return err
	}

	ranks := stats.DefaultRanks()
	total := lifetime.Total()
	current := stats.Rank(ranks.TotalRanks(), total)

	fmt.Printf("Rank: %s — %s (%d phrases)\n", current.Title, current.Description, total)
	if current.NextMilestone > 0 {
		fmt.Printf("Next milestone at %d phrases (%d to go).\n\n",
			current.NextMilestone, current.NextMilestone-total)
	} else {
		fmt.Println("Top rank reached.")
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THRESHOLD\tTITLE\tREACHED")
	for _, r := range ranks.TotalRanks() {
		reached := ""
		if total >= r.Threshold {
			reached = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", r.Threshold, r.Title, reached)
	}
	return w.Flush()
}
