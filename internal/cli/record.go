package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shadowlingo/shadow/internal/app/stats"
	"github.com/shadowlingo/shadow/internal/daemon"
	"github.com/shadowlingo/shadow/internal/domain"
)

func init() {
	recordCmd.Flags().StringVar(&recordInput, "from", "en", "Input language code")
	recordCmd.Flags().StringVar(&recordTarget, "to", "ja", "Target language code")
	recordCmd.Flags().IntVarP(&recordCount, "count", "n", 1, "Number of events to record")
	rootCmd.AddCommand(recordCmd)
}

var (
	recordInput  string
	recordTarget string
	recordCount  int
)

var recordCmd = &cobra.Command{
	Use:   "record <listened|viewed>",
	Short: "Record practice events",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecord,
}

func runRecord(cmd *cobra.Command, args []string) error {
	event := domain.EventType(args[0])
	if !event.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownEventType, args[0])
	}
	if recordCount < 1 {
		return fmt.Errorf("count must be at least 1, got %d", recordCount)
	}

	d, err := daemon.New(appVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	pair := domain.LanguagePair{Input: recordInput, Target: recordTarget}
	ctx := cmd.Context()

	var last stats.RecordResult
	for i := 0; i < recordCount; i++ {
		last, err = d.Aggregator.RecordEvent(ctx, pair, event)
		if err != nil {
			return err
		}
	}
	d.Aggregator.ForceSync(ctx)

	fmt.Printf("Recorded %d %s event(s) for %s.\n", recordCount, event, pair.Key())
	fmt.Printf("Session: %d listened, %d viewed. Streak: %d day(s).\n",
		last.Session.Listened, last.Session.Viewed, last.Streak.CurrentStreak)
	for _, m := range last.Milestones {
		fmt.Printf("Milestone reached: %s (%d) — %s\n", m.Title, m.Count, m.Description)
	}
	return nil
}
