package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shadowlingo/shadow/internal/daemon"
)

func init() {
	rootCmd.AddCommand(streakCmd)
}

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show the current practice streak",
	RunE:  runStreak,
}

func runStreak(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(appVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	s, err := d.Streak.Current(cmd.Context(), d.Config.User.ID)
	if err != nil {
		return err
	}

	if s.CurrentStreak == 0 {
		fmt.Println("No active streak. Practice today to start one.")
		return nil
	}
	fmt.Printf("Current streak: %d day(s), since %s.\n",
		s.CurrentStreak, s.StreakStartDate.Format("2006-01-02"))
	return nil
}
