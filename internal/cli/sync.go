package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shadowlingo/shadow/internal/daemon"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the lifetime total from the document store",
	RunE:  runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(appVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	d.Aggregator.ForceSync(cmd.Context())
	fmt.Printf("Lifetime total: %d phrases.\n", d.Aggregator.LifetimeTotal())
	return nil
}
