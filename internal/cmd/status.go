package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize sessions and devices",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}

	st := d.store.Stats()
	fmt.Printf("Sessions: %d/%d active (%d simulator, %d real device)\n",
		st.Total, st.MaxSessions, st.Simulators, st.RealDevices)
	if st.Total > 0 {
		fmt.Printf("  Oldest: %s\n", st.OldestAge.Round(time.Second))
	}

	devices, err := d.devices.Discover(cmd.Context(), false)
	if err != nil {
		return err
	}
	usable := 0
	for _, dev := range devices {
		if dev.State.Usable() {
			usable++
		}
	}
	fmt.Printf("Devices:  %d known, %d booted/connected\n", len(devices), usable)
	fmt.Printf("Storage:  %s\n", d.store.Dir())
	return nil
}
