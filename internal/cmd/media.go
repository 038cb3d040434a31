package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iosctl/iosctl/internal/media"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Add media and control location on a session's device",
}

var mediaAddCmd = &cobra.Command{
	Use:   "add <session-or-udid> <file>...",
	Short: "Add photos or videos to the device library",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mediaManager()
		if err != nil {
			return err
		}
		if err := m.Add(cmd.Context(), args[0], args[1:]...); err != nil {
			return err
		}
		fmt.Printf("Added %d media file(s).\n", len(args)-1)
		return nil
	},
}

var mediaLocationCmd = &cobra.Command{
	Use:   "location <session-or-udid> <latitude> <longitude>",
	Short: "Set the device's simulated location",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mediaManager()
		if err != nil {
			return err
		}
		lat, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q", args[1])
		}
		long, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q", args[2])
		}
		if err := m.SetLocation(cmd.Context(), args[0], lat, long); err != nil {
			return err
		}
		fmt.Printf("Location set to %s, %s\n", args[1], args[2])
		return nil
	},
}

var mediaClearLocationCmd = &cobra.Command{
	Use:   "clear-location <session-or-udid>",
	Short: "Remove the simulated location override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mediaManager()
		if err != nil {
			return err
		}
		if err := m.ClearLocation(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Location override cleared.")
		return nil
	},
}

func init() {
	mediaCmd.AddCommand(mediaAddCmd, mediaLocationCmd, mediaClearLocationCmd)
	rootCmd.AddCommand(mediaCmd)
}

func mediaManager() (*media.Manager, error) {
	d, err := loadDeps()
	if err != nil {
		return nil, err
	}
	return media.NewManager(d.resolver, d.runner), nil
}
