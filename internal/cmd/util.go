package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iosctl/iosctl/internal/utilities"
)

var utilCmd = &cobra.Command{
	Use:   "util",
	Short: "Device utilities",
}

var utilOpenURLCmd = &cobra.Command{
	Use:   "open-url <session-or-udid> <url>",
	Short: "Open a URL on the device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := utilitiesManager()
		if err != nil {
			return err
		}
		if err := m.OpenURL(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Opened %s\n", args[1])
		return nil
	},
}

var utilFocusCmd = &cobra.Command{
	Use:   "focus <session-or-udid>",
	Short: "Bring the Simulator window to the foreground",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := utilitiesManager()
		if err != nil {
			return err
		}
		return m.Focus(cmd.Context(), args[0])
	},
}

var utilPermissionCmd = &cobra.Command{
	Use:   "permission <session-or-udid> <bundle-id> <service> <grant|revoke|reset>",
	Short: "Set an app permission",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := utilitiesManager()
		if err != nil {
			return err
		}
		if err := m.SetPermission(cmd.Context(), args[0], args[1], args[2], args[3]); err != nil {
			return err
		}
		fmt.Printf("Permission %s %s for %s\n", args[2], args[3], args[1])
		return nil
	},
}

var utilKeychainCmd = &cobra.Command{
	Use:   "keychain-clear <session-or-udid>",
	Short: "Reset the device keychain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := utilitiesManager()
		if err != nil {
			return err
		}
		if err := m.ClearKeychain(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Keychain cleared.")
		return nil
	},
}

var utilLogsCmd = &cobra.Command{
	Use:   "logs <session-or-udid>",
	Short: "Show recent device logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := utilitiesManager()
		if err != nil {
			return err
		}
		out, err := m.RecentLogs(cmd.Context(), args[0], utilLogsWindow)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var utilLogsWindow string

func init() {
	utilLogsCmd.Flags().StringVar(&utilLogsWindow, "last", "5m", "log window (e.g. 5m, 1h)")

	utilCmd.AddCommand(utilOpenURLCmd, utilFocusCmd, utilPermissionCmd, utilKeychainCmd, utilLogsCmd)
	rootCmd.AddCommand(utilCmd)
}

func utilitiesManager() (*utilities.Manager, error) {
	d, err := loadDeps()
	if err != nil {
		return nil, err
	}
	return utilities.NewManager(d.resolver, d.runner), nil
}
