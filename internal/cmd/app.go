package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iosctl/iosctl/internal/apps"
)

var appListAll bool

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Manage applications on a session's device",
}

var appInstallCmd = &cobra.Command{
	Use:   "install <session-or-udid> <app-path>",
	Short: "Install an app bundle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := appManager()
		if err != nil {
			return err
		}
		if err := m.Install(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Installed %s\n", args[1])
		return nil
	},
}

var appLaunchCmd = &cobra.Command{
	Use:   "launch <session-or-udid> <bundle-id> [args...]",
	Short: "Launch an app",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := appManager()
		if err != nil {
			return err
		}
		if err := m.Launch(cmd.Context(), args[0], args[1], args[2:]...); err != nil {
			return err
		}
		fmt.Printf("Launched %s\n", args[1])
		return nil
	},
}

var appUninstallCmd = &cobra.Command{
	Use:   "uninstall <session-or-udid> <bundle-id>",
	Short: "Uninstall an app",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := appManager()
		if err != nil {
			return err
		}
		if err := m.Uninstall(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Uninstalled %s\n", args[1])
		return nil
	},
}

var appTerminateCmd = &cobra.Command{
	Use:   "terminate <session-or-udid> <bundle-id>",
	Short: "Terminate a running app",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := appManager()
		if err != nil {
			return err
		}
		if err := m.Terminate(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Terminated %s\n", args[1])
		return nil
	},
}

var appListCmd = &cobra.Command{
	Use:   "list <session-or-udid>",
	Short: "List installed apps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := appManager()
		if err != nil {
			return err
		}
		installed, err := m.List(cmd.Context(), args[0], !appListAll)
		if err != nil {
			return err
		}
		if len(installed) == 0 {
			fmt.Println("No apps found.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "BUNDLE ID\tNAME\tTYPE")
		for _, a := range installed {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", a.BundleID, a.Name, a.Type)
		}
		_ = w.Flush()
		return nil
	},
}

func init() {
	appListCmd.Flags().BoolVar(&appListAll, "all", false, "include system apps")

	appCmd.AddCommand(appInstallCmd, appUninstallCmd, appLaunchCmd, appTerminateCmd, appListCmd)
	rootCmd.AddCommand(appCmd)
}

func appManager() (*apps.Manager, error) {
	d, err := loadDeps()
	if err != nil {
		return nil, err
	}
	return apps.NewManager(d.resolver, d.runner, d.devices), nil
}
