package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iosctl/iosctl/internal/device"
	"github.com/iosctl/iosctl/internal/session"
)

var (
	createDeviceName string
	createDeviceUDID string
	createDeviceKind string
	createOSVersion  string
	createNoBoot     bool
	createName       string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage device sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session bound to a device",
	Long: `Create a session bound to a device.

With no filters the first available device is used. Simulators are booted
automatically unless --no-boot is given.

Examples:
  iosctl session create --name "iPhone 15"
  iosctl session create --udid 5EA60616-3C4C-4B5B-9A1D-355C0D937AF0
  iosctl session create --type real_device --os 17`,
	RunE: runSessionCreate,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active sessions",
	RunE:  runSessionList,
}

var sessionTerminateCmd = &cobra.Command{
	Use:   "terminate <session-id>",
	Short: "Terminate a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionTerminate,
}

var reapMaxAge time.Duration

var sessionReapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Remove sessions older than the expiry window",
	RunE:  runSessionReap,
}

func init() {
	sessionCreateCmd.Flags().StringVar(&createDeviceName, "name", "", "device name filter (e.g. \"iPhone 15\")")
	sessionCreateCmd.Flags().StringVar(&createDeviceUDID, "udid", "", "exact device UDID")
	sessionCreateCmd.Flags().StringVar(&createDeviceKind, "type", "", "device type: simulator or real_device")
	sessionCreateCmd.Flags().StringVar(&createOSVersion, "os", "", "OS version substring filter")
	sessionCreateCmd.Flags().BoolVar(&createNoBoot, "no-boot", false, "do not boot a shut-down simulator")
	sessionCreateCmd.Flags().StringVar(&createName, "session-name", "", "custom session id label")

	sessionReapCmd.Flags().DurationVar(&reapMaxAge, "max-age", 0, "override the expiry window (default: configured auto-expire)")

	sessionCmd.AddCommand(sessionCreateCmd, sessionListCmd, sessionTerminateCmd, sessionReapCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionCreate(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}

	cfg := session.Config{
		DeviceName:        createDeviceName,
		DeviceUDID:        createDeviceUDID,
		OSVersion:         createOSVersion,
		AutoBoot:          !createNoBoot,
		WaitForConnection: true,
		PreferAvailable:   true,
		SessionName:       createName,
	}
	if createDeviceKind != "" {
		kind, err := device.ParseKind(createDeviceKind)
		if err != nil {
			return err
		}
		cfg.DeviceKind = kind
	}

	id, err := d.store.Create(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	view, err := d.store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Printf("Session created: %s\n", id)
	fmt.Printf("  Device: %s (%s, %s)\n", view.DeviceName, view.Kind, view.OSVersion)
	fmt.Printf("  UDID:   %s\n", view.DeviceID)
	fmt.Printf("  State:  %s\n", view.CurrentState)
	return nil
}

func runSessionList(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}

	ids := d.store.List()
	if len(ids) == 0 {
		fmt.Println("No active sessions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SESSION\tDEVICE\tTYPE\tSTATE\tAGE")
	_, _ = fmt.Fprintln(w, "-------\t------\t----\t-----\t---")
	for _, id := range ids {
		view, err := d.store.Get(cmd.Context(), id)
		if err != nil {
			_, _ = fmt.Fprintf(w, "%s\t(error: %v)\t\t\t\n", id, err)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			id, view.DeviceName, view.Kind, view.CurrentState, view.Age.Round(time.Second))
	}
	_ = w.Flush()
	return nil
}

func runSessionTerminate(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	if err := d.store.Terminate(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Session %s terminated.\n", args[0])
	return nil
}

func runSessionReap(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	reaped := d.store.ReapExpired(cmd.Context(), reapMaxAge)
	if len(reaped) == 0 {
		fmt.Println("No expired sessions.")
		return nil
	}
	for _, id := range reaped {
		fmt.Printf("Reaped %s\n", id)
	}
	return nil
}
