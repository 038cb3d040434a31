package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iosctl/iosctl/internal/device"
)

var (
	deviceListRefresh bool
	deviceBootTimeout time.Duration
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Inspect and operate devices directly",
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known simulators and devices",
	RunE:  runDeviceList,
}

var deviceBootCmd = &cobra.Command{
	Use:   "boot <udid>",
	Short: "Boot a simulator",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeviceBoot,
}

var deviceShutdownCmd = &cobra.Command{
	Use:   "shutdown <udid>",
	Short: "Shut down a simulator",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeviceShutdown,
}

var deviceEraseCmd = &cobra.Command{
	Use:   "erase <udid>",
	Short: "Erase a simulator's content and settings",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeviceErase,
}

var deviceInfoCmd = &cobra.Command{
	Use:   "info <udid>",
	Short: "Show one device's descriptor",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeviceInfo,
}

func init() {
	deviceListCmd.Flags().BoolVar(&deviceListRefresh, "refresh", false, "bypass the discovery cache")
	deviceBootCmd.Flags().DurationVar(&deviceBootTimeout, "timeout", device.DefaultBootTimeout, "boot timeout")

	deviceCmd.AddCommand(deviceListCmd, deviceBootCmd, deviceShutdownCmd, deviceEraseCmd, deviceInfoCmd)
	rootCmd.AddCommand(deviceCmd)
}

func runDeviceList(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	devices, err := d.devices.Discover(cmd.Context(), deviceListRefresh)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No devices found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tUDID\tTYPE\tOS\tSTATE")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t--\t-----")
	for _, dev := range devices {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			dev.Name, dev.UDID, dev.Kind, dev.OSVersion, dev.State)
	}
	_ = w.Flush()
	return nil
}

func runDeviceBoot(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	if err := d.store.Lifecycle().Boot(cmd.Context(), args[0], deviceBootTimeout); err != nil {
		return err
	}
	fmt.Printf("Device %s booted.\n", args[0])
	return nil
}

func runDeviceShutdown(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	if err := d.store.Lifecycle().Shutdown(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Device %s shut down.\n", args[0])
	return nil
}

func runDeviceErase(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	if err := d.store.Lifecycle().Erase(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Device %s erased.\n", args[0])
	return nil
}

func runDeviceInfo(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	dev, err := d.devices.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", dev.Name)
	fmt.Printf("  UDID:       %s\n", dev.UDID)
	fmt.Printf("  Type:       %s\n", dev.Kind)
	fmt.Printf("  OS:         %s\n", dev.OSVersion)
	fmt.Printf("  Model:      %s\n", dev.Model)
	fmt.Printf("  State:      %s\n", dev.State)
	fmt.Printf("  Connection: %s\n", dev.Connection)
	fmt.Printf("  Available:  %v\n", dev.Available)

	if ids := d.store.SessionsForDevice(dev.UDID); len(ids) > 0 {
		fmt.Printf("  Sessions:   %v\n", ids)
	}
	return nil
}
