package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iosctl/iosctl/internal/artifacts"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Manage captured screenshots and recordings",
}

var artifactsListCmd = &cobra.Command{
	Use:   "list [udid]",
	Short: "List captured artifacts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := artifacts.NewManager()
		if err != nil {
			return err
		}
		udid := ""
		if len(args) == 1 {
			udid = args[0]
		}
		files, err := store.List(udid)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No artifacts captured.")
			return nil
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return nil
	},
}

var artifactsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all captured artifacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := artifacts.NewManager()
		if err != nil {
			return err
		}
		if err := store.Clean(); err != nil {
			return err
		}
		fmt.Println("Artifacts cleaned.")
		return nil
	},
}

func init() {
	artifactsCmd.AddCommand(artifactsListCmd, artifactsCleanCmd)
	rootCmd.AddCommand(artifactsCmd)
}
