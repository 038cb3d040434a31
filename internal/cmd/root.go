package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iosctl/iosctl/internal/session"
	"github.com/iosctl/iosctl/internal/tool"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "iosctl",
	Short: "iosctl - session-managed control of iOS simulators and devices",
	Long: `iosctl drives iOS simulators (and, partially, real devices) through
Apple's simctl, idb and devicectl command-line tools.

Create a session bound to a device:
  iosctl session create --name "iPhone 15"

Run operations against it:
  iosctl ui tap <session-id> 100 200
  iosctl app launch <session-id> com.example.app

Inspect state:
  iosctl status
  iosctl device list`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

// Execute runs the CLI. Any caught error is reported as a single line and a
// non-zero exit.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// deps bundles the collaborators every subcommand needs. The store always
// comes from the canonical accessor so all commands in a process observe the
// same session table.
type deps struct {
	store    *session.Store
	resolver *session.Resolver
	runner   tool.Runner
	devices  session.DeviceProvider
}

func loadDeps() (*deps, error) {
	store, err := session.Canonical()
	if err != nil {
		return nil, fmt.Errorf("failed to access session store: %w", err)
	}
	return &deps{
		store:    store,
		resolver: session.NewResolver(store),
		runner:   tool.NewExecRunner(),
		devices:  store.Devices(),
	}, nil
}
