package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coralctl",
		Short: "Drive LEGO Coral peripherals over Bluetooth Low Energy",
		Long: `coralctl talks to LEGO Coral peripherals (single and double motors,
color sensor, controller) over Bluetooth Low Energy:

- Scan for nearby Coral devices and classify them from their advertisements
- Connect, query versions and stream deduplicated sensor notifications
- Drive motors and movement on motor devices
- Encode and decode raw protocol frames offline`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", formatVersion(version), commit, date),
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolP("verbose", "V", false, "Verbose output (same as --log-level debug)")
	root.PersistentFlags().String("config", "", "Path to a YAML config file (default ~/.config/coral/config.yaml)")
	root.PersistentFlags().String("backend", "", "BLE backend (go-ble, tinygo); overrides the config file")
	root.Flags().BoolP("version", "v", false, "Show version information")

	root.AddCommand(
		newScanCmd(),
		newInfoCmd(),
		newMonitorCmd(),
		newMotorCmd(),
		newMoveCmd(),
		newLightCmd(),
		newBeepCmd(),
		newDecodeCmd(),
		newEncodeCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// Ctrl+C is a normal exit
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		stop()
		os.Exit(1)
	}
}
