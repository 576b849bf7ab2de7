package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/srg/coral/internal/connection"
	"github.com/srg/coral/pkg/coral"
)

// defaultTapFrames is used by --raw when the config leaves the tap disabled.
const defaultTapFrames = 256

type monitorFlags struct {
	duration time.Duration
	format   string
	raw      bool
}

func newMonitorCmd() *cobra.Command {
	f := &monitorFlags{}
	cmd := &cobra.Command{
		Use:   "monitor <address>",
		Short: "Stream sensor notifications from a device",
		Long: `Connect to the device at <address> and print every sensor record that
differs from the previous one of the same kind. Runs until interrupted,
until --duration elapses or until the device disconnects.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, args[0], f)
		},
	}
	cmd.Flags().DurationVarP(&f.duration, "duration", "d", 0, "Stop after this long (0 for indefinite)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format (table, json)")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "Also print raw frames sent and received")
	return cmd
}

func runMonitor(cmd *cobra.Command, address string, f *monitorFlags) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	format := f.format
	if format == "" {
		format = s.cfg.OutputFormat
	}
	if err := validateFormat(format); err != nil {
		return err
	}
	cmd.SilenceUsage = true

	opts := s.options()
	if f.raw && opts.FrameTap == 0 {
		opts.FrameTap = defaultTapFrames
	}

	ctx := cmd.Context()
	if f.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.duration)
		defer cancel()
	}

	p, cleanup, err := s.connect(ctx, address, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	var tap *connection.FrameTap
	if f.raw {
		tap = p.Connection().FrameTap()
	}
	ticker := time.NewTicker(s.cfg.NotificationInterval)
	defer ticker.Stop()

	events := p.Events()
	for {
		select {
		case <-ctx.Done():
			printFrames(out, tap)
			return nil
		case <-ticker.C:
			printFrames(out, tap)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			printFrames(out, tap)
			if ev.Kind == coral.EventDisconnect {
				if ev.Err != nil {
					return fmt.Errorf("%w: %v", ErrConnectionLost, ev.Err)
				}
				return ErrConnectionLost
			}
			if err := printEvent(out, ev, format); err != nil {
				return err
			}
		}
	}
}

func printEvent(out io.Writer, ev coral.DeviceEvent, format string) error {
	rec, err := describePayload(ev.Payload)
	if err != nil {
		return err
	}
	if format == "json" {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	rec.Delete("kind")
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%-14s %s\n", color.CyanString(string(ev.Kind)), body)
	return nil
}

func printFrames(out io.Writer, tap *connection.FrameTap) {
	for _, frame := range tap.Drain() {
		dir := color.GreenString(frame.Direction.String())
		if frame.Direction == connection.Rx {
			dir = color.BlueString(frame.Direction.String())
		}
		fmt.Fprintf(out, "%s %s\n", dir, hex.EncodeToString(frame.Data))
	}
}
