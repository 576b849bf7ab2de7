package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/srg/coral/internal/groutine"
	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/internal/scanner"
)

type scanFlags struct {
	duration time.Duration
	format   string
	kinds    []string
	allow    []string
	block    []string
	watch    bool
}

func newScanCmd() *cobra.Command {
	f := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for Coral devices",
		Long: `Scan for Coral peripherals and show what they advertise: device kind,
color and tag identifiers. Advertisements from other devices are ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, f)
		},
	}
	cmd.Flags().DurationVarP(&f.duration, "duration", "d", 0, "Scan duration (default from config)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format (table, json)")
	cmd.Flags().StringSliceVarP(&f.kinds, "kind", "k", nil, "Only show these kinds (SingleMotor, DoubleMotor, ColorSensor, Controller)")
	cmd.Flags().StringSliceVar(&f.allow, "allow", nil, "Only show devices with these addresses")
	cmd.Flags().StringSliceVar(&f.block, "block", nil, "Hide devices with these addresses")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Print devices as they appear until interrupted")
	return cmd
}

// parseKind accepts a device kind name, case-insensitively.
func parseKind(s string) (protocol.DeviceKind, error) {
	for _, k := range []protocol.DeviceKind{
		protocol.KindSingleMotor, protocol.KindDoubleMotor, protocol.KindColorSensor, protocol.KindController,
	} {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return protocol.KindUnknown, fmt.Errorf("unknown device kind %q", s)
}

func validateFormat(format string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [table json]", format)
	}
	return nil
}

func runScan(cmd *cobra.Command, f *scanFlags) error {
	kinds := make([]protocol.DeviceKind, 0, len(f.kinds))
	for _, name := range f.kinds {
		k, err := parseKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, k)
	}

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

	opts := &scanner.ScanOptions{
		Duration:  s.cfg.ScanTimeout,
		AllowList: f.allow,
		BlockList: f.block,
		Kinds:     kinds,
	}
	if f.duration > 0 {
		opts.Duration = f.duration
	}

	sc := scanner.NewScanner(s.adapter, s.logger)
	if f.watch {
		if f.duration == 0 {
			opts.Duration = 0
		}
		return watchScan(cmd.Context(), sc, opts, format, cmd.OutOrStdout())
	}

	progress := newProgressPrinter(cmd.ErrOrStderr(), "Scanning for Coral devices", opts.Duration)
	progress.Start()
	found, err := sc.Scan(cmd.Context(), opts, progress.Callback())
	progress.Stop()
	if err != nil {
		return err
	}
	return printDevices(cmd.OutOrStdout(), sortedDevices(found), format)
}

// watchScan prints each device once, when it first appears.
func watchScan(ctx context.Context, sc *scanner.Scanner, opts *scanner.ScanOptions, format string, out io.Writer) error {
	events := sc.Events()
	done := make(chan error, 1)
	groutine.Go(ctx, "coralctl-watch-scan", func(ctx context.Context) {
		_, err := sc.Scan(ctx, opts, nil)
		done <- err
	})

	if format == "table" {
		fmt.Fprintln(out, spaced(tableHeader))
	}
	emit := func(ev scanner.Event) {
		if ev.Type != scanner.EventNew {
			return
		}
		if format == "json" {
			data, _ := json.Marshal(rowOf(ev.Device))
			fmt.Fprintln(out, string(data))
			return
		}
		fmt.Fprintln(out, spaced(rowOf(ev.Device).tableLine()))
	}

	for {
		select {
		case ev := <-events:
			emit(ev)
		case err := <-done:
			for {
				select {
				case ev := <-events:
					emit(ev)
				default:
					return err
				}
			}
		}
	}
}

func sortedDevices(found map[string]scanner.Discovered) []scanner.Discovered {
	out := make([]scanner.Discovered, 0, len(found))
	for _, d := range found {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b scanner.Discovered) int { return strings.Compare(a.Address, b.Address) })
	return out
}

// scanRow is the printable form of a discovered device.
type scanRow struct {
	Address string  `json:"address"`
	Name    string  `json:"name,omitempty"`
	Kind    string  `json:"kind"`
	Color   string  `json:"color,omitempty"`
	Tag     *uint16 `json:"tag,omitempty"`
	RSSI    int     `json:"rssi"`
}

const tableHeader = "ADDRESS\tNAME\tKIND\tCOLOR\tTAG\tRSSI"

func rowOf(d scanner.Discovered) scanRow {
	row := scanRow{
		Address: d.Address,
		Name:    d.Name,
		Kind:    d.Coral.Kind.String(),
		Tag:     d.Coral.Tag,
		RSSI:    d.RSSI,
	}
	if d.Coral.Color != nil {
		row.Color = d.Coral.Color.String()
	}
	return row
}

func (r scanRow) tableLine() string {
	name, colorName, tag := r.Name, r.Color, "-"
	if name == "" {
		name = "-"
	}
	if colorName == "" {
		colorName = "-"
	}
	if r.Tag != nil {
		tag = fmt.Sprintf("%d", *r.Tag)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%d", r.Address, name, r.Kind, colorName, tag, r.RSSI)
}

// spaced is for streamed rows, which cannot be column-aligned.
func spaced(line string) string { return strings.ReplaceAll(line, "\t", "  ") }

func printDevices(out io.Writer, devices []scanner.Discovered, format string) error {
	if format == "json" {
		rows := make([]scanRow, 0, len(devices))
		for _, d := range devices {
			rows = append(rows, rowOf(d))
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(devices) == 0 {
		fmt.Fprintln(out, color.YellowString("No Coral devices found."))
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, tableHeader)
	for _, d := range devices {
		fmt.Fprintln(w, rowOf(d).tableLine())
	}
	return w.Flush()
}
