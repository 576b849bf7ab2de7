package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/coral/pkg/coral"
)

func newInfoCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "info <address>",
		Short: "Connect and show device versions",
		Long: `Find the device at <address>, connect to it and print what it
advertised together with the versions and identifier it reports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			if format == "" {
				format = s.cfg.OutputFormat
			}
			if err := validateFormat(format); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			p, cleanup, err := s.connect(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := p.DeviceUUID(cmd.Context())
			if err != nil {
				return fmt.Errorf("device uuid request failed: %w", err)
			}
			return printInfo(cmd.OutOrStdout(), p, id.String(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (table, json)")
	return cmd
}

func printInfo(out io.Writer, p coral.Peripheral, uuid, format string) error {
	info := p.Info()
	om := orderedmap.New[string, any]()
	om.Set("address", info.Address)
	om.Set("name", info.Name)
	om.Set("kind", p.Kind().String())
	om.Set("firmware", info.Firmware.String())
	om.Set("bootloader", info.Bootloader.String())
	if info.Color != nil {
		om.Set("color", info.Color.String())
	}
	if info.Tag != nil {
		om.Set("tag", *info.Tag)
	}
	om.Set("uuid", uuid)

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(om)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(w, "%s:\t%v\n", pair.Key, pair.Value)
	}
	return w.Flush()
}
