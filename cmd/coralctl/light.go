package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/srg/coral/internal/protocol"
)

func newLightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "light <address> <color>",
		Short: "Set the status light color",
		Long:  "Set the status light. Colors: none, black, magenta, purple, blue, azure, turquoise, green, yellow, orange, red, white.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := protocol.ParseColor(args[1])
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			p, cleanup, err := s.connect(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := p.SetLightColor(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "light %s: ok\n", c)
			return nil
		},
	}
}

func newBeepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "beep <address> <frequency-hz> <duration-ms>",
		Short: "Play a tone",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			freq, err := strconv.Atoi(args[1])
			if err != nil || freq <= 0 {
				return fmt.Errorf("invalid frequency %q", args[1])
			}
			dur, err := strconv.Atoi(args[2])
			if err != nil || dur < 0 {
				return fmt.Errorf("invalid duration %q", args[2])
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			p, cleanup, err := s.connect(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := p.Beep(cmd.Context(), freq, dur); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "beep: ok")
			return nil
		},
	}
}
