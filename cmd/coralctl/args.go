package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// positionalFirst stops flag parsing at the first positional argument so
// negative values such as "-50" reach the command as arguments. Flags must
// then be given before <address>.
func positionalFirst(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().SetInterspersed(false)
	cmd.Args = cobra.MatchAll(cmd.Args, flagsBeforeAddress)
	return cmd
}

// flagsBeforeAddress rejects a known flag that was left after the positional
// arguments, where it would otherwise be read as a value.
func flagsBeforeAddress(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") || isNumber(arg) {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		name, _, _ = strings.Cut(name, "=")
		known := cmd.Flags().Lookup(name) != nil
		if !strings.HasPrefix(arg, "--") && len(name) > 0 {
			known = known || cmd.Flags().ShorthandLookup(name[:1]) != nil
		}
		if known {
			return fmt.Errorf("flag %s must come before <address>", arg)
		}
	}
	return nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
