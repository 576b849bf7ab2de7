package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/srg/coral/internal/protocol"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>...",
		Short: "Decode a device-to-host frame",
		Long: `Decode a raw frame received from a Coral device and print it as JSON.
Bytes may be separated by spaces or colons, e.g. "01 00 01 04 55 00".`,
		Example: `  coralctl decode 6900
  coralctl decode 7b 01 00`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := parseHex(strings.Join(args, ""))
			if err != nil {
				return err
			}
			msg, err := protocol.Decode(frame)
			if err != nil {
				return err
			}
			if msg == nil {
				return fmt.Errorf("unknown opcode %d", frame[0])
			}
			rendered, err := describeMessage(msg)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rendered)
		},
	}
}

func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "0x", "", "0X", "", ",", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex frame: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("empty frame")
	}
	return b, nil
}

func newEncodeCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "encode <command> [field=value | value]...",
		Short: "Encode a host-to-device command",
		Long: `Encode a command frame and print it as hex. Values are given in schema
order or as field=value pairs. Enum fields accept names: motors (left, right,
both), direction, color and endState.`,
		Example: `  coralctl encode LightColorCommand red
  coralctl encode MotorRunForDegrees motors=both degrees=360 direction=ccw
  coralctl encode --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return listCommands(cmd.OutOrStdout())
			}
			if len(args) == 0 {
				return fmt.Errorf("requires a command name (see --list)")
			}
			op, err := resolveCommand(args[0])
			if err != nil {
				return err
			}
			values, err := commandValues(op, args[1:])
			if err != nil {
				return err
			}
			frame, err := protocol.Encode(protocol.RawCommand{Op: op, Args: values})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(frame))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List the commands and their fields")
	return cmd
}

// resolveCommand accepts the opcode name with or without its Command or
// Request suffix, case-insensitively.
func resolveCommand(name string) (protocol.MessageType, error) {
	for _, candidate := range []string{name, name + "Command", name + "Request"} {
		for op := range commandOpcodes() {
			if strings.EqualFold(op.String(), candidate) {
				return op, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

// commandOpcodes yields every opcode that has an outbound schema.
func commandOpcodes() func(yield func(protocol.MessageType) bool) {
	return func(yield func(protocol.MessageType) bool) {
		for i := 0; i <= 0xFF; i++ {
			op := protocol.MessageType(i)
			if _, ok := protocol.Schema(op); ok && !yield(op) {
				return
			}
		}
	}
}

func commandValues(op protocol.MessageType, args []string) ([]int64, error) {
	schema, _ := protocol.Schema(op)
	values := make([]int64, len(schema))
	set := make([]bool, len(schema))

	for i, arg := range args {
		idx, raw := i, arg
		if name, value, ok := strings.Cut(arg, "="); ok {
			idx = slices.IndexFunc(schema, func(f protocol.Field) bool { return strings.EqualFold(f.Name, name) })
			if idx < 0 {
				return nil, fmt.Errorf("%s has no field %q", op, name)
			}
			raw = value
		} else if i >= len(schema) {
			return nil, fmt.Errorf("%s takes %d values, got %d", op, len(schema), len(args))
		}

		v, err := fieldValue(op, schema[idx].Name, raw)
		if err != nil {
			return nil, err
		}
		values[idx], set[idx] = v, true
	}

	for i, ok := range set {
		if !ok {
			return nil, fmt.Errorf("%w: %s requires %q", protocol.ErrMissingField, op, schema[i].Name)
		}
	}
	return values, nil
}

func fieldValue(op protocol.MessageType, field, raw string) (int64, error) {
	if v, err := strconv.ParseInt(raw, 0, 64); err == nil {
		return v, nil
	}
	switch field {
	case "motors":
		v, err := protocol.ParseMotorBits(raw)
		return int64(v), err
	case "color":
		v, err := protocol.ParseColor(raw)
		return int64(v), err
	case "endState":
		v, err := protocol.ParseMotorEndState(raw)
		return int64(v), err
	case "direction":
		if strings.HasPrefix(op.String(), "Movement") {
			v, err := protocol.ParseMovementDirection(raw)
			return int64(v), err
		}
		v, err := protocol.ParseMotorMoveDirection(raw)
		return int64(v), err
	}
	return 0, fmt.Errorf("invalid value %q for %s", raw, field)
}

func listCommands(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPCODE\tCOMMAND\tFIELDS")
	for op := range commandOpcodes() {
		schema, _ := protocol.Schema(op)
		names := make([]string, len(schema))
		for i, f := range schema {
			names[i] = fmt.Sprintf("%s:%s", f.Name, f.Width)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", uint8(op), op, strings.Join(names, " "))
	}
	return w.Flush()
}
