package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/pkg/coral"
)

// motorDriver is the per-port motor surface shared by both motor kinds.
type motorDriver interface {
	SetSpeed(ctx context.Context, port protocol.MotorBits, speed float64) error
	SetPower(ctx context.Context, port protocol.MotorBits, power float64) error
	Start(ctx context.Context, port protocol.MotorBits, dir protocol.MotorMoveDirection) error
	Stop(ctx context.Context, port protocol.MotorBits) error
	RunForDegrees(ctx context.Context, port protocol.MotorBits, degrees int, dir protocol.MotorMoveDirection) error
	RunForTime(ctx context.Context, port protocol.MotorBits, timeMs int, dir protocol.MotorMoveDirection) error
	RunToAbsolutePosition(ctx context.Context, port protocol.MotorBits, position int, dir protocol.MotorMoveDirection) error
	RunToRelativePosition(ctx context.Context, port protocol.MotorBits, offset int) error
	ResetRelativePosition(ctx context.Context, port protocol.MotorBits, position int) error
	SetEndState(ctx context.Context, port protocol.MotorBits, state protocol.MotorEndState) error
	SetAcceleration(ctx context.Context, port protocol.MotorBits, acceleration, deceleration float64) error
}

// singleDriver adapts a SingleMotor, which has only the left port.
type singleDriver struct{ m *coral.SingleMotor }

func (d singleDriver) SetSpeed(ctx context.Context, _ protocol.MotorBits, v float64) error {
	return d.m.SetSpeed(ctx, v)
}

func (d singleDriver) SetPower(ctx context.Context, _ protocol.MotorBits, v float64) error {
	return d.m.SetPower(ctx, v)
}

func (d singleDriver) Start(ctx context.Context, _ protocol.MotorBits, dir protocol.MotorMoveDirection) error {
	return d.m.Start(ctx, dir)
}

func (d singleDriver) Stop(ctx context.Context, _ protocol.MotorBits) error {
	return d.m.Stop(ctx)
}

func (d singleDriver) RunForDegrees(ctx context.Context, _ protocol.MotorBits, deg int, dir protocol.MotorMoveDirection) error {
	return d.m.RunForDegrees(ctx, deg, dir)
}

func (d singleDriver) RunForTime(ctx context.Context, _ protocol.MotorBits, ms int, dir protocol.MotorMoveDirection) error {
	return d.m.RunForTime(ctx, ms, dir)
}

func (d singleDriver) RunToAbsolutePosition(ctx context.Context, _ protocol.MotorBits, pos int, dir protocol.MotorMoveDirection) error {
	return d.m.RunToAbsolutePosition(ctx, pos, dir)
}

func (d singleDriver) RunToRelativePosition(ctx context.Context, _ protocol.MotorBits, offset int) error {
	return d.m.RunToRelativePosition(ctx, offset)
}

func (d singleDriver) ResetRelativePosition(ctx context.Context, _ protocol.MotorBits, pos int) error {
	return d.m.ResetRelativePosition(ctx, pos)
}

func (d singleDriver) SetEndState(ctx context.Context, _ protocol.MotorBits, state protocol.MotorEndState) error {
	return d.m.SetEndState(ctx, state)
}

func (d singleDriver) SetAcceleration(ctx context.Context, _ protocol.MotorBits, acc, dec float64) error {
	return d.m.SetAcceleration(ctx, acc, dec)
}

var _ motorDriver = (*coral.DoubleMotor)(nil)

func driverFor(p coral.Peripheral) (motorDriver, error) {
	switch m := p.(type) {
	case *coral.SingleMotor:
		return singleDriver{m}, nil
	case *coral.DoubleMotor:
		return m, nil
	default:
		return nil, fmt.Errorf("%s is a %s, not a motor", p.Info().Address, p.Kind())
	}
}

// motorAction runs one motor subcommand; args exclude the address and action.
type motorAction struct {
	usage   string
	minArgs int
	maxArgs int
	run     func(ctx context.Context, d motorDriver, port protocol.MotorBits, args []string) error
}

func direction(args []string, i int) (protocol.MotorMoveDirection, error) {
	if len(args) <= i {
		return protocol.DirectionCw, nil
	}
	return protocol.ParseMotorMoveDirection(args[i])
}

func intArg(args []string, i int, name string) (int, error) {
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", name, args[i])
	}
	return v, nil
}

func floatArg(args []string, i int, name string) (float64, error) {
	v, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a number", name, args[i])
	}
	return v, nil
}

var motorActions = map[string]motorAction{
	"speed": {"speed <-100..100>", 1, 1, func(ctx context.Context, d motorDriver, port protocol.MotorBits, args []string) error {
		v, err := floatArg(args, 0, "speed")
		if err != nil {
			return err
		}
		return d.SetSpeed(ctx, port, v)
	}},
	"power": {"power <-100..100>", 1, 1, func(ctx context.Context, d motorDriver, port protocol.MotorBits, args []string) error {
		v, err := floatArg(args, 0, "power")
		if err != nil {
			return err
		}
		return d.SetPower(ctx, port, v)
	}},
	"start": {"start [direction]", 0, 1, func(ctx context.Context, d motorDriver, port protocol.MotorBits, args []string) error {
		dir, err := direction(args, 0)
		if err != nil {
			return err
		}
		return d.Start(ctx, port, dir)
	}},
	"stop": {"stop", 0, 0, func(ctx context.Context, d motorDriver, port protocol.MotorBits, _ []string) error {
		return d.Stop(ctx, port)
	}},
	"degrees": {"degrees <degrees> [direction]", 1, 2, func(ctx context.Context, d motorDriver, port protocol.MotorBits, args []string) error {
		deg, err := intArg(args, 0, "degrees")
		if err != nil {
			return err
		}
		dir, err := direction(args, 1)
		if err != nil {
			return err
		}
		return d.RunForDegrees(ctx, port, deg, dir)
	}},
	"time": {"time <ms> [direction]", 1, 2, func(ctx context.Context, d motorDriver, port protocol.MotorBits, args []string) error {
		ms, err := intArg(args, 0, "time")
		if err != nil {
			return err
		}
		dir, err := direction(args, 1)
		if err != nil {
			return err
		}
		return d.RunForTime(ctx, port, ms, dir)
	}},
	"absolute": {"absolute <position> [direction]", 1, 2, func(ctx context.Context, d motorDriver, port protocol.MotorBits, args []string) error {
		pos, err := intArg(args, 0, "position")
		if err != nil {
			return err
		}
		dir, err := direction(args, 1)
		if err != nil {
			return err
		}
		return d.RunToAbsolutePosition(ctx, port, pos, dir)
	}},
	"relative": {"relative <offset>", 1, 1, func(ctx context.Context, d motorDriver, port protocol.MotorBits, args []string) error {
		offset, err := intArg(args, 0, "offset")
		if err != nil {
			return err
		}
		return d.RunToRelativePosition(ctx, port, offset)
	}},
	"reset": {"reset [position]", 0, 1, func(ctx context.Context, d motorDriver, port protocol.MotorBits, args []string) error {
		pos := 0
		if len(args) > 0 {
			var err error
			if pos, err = intArg(args, 0, "position"); err != nil {
				return err
			}
		}
		return d.ResetRelativePosition(ctx, port, pos)
	}},
	"endstate": {"endstate <state>", 1, 1, func(ctx context.Context, d motorDriver, port protocol.MotorBits, args []string) error {
		state, err := protocol.ParseMotorEndState(args[0])
		if err != nil {
			return err
		}
		return d.SetEndState(ctx, port, state)
	}},
	"accel": {"accel <acceleration> <deceleration>", 2, 2, func(ctx context.Context, d motorDriver, port protocol.MotorBits, args []string) error {
		acc, err := floatArg(args, 0, "acceleration")
		if err != nil {
			return err
		}
		dec, err := floatArg(args, 1, "deceleration")
		if err != nil {
			return err
		}
		return d.SetAcceleration(ctx, port, acc, dec)
	}},
}

func newMotorCmd() *cobra.Command {
	var portName string
	cmd := &cobra.Command{
		Use:   "motor [--port left|right|both] <address> <action> [args...]",
		Short: "Drive a single or double motor",
		Long: `Send one motor command and wait for the device to confirm it.

Actions:
  speed <-100..100>                  set the default speed
  power <-100..100>                  run at a duty cycle
  start [direction]                  run at the default speed
  stop                               stop
  degrees <degrees> [direction]      run for an angle
  time <ms> [direction]              run for a duration
  absolute <position> [direction]    run to an absolute position (0..359)
  relative <offset>                  run to a position relative to the last reset
  reset [position]                   reset the relative position counter
  endstate <state>                   coast, brake, hold, continue, smartcoast, smartbrake
  accel <acceleration> <deceleration>

Directions: cw, ccw, shortest, longest. Values are clamped to their range.
Flags go before <address>, so negative values are read as arguments:
  coralctl motor -p right CC speed -40`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, ok := motorActions[args[1]]
			if !ok {
				return fmt.Errorf("unknown motor action %q", args[1])
			}
			rest := args[2:]
			if len(rest) < action.minArgs || len(rest) > action.maxArgs {
				return fmt.Errorf("usage: motor <address> %s", action.usage)
			}
			port, err := protocol.ParseMotorBits(portName)
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

			driver, err := driverFor(p)
			if err != nil {
				return err
			}
			if err := action.run(cmd.Context(), driver, port, rest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: ok\n", args[1], port)
			return nil
		},
	}
	cmd.Flags().StringVarP(&portName, "port", "p", "left", "Motor port on a double motor (left, right, both)")
	return positionalFirst(cmd)
}
