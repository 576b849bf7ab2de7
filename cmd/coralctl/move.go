package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/pkg/coral"
)

type moveFlags struct {
	timeMs  int
	degrees int
}

func newMoveCmd() *cobra.Command {
	f := &moveFlags{}
	cmd := &cobra.Command{
		Use:   "move [--time ms | --degrees n] <address> <action> [args...]",
		Short: "Drive a double motor as a two-wheeled base",
		Long: `Send one movement command to a double motor.

Actions:
  forward|backward|left|right        move in a direction; bounded by --time or --degrees
  tank <left> <right>                run each wheel at its own speed; bounded by --time or --degrees
  stop                               stop both wheels
  speed <-100..100>                  set the movement speed
  steering <-100..100>               set the turn steering
  endstate <state>                   set the movement end state
  accel <acceleration> <deceleration>

Flags go before <address>, so negative values are read as arguments:
  coralctl move -t 1000 CC tank 50 -50`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.timeMs > 0 && f.degrees != 0 {
				return fmt.Errorf("--time and --degrees are mutually exclusive")
			}
			run, err := moveAction(args[1], args[2:], f)
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

			base, ok := p.(*coral.DoubleMotor)
			if !ok {
				return fmt.Errorf("%s is a %s, not a double motor", args[0], p.Kind())
			}
			if err := run(cmd.Context(), base); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "move %s: ok\n", args[1])
			return nil
		},
	}
	cmd.Flags().IntVarP(&f.timeMs, "time", "t", 0, "Move for this many milliseconds")
	cmd.Flags().IntVar(&f.degrees, "degrees", 0, "Move for this many wheel degrees")
	return positionalFirst(cmd)
}

type moveFunc func(ctx context.Context, m *coral.DoubleMotor) error

func wantArgs(action string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("move %s takes %d argument(s), got %d", action, n, len(args))
	}
	return nil
}

// moveAction validates the arguments before any connection is made.
func moveAction(action string, args []string, f *moveFlags) (moveFunc, error) {
	if dir, err := protocol.ParseMovementDirection(action); err == nil {
		if err := wantArgs(action, args, 0); err != nil {
			return nil, err
		}
		return func(ctx context.Context, m *coral.DoubleMotor) error {
			switch {
			case f.timeMs > 0:
				return m.MoveForTime(ctx, f.timeMs, dir)
			case f.degrees != 0:
				return m.MoveForDegrees(ctx, f.degrees, dir)
			default:
				return m.StartMoving(ctx, dir)
			}
		}, nil
	}

	switch action {
	case "stop":
		if err := wantArgs(action, args, 0); err != nil {
			return nil, err
		}
		return func(ctx context.Context, m *coral.DoubleMotor) error { return m.StopMoving(ctx) }, nil

	case "tank":
		if err := wantArgs(action, args, 2); err != nil {
			return nil, err
		}
		left, err := floatArg(args, 0, "left speed")
		if err != nil {
			return nil, err
		}
		right, err := floatArg(args, 1, "right speed")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, m *coral.DoubleMotor) error {
			switch {
			case f.timeMs > 0:
				return m.MoveTankForTime(ctx, left, right, f.timeMs)
			case f.degrees != 0:
				return m.MoveTankForDegrees(ctx, left, right, f.degrees)
			default:
				return m.MoveTank(ctx, left, right)
			}
		}, nil

	case "speed", "steering":
		if err := wantArgs(action, args, 1); err != nil {
			return nil, err
		}
		v, err := floatArg(args, 0, action)
		if err != nil {
			return nil, err
		}
		if action == "speed" {
			return func(ctx context.Context, m *coral.DoubleMotor) error { return m.SetMovementSpeed(ctx, v) }, nil
		}
		return func(ctx context.Context, m *coral.DoubleMotor) error { return m.SetMovementSteering(ctx, v) }, nil

	case "endstate":
		if err := wantArgs(action, args, 1); err != nil {
			return nil, err
		}
		state, err := protocol.ParseMotorEndState(args[0])
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, m *coral.DoubleMotor) error { return m.SetMovementEndState(ctx, state) }, nil

	case "accel":
		if err := wantArgs(action, args, 2); err != nil {
			return nil, err
		}
		acc, err := floatArg(args, 0, "acceleration")
		if err != nil {
			return nil, err
		}
		dec, err := floatArg(args, 1, "deceleration")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, m *coral.DoubleMotor) error { return m.SetMovementAcceleration(ctx, acc, dec) }, nil
	}
	return nil, fmt.Errorf("unknown move action %q", action)
}
