package coral

import (
	"context"

	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
)

// DoubleMotor drives the two-port motor, either per port or as a drive base.
type DoubleMotor struct {
	*Device
}

// NewDoubleMotor creates a disconnected double motor handle.
func NewDoubleMotor(transport device.Transport, info Info, opts *Options) *DoubleMotor {
	return &DoubleMotor{Device: newDevice(protocol.KindDoubleMotor, transport, info, opts)}
}

func (m *DoubleMotor) SetSpeed(ctx context.Context, port protocol.MotorBits, speed float64) error {
	return m.send(ctx, protocol.MotorSetSpeed{Motors: port, Speed: ClampSpeed(speed)})
}

// SetSpeeds sets the left then the right port, one request each.
func (m *DoubleMotor) SetSpeeds(ctx context.Context, left, right float64) error {
	if err := m.SetSpeed(ctx, protocol.MotorLeft, left); err != nil {
		return err
	}
	return m.SetSpeed(ctx, protocol.MotorRight, right)
}

func (m *DoubleMotor) SetPower(ctx context.Context, port protocol.MotorBits, power float64) error {
	return m.send(ctx, protocol.MotorSetDutyCycle{Motors: port, DutyCycle: ClampSpeed(power)})
}

// SetPowers sets the left then the right duty cycle.
func (m *DoubleMotor) SetPowers(ctx context.Context, left, right float64) error {
	if err := m.SetPower(ctx, protocol.MotorLeft, left); err != nil {
		return err
	}
	return m.SetPower(ctx, protocol.MotorRight, right)
}

func (m *DoubleMotor) StartAtPower(ctx context.Context, port protocol.MotorBits, power float64) error {
	return m.SetPower(ctx, port, power)
}

func (m *DoubleMotor) Start(ctx context.Context, port protocol.MotorBits, dir protocol.MotorMoveDirection) error {
	return m.send(ctx, protocol.MotorRun{Motors: port, Direction: dir})
}

func (m *DoubleMotor) RunForDegrees(ctx context.Context, port protocol.MotorBits, degrees int, dir protocol.MotorMoveDirection) error {
	return m.send(ctx, protocol.MotorRunForDegrees{Motors: port, Degrees: degrees, Direction: dir})
}

func (m *DoubleMotor) RunForTime(ctx context.Context, port protocol.MotorBits, timeMs int, dir protocol.MotorMoveDirection) error {
	return m.send(ctx, protocol.MotorRunForTime{Motors: port, TimeMs: timeMs, Direction: dir})
}

func (m *DoubleMotor) RunToAbsolutePosition(ctx context.Context, port protocol.MotorBits, position int, dir protocol.MotorMoveDirection) error {
	return m.send(ctx, protocol.MotorRunToAbsolutePosition{Motors: port, Position: position, Direction: dir})
}

func (m *DoubleMotor) RunToRelativePosition(ctx context.Context, port protocol.MotorBits, offset int) error {
	return m.send(ctx, protocol.MotorRunToRelativePosition{Motors: port, Offset: offset})
}

func (m *DoubleMotor) ResetRelativePosition(ctx context.Context, port protocol.MotorBits, position int) error {
	return m.send(ctx, protocol.MotorResetRelativePosition{Motors: port, Position: position})
}

// Stop stops the given ports. Pass protocol.MotorBoth to stop everything.
func (m *DoubleMotor) Stop(ctx context.Context, port protocol.MotorBits) error {
	return m.send(ctx, protocol.MotorStop{Motors: port})
}

func (m *DoubleMotor) SetEndState(ctx context.Context, port protocol.MotorBits, state protocol.MotorEndState) error {
	return m.send(ctx, protocol.MotorSetEndState{Motors: port, EndState: state})
}

func (m *DoubleMotor) SetAcceleration(ctx context.Context, port protocol.MotorBits, acceleration, deceleration float64) error {
	return m.send(ctx, protocol.MotorSetAcceleration{
		Motors:       port,
		Acceleration: ClampAcceleration(acceleration),
		Deceleration: ClampAcceleration(deceleration),
	})
}

// Drive-base movement. Both ports move together using the movement speed,
// steering and acceleration set below.

func (m *DoubleMotor) StartMoving(ctx context.Context, dir protocol.MovementDirection) error {
	return m.send(ctx, protocol.MovementMove{Direction: dir})
}

func (m *DoubleMotor) StopMoving(ctx context.Context) error {
	return m.send(ctx, protocol.MovementStop{})
}

func (m *DoubleMotor) MoveForTime(ctx context.Context, timeMs int, dir protocol.MovementDirection) error {
	return m.send(ctx, protocol.MovementMoveForTime{TimeMs: timeMs, Direction: dir})
}

func (m *DoubleMotor) MoveForDegrees(ctx context.Context, degrees int, dir protocol.MovementDirection) error {
	return m.send(ctx, protocol.MovementMoveForDegrees{Degrees: degrees, Direction: dir})
}

// MoveForDistance is MoveForDegrees; distance is measured in wheel degrees.
func (m *DoubleMotor) MoveForDistance(ctx context.Context, degrees int, dir protocol.MovementDirection) error {
	return m.MoveForDegrees(ctx, degrees, dir)
}

// Turn spins in place for degrees of wheel rotation. dir is normally
// MoveLeft or MoveRight.
func (m *DoubleMotor) Turn(ctx context.Context, degrees int, dir protocol.MovementDirection) error {
	return m.MoveForDegrees(ctx, degrees, dir)
}

// MoveTank drives each side at its own speed until stopped.
func (m *DoubleMotor) MoveTank(ctx context.Context, left, right float64) error {
	return m.send(ctx, protocol.MovementMoveTank{LeftSpeed: ClampSpeed(left), RightSpeed: ClampSpeed(right)})
}

func (m *DoubleMotor) MoveTankForTime(ctx context.Context, left, right float64, timeMs int) error {
	return m.send(ctx, protocol.MovementMoveTankForTime{
		TimeMs:     timeMs,
		LeftSpeed:  ClampSpeed(left),
		RightSpeed: ClampSpeed(right),
	})
}

func (m *DoubleMotor) MoveTankForDegrees(ctx context.Context, left, right float64, degrees int) error {
	return m.send(ctx, protocol.MovementMoveTankForDegrees{
		Degrees:    degrees,
		LeftSpeed:  ClampSpeed(left),
		RightSpeed: ClampSpeed(right),
	})
}

func (m *DoubleMotor) SetMovementSpeed(ctx context.Context, speed float64) error {
	return m.send(ctx, protocol.MovementSetSpeed{Speed: ClampSpeed(speed)})
}

func (m *DoubleMotor) SetMovementEndState(ctx context.Context, state protocol.MotorEndState) error {
	return m.send(ctx, protocol.MovementSetEndState{EndState: state})
}

func (m *DoubleMotor) SetMovementAcceleration(ctx context.Context, acceleration, deceleration float64) error {
	return m.send(ctx, protocol.MovementSetAcceleration{
		Acceleration: ClampAcceleration(acceleration),
		Deceleration: ClampAcceleration(deceleration),
	})
}

// SetMovementSteering biases subsequent moves: -100 turns fully left, 100 fully right.
func (m *DoubleMotor) SetMovementSteering(ctx context.Context, steering float64) error {
	return m.send(ctx, protocol.MovementSetTurnSteering{Steering: ClampSpeed(steering)})
}
