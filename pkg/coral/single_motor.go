package coral

import (
	"context"

	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
)

// SingleMotor drives the one-port motor. Every command targets the left port.
type SingleMotor struct {
	*Device
}

// NewSingleMotor creates a disconnected single motor handle.
func NewSingleMotor(transport device.Transport, info Info, opts *Options) *SingleMotor {
	return &SingleMotor{Device: newDevice(protocol.KindSingleMotor, transport, info, opts)}
}

const singlePort = protocol.MotorLeft

// SetSpeed sets the target speed in percent.
func (m *SingleMotor) SetSpeed(ctx context.Context, speed float64) error {
	return m.send(ctx, protocol.MotorSetSpeed{Motors: singlePort, Speed: ClampSpeed(speed)})
}

// SetPower sets the duty cycle in percent, negative for counter-clockwise.
func (m *SingleMotor) SetPower(ctx context.Context, power float64) error {
	return m.send(ctx, protocol.MotorSetDutyCycle{Motors: singlePort, DutyCycle: ClampSpeed(power)})
}

// StartAtPower is SetPower; a non-zero duty cycle starts the motor.
func (m *SingleMotor) StartAtPower(ctx context.Context, power float64) error {
	return m.SetPower(ctx, power)
}

// Start runs the motor at the configured speed until stopped.
func (m *SingleMotor) Start(ctx context.Context, dir protocol.MotorMoveDirection) error {
	return m.send(ctx, protocol.MotorRun{Motors: singlePort, Direction: dir})
}

func (m *SingleMotor) RunForDegrees(ctx context.Context, degrees int, dir protocol.MotorMoveDirection) error {
	return m.send(ctx, protocol.MotorRunForDegrees{Motors: singlePort, Degrees: degrees, Direction: dir})
}

func (m *SingleMotor) RunForTime(ctx context.Context, timeMs int, dir protocol.MotorMoveDirection) error {
	return m.send(ctx, protocol.MotorRunForTime{Motors: singlePort, TimeMs: timeMs, Direction: dir})
}

// RunToAbsolutePosition turns to position (0..359). Use DirectionShortest for
// the usual behavior.
func (m *SingleMotor) RunToAbsolutePosition(ctx context.Context, position int, dir protocol.MotorMoveDirection) error {
	return m.send(ctx, protocol.MotorRunToAbsolutePosition{Motors: singlePort, Position: position, Direction: dir})
}

func (m *SingleMotor) RunToRelativePosition(ctx context.Context, offset int) error {
	return m.send(ctx, protocol.MotorRunToRelativePosition{Motors: singlePort, Offset: offset})
}

// ResetRelativePosition redefines the current relative position as position.
func (m *SingleMotor) ResetRelativePosition(ctx context.Context, position int) error {
	return m.send(ctx, protocol.MotorResetRelativePosition{Motors: singlePort, Position: position})
}

func (m *SingleMotor) Stop(ctx context.Context) error {
	return m.send(ctx, protocol.MotorStop{Motors: singlePort})
}

func (m *SingleMotor) SetEndState(ctx context.Context, state protocol.MotorEndState) error {
	return m.send(ctx, protocol.MotorSetEndState{Motors: singlePort, EndState: state})
}

// SetAcceleration sets the ramp used by subsequent moves.
func (m *SingleMotor) SetAcceleration(ctx context.Context, acceleration, deceleration float64) error {
	return m.send(ctx, protocol.MotorSetAcceleration{
		Motors:       singlePort,
		Acceleration: ClampAcceleration(acceleration),
		Deceleration: ClampAcceleration(deceleration),
	})
}
