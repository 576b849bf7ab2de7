package coral

import (
	"context"
	"fmt"

	"github.com/srg/coral/internal/connection"
	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
)

// ColorSensor streams color and reflection readings. It has no commands
// beyond the ones every device supports.
type ColorSensor struct {
	*Device
}

func NewColorSensor(transport device.Transport, info Info, opts *Options) *ColorSensor {
	return &ColorSensor{Device: newDevice(protocol.KindColorSensor, transport, info, opts)}
}

// Controller is the two-stick joystick. It streams joystick and button records.
type Controller struct {
	*Device
}

func NewController(transport device.Transport, info Info, opts *Options) *Controller {
	return &Controller{Device: newDevice(protocol.KindController, transport, info, opts)}
}

// Peripheral is implemented by every device handle.
type Peripheral interface {
	Kind() protocol.DeviceKind
	Info() Info
	Connected() bool
	Connect(ctx context.Context) error
	Disconnect() error
	Close() error
	Events() <-chan DeviceEvent
	Observe(fn func(DeviceEvent)) (cancel func())
	On(kind EventKind, fn func(DeviceEvent)) (cancel func())
	Connection() *connection.Connection

	SetLightColor(ctx context.Context, color protocol.Color) error
	Beep(ctx context.Context, frequency, durationMs int) error
	StopSound(ctx context.Context) error
	DeviceUUID(ctx context.Context) (protocol.DeviceUUIDResponse, error)
}

var (
	_ Peripheral = (*SingleMotor)(nil)
	_ Peripheral = (*DoubleMotor)(nil)
	_ Peripheral = (*ColorSensor)(nil)
	_ Peripheral = (*Controller)(nil)
)

// New creates the handle type matching kind.
func New(kind protocol.DeviceKind, transport device.Transport, info Info, opts *Options) (Peripheral, error) {
	switch kind {
	case protocol.KindSingleMotor:
		return NewSingleMotor(transport, info, opts), nil
	case protocol.KindDoubleMotor:
		return NewDoubleMotor(transport, info, opts), nil
	case protocol.KindColorSensor:
		return NewColorSensor(transport, info, opts), nil
	case protocol.KindController:
		return NewController(transport, info, opts), nil
	default:
		return nil, fmt.Errorf("unsupported device kind %s", kind)
	}
}
