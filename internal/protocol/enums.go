package protocol

import (
	"fmt"
	"strings"
)

// MotorBits selects the motor port(s) a command or result concerns.
type MotorBits uint8

const (
	MotorLeft  MotorBits = 1
	MotorRight MotorBits = 2
	MotorBoth  MotorBits = 3
)

func (b MotorBits) String() string {
	switch b {
	case MotorLeft:
		return "left"
	case MotorRight:
		return "right"
	case MotorBoth:
		return "both"
	default:
		return fmt.Sprintf("MotorBits(%d)", uint8(b))
	}
}

// ParseMotorBits accepts "left", "right" or "both".
func ParseMotorBits(s string) (MotorBits, error) {
	switch strings.ToLower(s) {
	case "left":
		return MotorLeft, nil
	case "right":
		return MotorRight, nil
	case "both":
		return MotorBoth, nil
	default:
		return 0, fmt.Errorf("unknown motor port %q (expected left, right or both)", s)
	}
}

// MotorMoveDirection is the rotation direction for single-motor moves.
type MotorMoveDirection uint8

const (
	DirectionCw MotorMoveDirection = iota
	DirectionCcw
	DirectionShortest
	DirectionLongest
)

var motorDirectionNames = []string{"cw", "ccw", "shortest", "longest"}

func (d MotorMoveDirection) String() string {
	if int(d) < len(motorDirectionNames) {
		return motorDirectionNames[d]
	}
	return fmt.Sprintf("MotorMoveDirection(%d)", uint8(d))
}

// ParseMotorMoveDirection accepts the lowercase direction names.
func ParseMotorMoveDirection(s string) (MotorMoveDirection, error) {
	for i, name := range motorDirectionNames {
		if strings.EqualFold(s, name) {
			return MotorMoveDirection(i), nil
		}
	}
	return 0, fmt.Errorf("unknown motor direction %q", s)
}

// MovementDirection is the direction of a drive-base move.
type MovementDirection uint8

const (
	MoveForward MovementDirection = iota
	MoveBackward
	MoveLeft
	MoveRight
)

var movementDirectionNames = []string{"forward", "backward", "left", "right"}

func (d MovementDirection) String() string {
	if int(d) < len(movementDirectionNames) {
		return movementDirectionNames[d]
	}
	return fmt.Sprintf("MovementDirection(%d)", uint8(d))
}

// ParseMovementDirection accepts the lowercase direction names.
func ParseMovementDirection(s string) (MovementDirection, error) {
	for i, name := range movementDirectionNames {
		if strings.EqualFold(s, name) {
			return MovementDirection(i), nil
		}
	}
	return 0, fmt.Errorf("unknown movement direction %q", s)
}

// MotorEndState is what a motor does once a bounded move finishes.
type MotorEndState int8

const (
	EndStateDefault    MotorEndState = -1
	EndStateCoast      MotorEndState = 0
	EndStateBrake      MotorEndState = 1
	EndStateHold       MotorEndState = 2
	EndStateContinue   MotorEndState = 3
	EndStateSmartCoast MotorEndState = 4
	EndStateSmartBrake MotorEndState = 5
)

var endStateNames = map[MotorEndState]string{
	EndStateDefault:    "default",
	EndStateCoast:      "coast",
	EndStateBrake:      "brake",
	EndStateHold:       "hold",
	EndStateContinue:   "continue",
	EndStateSmartCoast: "smartcoast",
	EndStateSmartBrake: "smartbrake",
}

func (s MotorEndState) String() string {
	if name, ok := endStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MotorEndState(%d)", int8(s))
}

// ParseMotorEndState accepts the lowercase end state names.
func ParseMotorEndState(s string) (MotorEndState, error) {
	for state, name := range endStateNames {
		if strings.EqualFold(s, name) {
			return state, nil
		}
	}
	return 0, fmt.Errorf("unknown end state %q", s)
}

// MotorState is reported in motor sensor records.
type MotorState uint8

const (
	MotorReady   MotorState = 0
	MotorRunning MotorState = 1
	MotorStalled MotorState = 2
	MotorHolding MotorState = 6
)

func (s MotorState) String() string {
	switch s {
	case MotorReady:
		return "ready"
	case MotorRunning:
		return "running"
	case MotorStalled:
		return "stalled"
	case MotorHolding:
		return "holding"
	default:
		return fmt.Sprintf("MotorState(%d)", uint8(s))
	}
}

// CommandStatus is the three-way status carried by actuator results.
type CommandStatus uint8

const (
	StatusCompleted   CommandStatus = 0
	StatusInterrupted CommandStatus = 1
	StatusNack        CommandStatus = 2
)

func (s CommandStatus) String() string {
	switch s {
	case StatusCompleted:
		return "Completed"
	case StatusInterrupted:
		return "Interrupted"
	case StatusNack:
		return "Nack"
	default:
		return fmt.Sprintf("CommandStatus(%d)", uint8(s))
	}
}

// ResponseStatus is the ack/nack status carried by administrative responses.
type ResponseStatus uint8

const (
	ResponseAck  ResponseStatus = 0
	ResponseNack ResponseStatus = 1
)

func (s ResponseStatus) String() string {
	switch s {
	case ResponseAck:
		return "Ack"
	case ResponseNack:
		return "Nack"
	default:
		return fmt.Sprintf("ResponseStatus(%d)", uint8(s))
	}
}

// Color is a color index as used by tags, the light and the color sensor.
type Color int8

const (
	ColorNone      Color = -1
	ColorBlack     Color = 0
	ColorMagenta   Color = 1
	ColorPurple    Color = 2
	ColorBlue      Color = 3
	ColorAzure     Color = 4
	ColorTurquoise Color = 5
	ColorGreen     Color = 6
	ColorYellow    Color = 7
	ColorOrange    Color = 8
	ColorRed       Color = 9
	ColorWhite     Color = 10
)

var colorNames = map[Color]string{
	ColorNone:      "none",
	ColorBlack:     "black",
	ColorMagenta:   "magenta",
	ColorPurple:    "purple",
	ColorBlue:      "blue",
	ColorAzure:     "azure",
	ColorTurquoise: "turquoise",
	ColorGreen:     "green",
	ColorYellow:    "yellow",
	ColorOrange:    "orange",
	ColorRed:       "red",
	ColorWhite:     "white",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Color(%d)", int8(c))
}

// ParseColor accepts a color name.
func ParseColor(s string) (Color, error) {
	for c, name := range colorNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown color %q", s)
}

// ProductGroupDevice identifies the product reported in InfoResponse.
type ProductGroupDevice uint16

const (
	ProductSpikePrime       ProductGroupDevice = 0
	ProductSpikeEssential   ProductGroupDevice = 1
	ProductSpikePrimeH5     ProductGroupDevice = 2
	ProductCoralSingleMotor ProductGroupDevice = 512
	ProductCoralDualMotor   ProductGroupDevice = 513
	ProductCoralColorSensor ProductGroupDevice = 514
	ProductCoralJoystick    ProductGroupDevice = 515
)

func (p ProductGroupDevice) String() string {
	switch p {
	case ProductSpikePrime:
		return "SpikePrime"
	case ProductSpikeEssential:
		return "SpikeEssential"
	case ProductSpikePrimeH5:
		return "SpikePrimeH5"
	case ProductCoralSingleMotor:
		return "CoralSingleMotor"
	case ProductCoralDualMotor:
		return "CoralDualMotor"
	case ProductCoralColorSensor:
		return "CoralColorSensor"
	case ProductCoralJoystick:
		return "CoralJoystick"
	default:
		return fmt.Sprintf("ProductGroupDevice(%d)", uint16(p))
	}
}

// DeviceKind is the Coral hardware family.
type DeviceKind uint8

const (
	KindUnknown DeviceKind = iota
	KindSingleMotor
	KindDoubleMotor
	KindColorSensor
	KindController
)

func (k DeviceKind) String() string {
	switch k {
	case KindSingleMotor:
		return "SingleMotor"
	case KindDoubleMotor:
		return "DoubleMotor"
	case KindColorSensor:
		return "ColorSensor"
	case KindController:
		return "Controller"
	default:
		return "Unknown"
	}
}

// KindOfProduct maps an InfoResponse product to a device kind.
func KindOfProduct(p ProductGroupDevice) DeviceKind {
	switch p {
	case ProductCoralSingleMotor:
		return KindSingleMotor
	case ProductCoralDualMotor:
		return KindDoubleMotor
	case ProductCoralColorSensor:
		return KindColorSensor
	case ProductCoralJoystick:
		return KindController
	default:
		return KindUnknown
	}
}

// KindOfAdvertisedIndex maps the advertised hardware-kind index (low 7 bits) to a device kind.
func KindOfAdvertisedIndex(index byte) DeviceKind {
	switch index & deviceKindMask {
	case 0:
		return KindSingleMotor
	case 1:
		return KindDoubleMotor
	case 2:
		return KindColorSensor
	case 3:
		return KindController
	default:
		return KindUnknown
	}
}
