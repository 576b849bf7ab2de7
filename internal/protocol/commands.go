package protocol

import "fmt"

// Command is an outbound host-to-device message.
//
// Values returns the field values in schema order. The codec owns the wire
// widths, so values are plain integers and are truncated on encode.
type Command interface {
	Type() MessageType
	Values() []int64
}

// Field is one entry of a command schema.
type Field struct {
	Name  string
	Width FieldWidth
}

// motorsField is the sub-target field; its presence makes the mask part of the request key.
const motorsField = "motors"

var commandSchemas = map[MessageType][]Field{
	OpInfoRequest:                       nil,
	OpDeviceUUIDRequest:                 nil,
	OpDeviceNotificationRequest:         {{"interval", U16}},
	OpBeginFirmwareUpdateRequest:        {{"size", U32}, {"crc", U32}},
	OpLightColorCommand:                 {{"color", I8}},
	OpBeepCommand:                       {{"frequency", U16}, {"duration", U32}},
	OpStopSoundCommand:                  nil,
	OpMotorResetRelativePositionCommand: {{motorsField, U8}, {"position", I32}},
	OpMotorRunCommand:                   {{motorsField, U8}, {"direction", U8}},
	OpMotorRunForDegreesCommand:         {{motorsField, U8}, {"degrees", I32}, {"direction", U8}},
	OpMotorRunForTimeCommand:            {{motorsField, U8}, {"time", U32}, {"direction", U8}},
	OpMotorRunToAbsolutePositionCommand: {{motorsField, U8}, {"position", U16}, {"direction", U8}},
	OpMotorRunToRelativePositionCommand: {{motorsField, U8}, {"offset", I32}},
	OpMotorSetDutyCycleCommand:          {{motorsField, U8}, {"duty", I16}},
	OpMotorStopCommand:                  {{motorsField, U8}},
	OpMotorSetSpeedCommand:              {{motorsField, U8}, {"speed", I8}},
	OpMotorSetEndStateCommand:           {{motorsField, U8}, {"endState", I8}},
	OpMotorSetAccelerationCommand:       {{motorsField, U8}, {"acceleration", U8}, {"deceleration", U8}},
	OpMovementMoveCommand:               {{"direction", U8}},
	OpMovementMoveForTimeCommand:        {{"time", U32}, {"direction", U8}},
	OpMovementMoveForDegreesCommand:     {{"degrees", I32}, {"direction", U8}},
	OpMovementMoveTankCommand:           {{"leftSpeed", I8}, {"rightSpeed", I8}},
	OpMovementMoveTankForTimeCommand:    {{"time", U32}, {"leftSpeed", I8}, {"rightSpeed", I8}},
	OpMovementMoveTankForDegreesCommand: {{"degrees", I32}, {"leftSpeed", I8}, {"rightSpeed", I8}},
	OpMovementStopCommand:               nil,
	OpMovementSetSpeedCommand:           {{"speed", I8}},
	OpMovementSetEndStateCommand:        {{"endState", I8}},
	OpMovementSetAccelerationCommand:    {{"acceleration", U8}, {"deceleration", U8}},
	OpMovementSetTurnSteeringCommand:    {{"steering", I8}},
	OpImuSetYawFaceCommand:              {{"face", U8}},
	OpImuResetYawAxisCommand:            {{"angle", I16}},
}

// Schema returns the field layout of a command opcode.
func Schema(t MessageType) ([]Field, bool) {
	s, ok := commandSchemas[t]
	return s, ok
}

// Encode serializes cmd. The result always starts with the opcode byte.
func Encode(cmd Command) ([]byte, error) {
	t := cmd.Type()
	schema, ok := commandSchemas[t]
	if !ok {
		return nil, &SchemaError{Type: t, Direction: Outbound}
	}

	values := cmd.Values()
	if len(values) < len(schema) {
		return nil, fmt.Errorf("%w: %s requires %q", ErrMissingField, t, schema[len(values)].Name)
	}
	if len(values) > len(schema) {
		return nil, fmt.Errorf("%s takes %d values, got %d", t, len(schema), len(values))
	}

	size := 1
	for _, f := range schema {
		size += f.Width.Size()
	}
	w := NewWriter(size)
	w.Put(U8, int64(t))
	for i, f := range schema {
		w.Put(f.Width, values[i])
	}
	return w.Bytes(), nil
}

// RawCommand carries an opcode and untyped values. Used where commands are
// built from user input rather than Go code.
type RawCommand struct {
	Op   MessageType
	Args []int64
}

func (c RawCommand) Type() MessageType { return c.Op }
func (c RawCommand) Values() []int64   { return c.Args }

type InfoRequest struct{}

func (InfoRequest) Type() MessageType { return OpInfoRequest }
func (InfoRequest) Values() []int64   { return nil }

type DeviceUUIDRequest struct{}

func (DeviceUUIDRequest) Type() MessageType { return OpDeviceUUIDRequest }
func (DeviceUUIDRequest) Values() []int64   { return nil }

// DeviceNotificationRequest sets the sensor streaming interval in milliseconds.
// Zero stops streaming.
type DeviceNotificationRequest struct {
	IntervalMs int
}

func (DeviceNotificationRequest) Type() MessageType { return OpDeviceNotificationRequest }
func (c DeviceNotificationRequest) Values() []int64 { return []int64{int64(c.IntervalMs)} }

type BeginFirmwareUpdateRequest struct {
	Size uint32
	CRC  uint32
}

func (BeginFirmwareUpdateRequest) Type() MessageType { return OpBeginFirmwareUpdateRequest }
func (c BeginFirmwareUpdateRequest) Values() []int64 {
	return []int64{int64(c.Size), int64(c.CRC)}
}

type LightColor struct {
	Color Color
}

func (LightColor) Type() MessageType { return OpLightColorCommand }
func (c LightColor) Values() []int64 { return []int64{int64(c.Color)} }

type Beep struct {
	Frequency  int
	DurationMs int
}

func (Beep) Type() MessageType { return OpBeepCommand }
func (c Beep) Values() []int64 { return []int64{int64(c.Frequency), int64(c.DurationMs)} }

type StopSound struct{}

func (StopSound) Type() MessageType { return OpStopSoundCommand }
func (StopSound) Values() []int64   { return nil }

type MotorResetRelativePosition struct {
	Motors   MotorBits
	Position int
}

func (MotorResetRelativePosition) Type() MessageType { return OpMotorResetRelativePositionCommand }
func (c MotorResetRelativePosition) Values() []int64 {
	return []int64{int64(c.Motors), int64(c.Position)}
}

type MotorRun struct {
	Motors    MotorBits
	Direction MotorMoveDirection
}

func (MotorRun) Type() MessageType { return OpMotorRunCommand }
func (c MotorRun) Values() []int64 { return []int64{int64(c.Motors), int64(c.Direction)} }

type MotorRunForDegrees struct {
	Motors    MotorBits
	Degrees   int
	Direction MotorMoveDirection
}

func (MotorRunForDegrees) Type() MessageType { return OpMotorRunForDegreesCommand }
func (c MotorRunForDegrees) Values() []int64 {
	return []int64{int64(c.Motors), int64(c.Degrees), int64(c.Direction)}
}

type MotorRunForTime struct {
	Motors    MotorBits
	TimeMs    int
	Direction MotorMoveDirection
}

func (MotorRunForTime) Type() MessageType { return OpMotorRunForTimeCommand }
func (c MotorRunForTime) Values() []int64 {
	return []int64{int64(c.Motors), int64(c.TimeMs), int64(c.Direction)}
}

type MotorRunToAbsolutePosition struct {
	Motors    MotorBits
	Position  int
	Direction MotorMoveDirection
}

func (MotorRunToAbsolutePosition) Type() MessageType { return OpMotorRunToAbsolutePositionCommand }
func (c MotorRunToAbsolutePosition) Values() []int64 {
	return []int64{int64(c.Motors), int64(c.Position), int64(c.Direction)}
}

type MotorRunToRelativePosition struct {
	Motors MotorBits
	Offset int
}

func (MotorRunToRelativePosition) Type() MessageType { return OpMotorRunToRelativePositionCommand }
func (c MotorRunToRelativePosition) Values() []int64 {
	return []int64{int64(c.Motors), int64(c.Offset)}
}

type MotorSetDutyCycle struct {
	Motors    MotorBits
	DutyCycle int
}

func (MotorSetDutyCycle) Type() MessageType { return OpMotorSetDutyCycleCommand }
func (c MotorSetDutyCycle) Values() []int64 {
	return []int64{int64(c.Motors), int64(c.DutyCycle)}
}

type MotorStop struct {
	Motors MotorBits
}

func (MotorStop) Type() MessageType { return OpMotorStopCommand }
func (c MotorStop) Values() []int64 { return []int64{int64(c.Motors)} }

type MotorSetSpeed struct {
	Motors MotorBits
	Speed  int
}

func (MotorSetSpeed) Type() MessageType { return OpMotorSetSpeedCommand }
func (c MotorSetSpeed) Values() []int64 { return []int64{int64(c.Motors), int64(c.Speed)} }

type MotorSetEndState struct {
	Motors   MotorBits
	EndState MotorEndState
}

func (MotorSetEndState) Type() MessageType { return OpMotorSetEndStateCommand }
func (c MotorSetEndState) Values() []int64 {
	return []int64{int64(c.Motors), int64(c.EndState)}
}

type MotorSetAcceleration struct {
	Motors       MotorBits
	Acceleration int
	Deceleration int
}

func (MotorSetAcceleration) Type() MessageType { return OpMotorSetAccelerationCommand }
func (c MotorSetAcceleration) Values() []int64 {
	return []int64{int64(c.Motors), int64(c.Acceleration), int64(c.Deceleration)}
}

type MovementMove struct {
	Direction MovementDirection
}

func (MovementMove) Type() MessageType { return OpMovementMoveCommand }
func (c MovementMove) Values() []int64 { return []int64{int64(c.Direction)} }

type MovementMoveForTime struct {
	TimeMs    int
	Direction MovementDirection
}

func (MovementMoveForTime) Type() MessageType { return OpMovementMoveForTimeCommand }
func (c MovementMoveForTime) Values() []int64 {
	return []int64{int64(c.TimeMs), int64(c.Direction)}
}

type MovementMoveForDegrees struct {
	Degrees   int
	Direction MovementDirection
}

func (MovementMoveForDegrees) Type() MessageType { return OpMovementMoveForDegreesCommand }
func (c MovementMoveForDegrees) Values() []int64 {
	return []int64{int64(c.Degrees), int64(c.Direction)}
}

type MovementMoveTank struct {
	LeftSpeed  int
	RightSpeed int
}

func (MovementMoveTank) Type() MessageType { return OpMovementMoveTankCommand }
func (c MovementMoveTank) Values() []int64 {
	return []int64{int64(c.LeftSpeed), int64(c.RightSpeed)}
}

type MovementMoveTankForTime struct {
	TimeMs     int
	LeftSpeed  int
	RightSpeed int
}

func (MovementMoveTankForTime) Type() MessageType { return OpMovementMoveTankForTimeCommand }
func (c MovementMoveTankForTime) Values() []int64 {
	return []int64{int64(c.TimeMs), int64(c.LeftSpeed), int64(c.RightSpeed)}
}

type MovementMoveTankForDegrees struct {
	Degrees    int
	LeftSpeed  int
	RightSpeed int
}

func (MovementMoveTankForDegrees) Type() MessageType { return OpMovementMoveTankForDegreesCommand }
func (c MovementMoveTankForDegrees) Values() []int64 {
	return []int64{int64(c.Degrees), int64(c.LeftSpeed), int64(c.RightSpeed)}
}

type MovementStop struct{}

func (MovementStop) Type() MessageType { return OpMovementStopCommand }
func (MovementStop) Values() []int64   { return nil }

type MovementSetSpeed struct {
	Speed int
}

func (MovementSetSpeed) Type() MessageType { return OpMovementSetSpeedCommand }
func (c MovementSetSpeed) Values() []int64 { return []int64{int64(c.Speed)} }

type MovementSetEndState struct {
	EndState MotorEndState
}

func (MovementSetEndState) Type() MessageType { return OpMovementSetEndStateCommand }
func (c MovementSetEndState) Values() []int64 { return []int64{int64(c.EndState)} }

type MovementSetAcceleration struct {
	Acceleration int
	Deceleration int
}

func (MovementSetAcceleration) Type() MessageType { return OpMovementSetAccelerationCommand }
func (c MovementSetAcceleration) Values() []int64 {
	return []int64{int64(c.Acceleration), int64(c.Deceleration)}
}

type MovementSetTurnSteering struct {
	Steering int
}

func (MovementSetTurnSteering) Type() MessageType { return OpMovementSetTurnSteeringCommand }
func (c MovementSetTurnSteering) Values() []int64 { return []int64{int64(c.Steering)} }

type ImuSetYawFace struct {
	Face int
}

func (ImuSetYawFace) Type() MessageType { return OpImuSetYawFaceCommand }
func (c ImuSetYawFace) Values() []int64 { return []int64{int64(c.Face)} }

type ImuResetYawAxis struct {
	Angle int
}

func (ImuResetYawAxis) Type() MessageType { return OpImuResetYawAxisCommand }
func (c ImuResetYawAxis) Values() []int64 { return []int64{int64(c.Angle)} }
