package protocol

import (
	"encoding/hex"
	"fmt"
)

// Message is an inbound device-to-host frame.
type Message interface {
	Type() MessageType
	incoming()
}

// Version is a major.minor.build triple.
type Version struct {
	Major uint8  `json:"major"`
	Minor uint8  `json:"minor"`
	Build uint16 `json:"build"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

type InfoResponse struct {
	RPC                Version            `json:"rpc"`
	Firmware           Version            `json:"firmware"`
	Bootloader         Version            `json:"bootloader"`
	MaxPacketSize      uint16             `json:"maxPacketSize"`
	ProductGroupDevice ProductGroupDevice `json:"productGroupDevice"`
}

type DeviceUUIDResponse struct {
	UUID [16]byte `json:"-"`
}

// String renders the identifier as lowercase hex.
func (m DeviceUUIDResponse) String() string {
	return hex.EncodeToString(m.UUID[:])
}

type DeviceNotificationResponse struct {
	Status ResponseStatus `json:"status"`
}

type BeginFirmwareUpdateResponse struct {
	Status ResponseStatus `json:"status"`
}

// MotorResult is the reply to any per-motor command. Op tells which.
type MotorResult struct {
	Op     MessageType   `json:"-"`
	Motors MotorBits     `json:"motorBitMask"`
	Status CommandStatus `json:"status"`
}

// CommandResult is the reply to movement, light, sound and IMU commands.
type CommandResult struct {
	Op     MessageType   `json:"-"`
	Status CommandStatus `json:"status"`
}

// Notification is the unsolicited sensor burst.
type Notification struct {
	Payloads []SensorPayload `json:"deviceData"`

	// StreamErr is set when the sensor stream stopped early. Payloads still
	// holds every record decoded before that point.
	StreamErr error `json:"-"`
}

func (InfoResponse) Type() MessageType                { return OpInfoResponse }
func (DeviceUUIDResponse) Type() MessageType          { return OpDeviceUUIDResponse }
func (DeviceNotificationResponse) Type() MessageType  { return OpDeviceNotificationResponse }
func (BeginFirmwareUpdateResponse) Type() MessageType { return OpBeginFirmwareUpdateResponse }
func (m MotorResult) Type() MessageType               { return m.Op }
func (m CommandResult) Type() MessageType             { return m.Op }
func (Notification) Type() MessageType                { return OpDeviceNotification }

func (InfoResponse) incoming()                {}
func (DeviceUUIDResponse) incoming()          {}
func (DeviceNotificationResponse) incoming()  {}
func (BeginFirmwareUpdateResponse) incoming() {}
func (MotorResult) incoming()                 {}
func (CommandResult) incoming()               {}
func (Notification) incoming()                {}

// Target returns the motor mask the result concerns.
func (m MotorResult) Target() MotorBits { return m.Motors }

type decodeFunc func(t MessageType, r *Reader) (Message, error)

var decoders = map[MessageType]decodeFunc{
	OpInfoResponse:                     decodeInfo,
	OpDeviceUUIDResponse:               decodeDeviceUUID,
	OpDeviceNotificationResponse:       decodeNotificationResponse,
	OpBeginFirmwareUpdateResponse:      decodeFirmwareResponse,
	OpDeviceNotification:               decodeNotification,
	OpMotorResetRelativePositionResult: decodeMotorResult,
	OpMotorRunResult:                   decodeMotorResult,
	OpMotorRunForDegreesResult:         decodeMotorResult,
	OpMotorRunForTimeResult:            decodeMotorResult,
	OpMotorRunToAbsolutePositionResult: decodeMotorResult,
	OpMotorRunToRelativePositionResult: decodeMotorResult,
	OpMotorSetDutyCycleResult:          decodeMotorResult,
	OpMotorStopResult:                  decodeMotorResult,
	OpMotorSetSpeedResult:              decodeMotorResult,
	OpMotorSetEndStateResult:           decodeMotorResult,
	OpMotorSetAccelerationResult:       decodeMotorResult,
	OpLightColorResult:                 decodeCommandResult,
	OpBeepResult:                       decodeCommandResult,
	OpStopSoundResult:                  decodeCommandResult,
	OpMovementMoveResult:               decodeCommandResult,
	OpMovementMoveForTimeResult:        decodeCommandResult,
	OpMovementMoveForDegreesResult:     decodeCommandResult,
	OpMovementMoveTankResult:           decodeCommandResult,
	OpMovementMoveTankForTimeResult:    decodeCommandResult,
	OpMovementMoveTankForDegreesResult: decodeCommandResult,
	OpMovementStopResult:               decodeCommandResult,
	OpMovementSetSpeedResult:           decodeCommandResult,
	OpMovementSetEndStateResult:        decodeCommandResult,
	OpMovementSetAccelerationResult:    decodeCommandResult,
	OpMovementSetTurnSteeringResult:    decodeCommandResult,
	OpImuSetYawFaceResult:              decodeCommandResult,
	OpImuResetYawAxisResult:            decodeCommandResult,
}

// Decode parses one inbound frame.
//
// It returns (nil, nil) for an empty frame or an opcode outside the known
// table; newer firmware may send opcodes this driver does not know. A known
// opcode without an inbound layout yields a *SchemaError, and a frame that
// ends early yields an error wrapping ErrShortBuffer.
func Decode(b []byte) (Message, error) {
	if len(b) == 0 {
		return nil, nil
	}
	t := MessageType(b[0])
	if !t.Known() {
		return nil, nil
	}
	decode, ok := decoders[t]
	if !ok {
		return nil, &SchemaError{Type: t, Direction: Inbound}
	}
	msg, err := decode(t, NewReader(b[1:]))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return msg, nil
}

func readVersion(f *fieldReader) Version {
	return Version{Major: f.u8(), Minor: f.u8(), Build: f.u16()}
}

func decodeInfo(_ MessageType, r *Reader) (Message, error) {
	f := &fieldReader{r: r}
	m := InfoResponse{
		RPC:                readVersion(f),
		Firmware:           readVersion(f),
		Bootloader:         readVersion(f),
		MaxPacketSize:      f.u16(),
		ProductGroupDevice: ProductGroupDevice(f.u16()),
	}
	return m, f.err
}

func decodeDeviceUUID(_ MessageType, r *Reader) (Message, error) {
	b, err := r.Bytes(16)
	if err != nil {
		return nil, err
	}
	var m DeviceUUIDResponse
	copy(m.UUID[:], b)
	return m, nil
}

func decodeNotificationResponse(_ MessageType, r *Reader) (Message, error) {
	s, err := r.Uint8()
	return DeviceNotificationResponse{Status: ResponseStatus(s)}, err
}

func decodeFirmwareResponse(_ MessageType, r *Reader) (Message, error) {
	s, err := r.Uint8()
	return BeginFirmwareUpdateResponse{Status: ResponseStatus(s)}, err
}

func decodeMotorResult(t MessageType, r *Reader) (Message, error) {
	f := &fieldReader{r: r}
	m := MotorResult{Op: t, Motors: MotorBits(f.u8()), Status: CommandStatus(f.u8())}
	return m, f.err
}

func decodeCommandResult(t MessageType, r *Reader) (Message, error) {
	s, err := r.Uint8()
	return CommandResult{Op: t, Status: CommandStatus(s)}, err
}

func decodeNotification(_ MessageType, r *Reader) (Message, error) {
	// reserved, always consumed
	if _, err := r.Uint16(); err != nil {
		return nil, err
	}
	payloads, err := DecodeSensorStream(r.Rest())
	return Notification{Payloads: payloads, StreamErr: err}, nil
}
