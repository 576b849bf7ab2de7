package protocol

import "fmt"

// MessageType is the one-byte opcode that opens every frame.
type MessageType uint8

// Opcode values are the wire contract with device firmware.
const (
	OpInfoRequest                       MessageType = 0
	OpInfoResponse                      MessageType = 1
	OpBeginFirmwareUpdateRequest        MessageType = 20
	OpBeginFirmwareUpdateResponse       MessageType = 21
	OpDeviceUUIDRequest                 MessageType = 26
	OpDeviceUUIDResponse                MessageType = 27
	OpDeviceNotificationRequest         MessageType = 40
	OpDeviceNotificationResponse        MessageType = 41
	OpDeviceNotification                MessageType = 60
	OpLightColorCommand                 MessageType = 104
	OpLightColorResult                  MessageType = 105
	OpBeepCommand                       MessageType = 106
	OpBeepResult                        MessageType = 107
	OpStopSoundCommand                  MessageType = 108
	OpStopSoundResult                   MessageType = 109
	OpMotorResetRelativePositionCommand MessageType = 120
	OpMotorResetRelativePositionResult  MessageType = 121
	OpMotorRunCommand                   MessageType = 122
	OpMotorRunResult                    MessageType = 123
	OpMotorRunForDegreesCommand         MessageType = 124
	OpMotorRunForDegreesResult          MessageType = 125
	OpMotorRunForTimeCommand            MessageType = 126
	OpMotorRunForTimeResult             MessageType = 127
	OpMotorRunToAbsolutePositionCommand MessageType = 128
	OpMotorRunToAbsolutePositionResult  MessageType = 129
	OpMotorRunToRelativePositionCommand MessageType = 130
	OpMotorRunToRelativePositionResult  MessageType = 131
	OpMotorSetDutyCycleCommand          MessageType = 132
	OpMotorSetDutyCycleResult           MessageType = 133
	OpMotorStopCommand                  MessageType = 138
	OpMotorStopResult                   MessageType = 139
	OpMotorSetSpeedCommand              MessageType = 140
	OpMotorSetSpeedResult               MessageType = 141
	OpMotorSetEndStateCommand           MessageType = 142
	OpMotorSetEndStateResult            MessageType = 143
	OpMotorSetAccelerationCommand       MessageType = 144
	OpMotorSetAccelerationResult        MessageType = 145
	OpMovementMoveCommand               MessageType = 150
	OpMovementMoveResult                MessageType = 151
	OpMovementMoveForTimeCommand        MessageType = 152
	OpMovementMoveForTimeResult         MessageType = 153
	OpMovementMoveForDegreesCommand     MessageType = 154
	OpMovementMoveForDegreesResult      MessageType = 155
	OpMovementMoveTankCommand           MessageType = 156
	OpMovementMoveTankResult            MessageType = 157
	OpMovementMoveTankForTimeCommand    MessageType = 158
	OpMovementMoveTankForTimeResult     MessageType = 159
	OpMovementMoveTankForDegreesCommand MessageType = 160
	OpMovementMoveTankForDegreesResult  MessageType = 161
	OpMovementStopCommand               MessageType = 162
	OpMovementStopResult                MessageType = 163
	OpMovementSetSpeedCommand           MessageType = 164
	OpMovementSetSpeedResult            MessageType = 165
	OpMovementSetEndStateCommand        MessageType = 166
	OpMovementSetEndStateResult         MessageType = 167
	OpMovementSetAccelerationCommand    MessageType = 168
	OpMovementSetAccelerationResult     MessageType = 169
	OpMovementSetTurnSteeringCommand    MessageType = 170
	OpMovementSetTurnSteeringResult     MessageType = 171
	OpImuSetYawFaceCommand              MessageType = 190
	OpImuSetYawFaceResult               MessageType = 191
	OpImuResetYawAxisCommand            MessageType = 192
	OpImuResetYawAxisResult             MessageType = 193
)

var messageTypeNames = map[MessageType]string{
	OpInfoRequest:                       "InfoRequest",
	OpInfoResponse:                      "InfoResponse",
	OpBeginFirmwareUpdateRequest:        "BeginFirmwareUpdateRequest",
	OpBeginFirmwareUpdateResponse:       "BeginFirmwareUpdateResponse",
	OpDeviceUUIDRequest:                 "DeviceUuidRequest",
	OpDeviceUUIDResponse:                "DeviceUuidResponse",
	OpDeviceNotificationRequest:         "DeviceNotificationRequest",
	OpDeviceNotificationResponse:        "DeviceNotificationResponse",
	OpDeviceNotification:                "DeviceNotification",
	OpLightColorCommand:                 "LightColorCommand",
	OpLightColorResult:                  "LightColorResult",
	OpBeepCommand:                       "BeepCommand",
	OpBeepResult:                        "BeepResult",
	OpStopSoundCommand:                  "StopSoundCommand",
	OpStopSoundResult:                   "StopSoundResult",
	OpMotorResetRelativePositionCommand: "MotorResetRelativePositionCommand",
	OpMotorResetRelativePositionResult:  "MotorResetRelativePositionResult",
	OpMotorRunCommand:                   "MotorRunCommand",
	OpMotorRunResult:                    "MotorRunResult",
	OpMotorRunForDegreesCommand:         "MotorRunForDegreesCommand",
	OpMotorRunForDegreesResult:          "MotorRunForDegreesResult",
	OpMotorRunForTimeCommand:            "MotorRunForTimeCommand",
	OpMotorRunForTimeResult:             "MotorRunForTimeResult",
	OpMotorRunToAbsolutePositionCommand: "MotorRunToAbsolutePositionCommand",
	OpMotorRunToAbsolutePositionResult:  "MotorRunToAbsolutePositionResult",
	OpMotorRunToRelativePositionCommand: "MotorRunToRelativePositionCommand",
	OpMotorRunToRelativePositionResult:  "MotorRunToRelativePositionResult",
	OpMotorSetDutyCycleCommand:          "MotorSetDutyCycleCommand",
	OpMotorSetDutyCycleResult:           "MotorSetDutyCycleResult",
	OpMotorStopCommand:                  "MotorStopCommand",
	OpMotorStopResult:                   "MotorStopResult",
	OpMotorSetSpeedCommand:              "MotorSetSpeedCommand",
	OpMotorSetSpeedResult:               "MotorSetSpeedResult",
	OpMotorSetEndStateCommand:           "MotorSetEndStateCommand",
	OpMotorSetEndStateResult:            "MotorSetEndStateResult",
	OpMotorSetAccelerationCommand:       "MotorSetAccelerationCommand",
	OpMotorSetAccelerationResult:        "MotorSetAccelerationResult",
	OpMovementMoveCommand:               "MovementMoveCommand",
	OpMovementMoveResult:                "MovementMoveResult",
	OpMovementMoveForTimeCommand:        "MovementMoveForTimeCommand",
	OpMovementMoveForTimeResult:         "MovementMoveForTimeResult",
	OpMovementMoveForDegreesCommand:     "MovementMoveForDegreesCommand",
	OpMovementMoveForDegreesResult:      "MovementMoveForDegreesResult",
	OpMovementMoveTankCommand:           "MovementMoveTankCommand",
	OpMovementMoveTankResult:            "MovementMoveTankResult",
	OpMovementMoveTankForTimeCommand:    "MovementMoveTankForTimeCommand",
	OpMovementMoveTankForTimeResult:     "MovementMoveTankForTimeResult",
	OpMovementMoveTankForDegreesCommand: "MovementMoveTankForDegreesCommand",
	OpMovementMoveTankForDegreesResult:  "MovementMoveTankForDegreesResult",
	OpMovementStopCommand:               "MovementStopCommand",
	OpMovementStopResult:                "MovementStopResult",
	OpMovementSetSpeedCommand:           "MovementSetSpeedCommand",
	OpMovementSetSpeedResult:            "MovementSetSpeedResult",
	OpMovementSetEndStateCommand:        "MovementSetEndStateCommand",
	OpMovementSetEndStateResult:         "MovementSetEndStateResult",
	OpMovementSetAccelerationCommand:    "MovementSetAccelerationCommand",
	OpMovementSetAccelerationResult:     "MovementSetAccelerationResult",
	OpMovementSetTurnSteeringCommand:    "MovementSetTurnSteeringCommand",
	OpMovementSetTurnSteeringResult:     "MovementSetTurnSteeringResult",
	OpImuSetYawFaceCommand:              "ImuSetYawFaceCommand",
	OpImuSetYawFaceResult:               "ImuSetYawFaceResult",
	OpImuResetYawAxisCommand:            "ImuResetYawAxisCommand",
	OpImuResetYawAxisResult:             "ImuResetYawAxisResult",
}

var messageTypesByName = func() map[string]MessageType {
	m := make(map[string]MessageType, len(messageTypeNames))
	for t, name := range messageTypeNames {
		m[name] = t
	}
	return m
}()

// String returns the opcode name, or "MessageType(N)" for unknown values.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(%d)", uint8(t))
}

// Known reports whether t is part of the opcode table.
func (t MessageType) Known() bool {
	_, ok := messageTypeNames[t]
	return ok
}

// ParseMessageType resolves an opcode by its name.
func ParseMessageType(name string) (MessageType, bool) {
	t, ok := messageTypesByName[name]
	return t, ok
}

// replyToRequest maps every response/result opcode to the command that elicits it.
var replyToRequest = map[MessageType]MessageType{
	OpInfoResponse:                     OpInfoRequest,
	OpBeginFirmwareUpdateResponse:      OpBeginFirmwareUpdateRequest,
	OpDeviceUUIDResponse:               OpDeviceUUIDRequest,
	OpDeviceNotificationResponse:       OpDeviceNotificationRequest,
	OpLightColorResult:                 OpLightColorCommand,
	OpBeepResult:                       OpBeepCommand,
	OpStopSoundResult:                  OpStopSoundCommand,
	OpMotorResetRelativePositionResult: OpMotorResetRelativePositionCommand,
	OpMotorRunResult:                   OpMotorRunCommand,
	OpMotorRunForDegreesResult:         OpMotorRunForDegreesCommand,
	OpMotorRunForTimeResult:            OpMotorRunForTimeCommand,
	OpMotorRunToAbsolutePositionResult: OpMotorRunToAbsolutePositionCommand,
	OpMotorRunToRelativePositionResult: OpMotorRunToRelativePositionCommand,
	OpMotorSetDutyCycleResult:          OpMotorSetDutyCycleCommand,
	OpMotorStopResult:                  OpMotorStopCommand,
	OpMotorSetSpeedResult:              OpMotorSetSpeedCommand,
	OpMotorSetEndStateResult:           OpMotorSetEndStateCommand,
	OpMotorSetAccelerationResult:       OpMotorSetAccelerationCommand,
	OpMovementMoveResult:               OpMovementMoveCommand,
	OpMovementMoveForTimeResult:        OpMovementMoveForTimeCommand,
	OpMovementMoveForDegreesResult:     OpMovementMoveForDegreesCommand,
	OpMovementMoveTankResult:           OpMovementMoveTankCommand,
	OpMovementMoveTankForTimeResult:    OpMovementMoveTankForTimeCommand,
	OpMovementMoveTankForDegreesResult: OpMovementMoveTankForDegreesCommand,
	OpMovementStopResult:               OpMovementStopCommand,
	OpMovementSetSpeedResult:           OpMovementSetSpeedCommand,
	OpMovementSetEndStateResult:        OpMovementSetEndStateCommand,
	OpMovementSetAccelerationResult:    OpMovementSetAccelerationCommand,
	OpMovementSetTurnSteeringResult:    OpMovementSetTurnSteeringCommand,
	OpImuSetYawFaceResult:              OpImuSetYawFaceCommand,
	OpImuResetYawAxisResult:            OpImuResetYawAxisCommand,
}

// RequestFor returns the command opcode that a reply opcode answers.
// ok is false for opcodes that are not replies, e.g. OpDeviceNotification.
func RequestFor(reply MessageType) (MessageType, bool) {
	req, ok := replyToRequest[reply]
	return req, ok
}
