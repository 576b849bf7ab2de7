package protocol_test

import (
	"testing"

	"github.com/srg/coral/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSensorStream(t *testing.T) {
	tests := []struct {
		name     string
		body     []byte
		expected []protocol.SensorPayload
	}{
		{
			name:     "empty body",
			body:     nil,
			expected: nil,
		},
		{
			name: "battery then embedded joystick",
			body: []byte{0, 85, 1, 0xF6, 20, 0x2C, 0x01, 0xD4, 0xFE},
			expected: []protocol.SensorPayload{
				protocol.BatteryPayload{Level: 85, USBPowerState: 1},
				protocol.JoystickPayload{LeftPercent: -10, RightPercent: 20, LeftAngle: 300, RightAngle: -300},
			},
		},
		{
			name: "battery followed by a known record is not a joystick",
			body: []byte{0, 85, 0, 4, 1, 4, 0, 4, 1},
			expected: []protocol.SensorPayload{
				protocol.BatteryPayload{Level: 85},
				protocol.ButtonPayload{Pressed: true},
				protocol.ButtonPayload{Pressed: false},
				protocol.ButtonPayload{Pressed: true},
			},
		},
		{
			name: "battery with fewer than six trailing bytes ends cleanly",
			body: []byte{0, 50, 0},
			expected: []protocol.SensorPayload{
				protocol.BatteryPayload{Level: 50},
			},
		},
		{
			name: "motor record",
			body: []byte{10, 1, 1, 0x68, 0x01, 0xCE, 0xFF, 0xE2, 0x10, 0x27, 0, 0},
			expected: []protocol.SensorPayload{
				protocol.MotorPayload{
					Motors:           protocol.MotorLeft,
					State:            protocol.MotorRunning,
					AbsolutePosition: 360,
					Power:            -50,
					Speed:            -30,
					Position:         10000,
				},
			},
		},
		{
			name: "color record",
			body: []byte{12, 9, 40, 1, 0, 2, 0, 3, 0, 0x5A, 0, 200, 100},
			expected: []protocol.SensorPayload{
				protocol.ColorPayload{
					Color: protocol.ColorRed, Reflection: 40,
					RawRed: 1, RawGreen: 2, RawBlue: 3,
					Hue: 90, Saturation: 200, Value: 100,
				},
			},
		},
		{
			name: "motion record",
			body: []byte{1, 2, 3, 1, 0, 2, 0, 3, 0, 0xFF, 0xFF, 0, 0, 0xE8, 0x03, 4, 0, 5, 0, 6, 0},
			expected: []protocol.SensorPayload{
				protocol.MotionPayload{
					Orientation: 2, YawFace: 3,
					Yaw: 1, Pitch: 2, Roll: 3,
					AccelerometerX: -1, AccelerometerY: 0, AccelerometerZ: 1000,
					GyroscopeX: 4, GyroscopeY: 5, GyroscopeZ: 6,
				},
			},
		},
		{
			name: "tag and gestures",
			body: []byte{3, 0xFF, 0x34, 0x12, 16, 0xFE, 17, 2, 3},
			expected: []protocol.SensorPayload{
				protocol.TagPayload{Color: protocol.ColorNone, ID: 0x1234},
				protocol.MotionGesturePayload{Gesture: -2},
				protocol.MotorGesturePayload{Motors: protocol.MotorRight, Gesture: 3},
			},
		},
		{
			name: "standalone joystick",
			body: []byte{15, 100, 0x9C, 0, 0, 0xB4, 0},
			expected: []protocol.SensorPayload{
				protocol.JoystickPayload{LeftPercent: 100, RightPercent: -100, LeftAngle: 0, RightAngle: 180},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payloads, err := protocol.DecodeSensorStream(tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, payloads)
		})
	}
}

func TestDecodeSensorStreamStopsOnUnknownRecord(t *testing.T) {
	payloads, err := protocol.DecodeSensorStream([]byte{4, 1, 99, 4, 0})

	assert.Equal(t, []protocol.SensorPayload{protocol.ButtonPayload{Pressed: true}}, payloads,
		"records after an unknown discriminant MUST NOT be decoded")

	var streamErr *protocol.SensorDecodeError
	require.ErrorAs(t, err, &streamErr)
	assert.True(t, streamErr.UnknownRecord)
	assert.Equal(t, uint8(99), streamErr.Discriminant)
}

func TestDecodeSensorStreamStopsOnTruncatedRecord(t *testing.T) {
	payloads, err := protocol.DecodeSensorStream([]byte{4, 0, 10, 1, 0})

	assert.Equal(t, []protocol.SensorPayload{protocol.ButtonPayload{}}, payloads)
	assert.ErrorIs(t, err, protocol.ErrShortBuffer)

	var streamErr *protocol.SensorDecodeError
	require.ErrorAs(t, err, &streamErr)
	assert.False(t, streamErr.UnknownRecord)
	assert.Equal(t, 2, streamErr.Offset)
}

func TestChangeFilter(t *testing.T) {
	t.Run("identical consecutive payload is dropped", func(t *testing.T) {
		f := protocol.NewChangeFilter()
		j := protocol.JoystickPayload{LeftPercent: 5, RightPercent: 6, LeftAngle: 7, RightAngle: 8}

		assert.True(t, f.Changed(j))
		assert.False(t, f.Changed(j), "identical payload MUST be suppressed")
	})

	t.Run("any field change is forwarded", func(t *testing.T) {
		f := protocol.NewChangeFilter()
		j := protocol.JoystickPayload{LeftPercent: 5}
		f.Changed(j)

		j.RightAngle = 1
		assert.True(t, f.Changed(j))
	})

	t.Run("motor streams are tracked per mask", func(t *testing.T) {
		f := protocol.NewChangeFilter()
		left := protocol.MotorPayload{Motors: protocol.MotorLeft, Speed: 10}
		right := protocol.MotorPayload{Motors: protocol.MotorRight, Speed: 10}

		assert.True(t, f.Changed(left))
		assert.True(t, f.Changed(right), "different mask MUST be a different stream")
		assert.False(t, f.Changed(left))
	})

	t.Run("filter preserves order", func(t *testing.T) {
		f := protocol.NewChangeFilter()
		batch := []protocol.SensorPayload{
			protocol.BatteryPayload{Level: 1},
			protocol.ButtonPayload{Pressed: true},
		}
		assert.Equal(t, batch, f.Filter(batch))
		assert.Empty(t, f.Filter(batch))
	})

	t.Run("reset forgets", func(t *testing.T) {
		f := protocol.NewChangeFilter()
		b := protocol.ButtonPayload{Pressed: true}
		f.Changed(b)
		f.Reset()
		assert.True(t, f.Changed(b))
	})
}
