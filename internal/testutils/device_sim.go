package testutils

import (
	"encoding/binary"
	"sync"

	"github.com/srg/coral/internal/protocol"
)

// DeviceSim answers Coral commands the way a healthy peripheral does:
// every command gets its result with a success status.
//
//	sim := testutils.NewDeviceSim(protocol.ProductCoralDualMotor).
//	    FailWith(protocol.OpMotorRunCommand, uint8(protocol.StatusNack))
//	transport := testutils.NewMockTransport(addr).WithResponder(sim.Respond)
type DeviceSim struct {
	mu       sync.Mutex
	product  protocol.ProductGroupDevice
	uuid     [16]byte
	statuses map[protocol.MessageType]uint8
	ignored  map[protocol.MessageType]bool
}

// NewDeviceSim returns a simulator reporting product in its InfoResponse.
func NewDeviceSim(product protocol.ProductGroupDevice) *DeviceSim {
	return &DeviceSim{
		product:  product,
		uuid:     [16]byte{0xC0, 0x4A, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14},
		statuses: make(map[protocol.MessageType]uint8),
		ignored:  make(map[protocol.MessageType]bool),
	}
}

// FailWith makes replies to cmd carry status.
func (d *DeviceSim) FailWith(cmd protocol.MessageType, status uint8) *DeviceSim {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses[cmd] = status
	return d
}

// Ignore drops cmd without a reply.
func (d *DeviceSim) Ignore(cmd protocol.MessageType) *DeviceSim {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ignored[cmd] = true
	return d
}

// Respond implements Responder.
func (d *DeviceSim) Respond(frame []byte) [][]byte {
	if len(frame) == 0 {
		return nil
	}
	op := protocol.MessageType(frame[0])

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ignored[op] {
		return nil
	}
	reply := op + 1
	if req, ok := protocol.RequestFor(reply); !ok || req != op {
		return nil
	}
	status := d.statuses[op]

	switch op {
	case protocol.OpInfoRequest:
		return [][]byte{InfoFrame(d.product)}
	case protocol.OpDeviceUUIDRequest:
		return [][]byte{append([]byte{byte(reply)}, d.uuid[:]...)}
	}

	schema, _ := protocol.Schema(op)
	if len(schema) > 0 && schema[0].Name == "motors" && len(frame) > 1 {
		return [][]byte{{byte(reply), frame[1], status}}
	}
	return [][]byte{{byte(reply), status}}
}

// InfoFrame encodes an InfoResponse for product with fixed version numbers
// (rpc 1.0.0, firmware 1.4.85, bootloader 1.0.3, max packet 20).
func InfoFrame(product protocol.ProductGroupDevice) []byte {
	b := []byte{
		byte(protocol.OpInfoResponse),
		1, 0, 0, 0,
		1, 4, 85, 0,
		1, 0, 3, 0,
		20, 0,
		0, 0,
	}
	binary.LittleEndian.PutUint16(b[len(b)-2:], uint16(product))
	return b
}

// NotificationFrame wraps sensor records into a DeviceNotification frame.
func NotificationFrame(records ...[]byte) []byte {
	b := []byte{byte(protocol.OpDeviceNotification), 0, 0}
	for _, r := range records {
		b = append(b, r...)
	}
	return b
}

// JoystickRecord encodes a standalone joystick sensor record.
func JoystickRecord(left, right int8, leftAngle, rightAngle int16) []byte {
	b := []byte{byte(protocol.SensorJoystick), byte(left), byte(right), 0, 0, 0, 0}
	binary.LittleEndian.PutUint16(b[3:], uint16(leftAngle))
	binary.LittleEndian.PutUint16(b[5:], uint16(rightAngle))
	return b
}

// ButtonRecord encodes a button sensor record.
func ButtonRecord(pressed bool) []byte {
	if pressed {
		return []byte{byte(protocol.SensorButton), 1}
	}
	return []byte{byte(protocol.SensorButton), 0}
}

// MotorRecord encodes a motor sensor record.
func MotorRecord(motors protocol.MotorBits, state protocol.MotorState, speed int8, position int32) []byte {
	b := []byte{byte(protocol.SensorMotor), byte(motors), byte(state), 0, 0, 0, 0, byte(speed), 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(b[8:], uint32(position))
	return b
}
