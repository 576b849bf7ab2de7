// Package protocol implements the Coral BLE RPC wire format.
//
// Every message is a single characteristic value whose first byte is the
// opcode. Commands are encoded from a static field schema; incoming frames
// are decoded into typed Message values. DeviceNotification frames carry a
// packed stream of SensorPayload records, each prefixed by its own
// discriminant byte.
//
// All multi-byte fields are little-endian. Encoding truncates every field to
// its declared width (two's complement); range limits such as motor speed
// are the caller's concern.
package protocol
