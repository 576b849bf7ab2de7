package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrShortBuffer is returned when a frame ends before its layout does.
	ErrShortBuffer = errors.New("short buffer")

	// ErrMissingField is returned when a command supplies fewer values than its schema.
	ErrMissingField = errors.New("missing field")

	// ErrSchemaMissing matches every *SchemaError.
	ErrSchemaMissing = errors.New("schema missing")
)

// Direction tells whether a schema lookup was for the outbound or inbound path.
type Direction string

const (
	Outbound Direction = "encode"
	Inbound  Direction = "decode"
)

// SchemaError reports an opcode the codec has no layout for. It means the
// driver and the firmware disagree about the message set.
type SchemaError struct {
	Type      MessageType
	Direction Direction
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("no %s schema for %s", e.Direction, e.Type)
}

// Is makes errors.Is(err, ErrSchemaMissing) succeed.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaMissing
}

// StatusError reports a reply that decoded fine but whose status rejects the command.
type StatusError struct {
	Type   MessageType
	Status uint8
	Name   string // symbolic status name; empty when the value is outside the enum
}

func (e *StatusError) Error() string {
	status := e.Name
	if status == "" {
		status = fmt.Sprintf("%d", e.Status)
	}
	return fmt.Sprintf("command %s failed with status %s", e.Type, status)
}

// SensorDecodeError describes where the sensor stream stopped parsing.
// Records decoded before the failure are still returned to the caller.
type SensorDecodeError struct {
	Offset        int
	Discriminant  uint8
	UnknownRecord bool
	Err           error
}

func (e *SensorDecodeError) Error() string {
	if e.UnknownRecord {
		return fmt.Sprintf("unknown sensor record 0x%02x at offset %d", e.Discriminant, e.Offset)
	}
	return fmt.Sprintf("truncated %s record at offset %d: %v", SensorKind(e.Discriminant), e.Offset, e.Err)
}

func (e *SensorDecodeError) Unwrap() error {
	return e.Err
}
