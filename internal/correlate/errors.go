package correlate

import (
	"errors"
	"fmt"
	"time"

	"github.com/srg/coral/internal/protocol"
)

var (
	// ErrConnectionClosed rejects every request still pending when the engine closes.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.New("request timed out")
)

// TimeoutError is returned when no reply arrived before the deadline.
type TimeoutError struct {
	Key     protocol.Key
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request '%s' timed out after %s", e.Key, e.Timeout)
}

// Is makes errors.Is(err, ErrTimeout) succeed.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
