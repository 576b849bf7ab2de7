package connection

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned by requests issued before Open completed or after
// the connection closed.
var ErrNotReady = errors.New("connection not ready")

// Phase names the transport step that failed.
type Phase string

const (
	PhaseConnect    Phase = "connect"
	PhaseDiscover   Phase = "discover"
	PhaseSubscribe  Phase = "subscribe"
	PhaseWrite      Phase = "write"
	PhaseDisconnect Phase = "disconnect"
)

// PhaseError wraps a transport error with the phase it happened in.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
