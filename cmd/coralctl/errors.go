package main

import (
	"errors"
	"fmt"

	"github.com/srg/coral/internal/connection"
	"github.com/srg/coral/internal/correlate"
	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/pkg/coral"
)

// ErrConnectionLost is returned when the peripheral drops the link while a
// command is still streaming.
var ErrConnectionLost = errors.New("connection lost")

// FormatUserError turns library errors into a one-line message with a hint
// where one helps.
func FormatUserError(err error) string {
	var (
		mismatch *coral.KindMismatchError
		status   *protocol.StatusError
		phase    *connection.PhaseError
		notFound *device.NotFoundError
	)

	switch {
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth adapter unavailable; is Bluetooth turned on?"
	case errors.Is(err, coral.ErrNotFound):
		return fmt.Sprintf("%v; make sure the device is powered on and advertising", err)
	case errors.As(err, &mismatch):
		return fmt.Sprintf("%s is not a %s (it reported %s)", mismatch.Product, mismatch.Expected, mismatch.Reported)
	case errors.As(err, &status):
		return status.Error()
	case errors.Is(err, correlate.ErrTimeout):
		return "device did not respond in time"
	case errors.Is(err, ErrConnectionLost), errors.Is(err, correlate.ErrConnectionClosed):
		return "connection to the device was lost"
	case errors.As(err, &notFound):
		return fmt.Sprintf("%v; is this a Coral device?", notFound)
	case errors.As(err, &phase):
		return fmt.Sprintf("%s step failed: %v", phase.Phase, phase.Err)
	case errors.Is(err, connection.ErrNotReady):
		return "device is not connected"
	default:
		return err.Error()
	}
}
