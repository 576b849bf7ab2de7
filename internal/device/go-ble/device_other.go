//go:build !darwin && !linux

package goble

import (
	"fmt"
	"runtime"

	"github.com/go-ble/ble"
)

func newHostDevice() (ble.Device, error) {
	return nil, fmt.Errorf("go-ble backend is not available on %s", runtime.GOOS)
}
