// Package goble implements device.Adapter over github.com/go-ble/ble.
package goble

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/coral/internal/device"
)

// DeviceFactory creates the host ble.Device. Tests replace it.
//
//nolint:revive // exported for test overrides
var DeviceFactory = newHostDevice

// Adapter scans and dials through one host BLE device.
type Adapter struct {
	logger *logrus.Logger

	once sync.Once
	dev  ble.Device
	err  error
}

// NewAdapter returns an adapter. The host device is opened on first use.
func NewAdapter(logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{logger: logger}
}

func (a *Adapter) device() (ble.Device, error) {
	a.once.Do(func() {
		a.dev, a.err = DeviceFactory()
		if a.err != nil {
			a.err = device.NormalizeError(a.err)
			a.logger.WithError(a.err).Error("Failed to open BLE host device")
		}
	})
	return a.dev, a.err
}

// Scan forwards every advertisement until ctx ends.
func (a *Adapter) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	dev, err := a.device()
	if err != nil {
		return err
	}
	err = dev.Scan(ctx, allowDup, func(adv ble.Advertisement) {
		handler(newAdvertisement(adv))
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return device.NormalizeError(err)
	}
	return nil
}

// Transport returns a disconnected transport to address.
func (a *Adapter) Transport(address string) (device.Transport, error) {
	if strings.TrimSpace(address) == "" {
		return nil, errors.New("device address is empty")
	}
	dev, err := a.device()
	if err != nil {
		return nil, err
	}
	return &Transport{dev: dev, address: address, logger: a.logger}, nil
}

var _ device.Adapter = (*Adapter)(nil)
