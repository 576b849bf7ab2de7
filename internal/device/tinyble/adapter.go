// Package tinyble implements device.Adapter over tinygo.org/x/bluetooth.
//
// On macOS the address is a CoreBluetooth peripheral UUID rather than a MAC.
package tinyble

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
)

// Adapter wraps one bluetooth.Adapter. The adapter-level connect handler
// fans disconnects out to the transports it created.
type Adapter struct {
	adapter *bluetooth.Adapter
	logger  *logrus.Logger
	service bluetooth.UUID

	enableOnce sync.Once
	enableErr  error

	mu         sync.Mutex
	transports map[string]*Transport
}

// NewAdapter wraps the default host adapter.
func NewAdapter(logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	service, _ := bluetooth.ParseUUID(protocol.ServiceUUID)
	return &Adapter{
		adapter:    bluetooth.DefaultAdapter,
		logger:     logger,
		service:    service,
		transports: make(map[string]*Transport),
	}
}

func (a *Adapter) enable() error {
	a.enableOnce.Do(func() {
		if err := a.adapter.Enable(); err != nil {
			a.enableErr = device.NormalizeError(fmt.Errorf("enable adapter: %w", err))
			return
		}
		a.adapter.SetConnectHandler(func(d bluetooth.Device, connected bool) {
			if connected {
				return
			}
			a.mu.Lock()
			t, ok := a.transports[d.Address.String()]
			a.mu.Unlock()
			if ok {
				t.markLost()
			}
		})
	})
	return a.enableErr
}

// Scan reports advertisements until ctx ends. Without allowDup each address
// is reported once per scan.
func (a *Adapter) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	if err := a.enable(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if err := a.adapter.StopScan(); err != nil {
				a.logger.WithError(err).Debug("StopScan failed")
			}
		case <-done:
		}
	}()

	var mu sync.Mutex
	seen := make(map[string]bool)
	err := a.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		addr := result.Address.String()
		if !allowDup {
			mu.Lock()
			dup := seen[addr]
			seen[addr] = true
			mu.Unlock()
			if dup {
				return
			}
		}
		handler(a.advertisement(result))
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return device.NormalizeError(fmt.Errorf("scan: %w", err))
	}
	return nil
}

func (a *Adapter) advertisement(result bluetooth.ScanResult) device.Advertisement {
	adv := &advertisement{
		name: result.LocalName(),
		addr: result.Address.String(),
		rssi: int(result.RSSI),
	}
	if result.HasServiceUUID(a.service) {
		adv.services = []string{protocol.ServiceUUID}
	}
	if elems := result.ManufacturerData(); len(elems) > 0 {
		raw := make([]byte, 2, 2+len(elems[0].Data))
		binary.LittleEndian.PutUint16(raw, elems[0].CompanyID)
		adv.mfg = append(raw, elems[0].Data...)
	}
	return adv
}

// Transport returns a disconnected transport to address.
func (a *Adapter) Transport(address string) (device.Transport, error) {
	if err := a.enable(); err != nil {
		return nil, err
	}
	var addr bluetooth.Address
	addr.Set(address)

	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.transports[address]; ok {
		return t, nil
	}
	t := &Transport{adapter: a, address: address, addr: addr}
	a.transports[address] = t
	return t, nil
}

var _ device.Adapter = (*Adapter)(nil)

// advertisement is a snapshot of one scan result. The Coral service is the
// only one reported, since scan results only answer membership queries.
type advertisement struct {
	name     string
	addr     string
	rssi     int
	services []string
	mfg      []byte
}

func (a *advertisement) LocalName() string        { return a.name }
func (a *advertisement) ManufacturerData() []byte { return a.mfg }
func (a *advertisement) Services() []string       { return a.services }
func (a *advertisement) Connectable() bool        { return true }
func (a *advertisement) RSSI() int                { return a.rssi }
func (a *advertisement) Addr() string             { return a.addr }
