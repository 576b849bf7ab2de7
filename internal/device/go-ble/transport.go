package goble

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/groutine"
)

// Transport is a GATT client link to one peripheral.
type Transport struct {
	dev     ble.Device
	address string
	logger  *logrus.Logger

	mu       sync.Mutex
	client   ble.Client
	lost     chan struct{}
	lostOnce *sync.Once
}

func (t *Transport) Address() string { return t.address }

// Connect dials the peripheral; on a connected transport it does nothing.
// The link is watched for a remote disconnect when the platform client
// reports one.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.client != nil {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	t.logger.WithField("address", t.address).Debug("Dialing BLE device...")
	client, err := t.dev.Dial(ctx, ble.NewAddr(t.address))
	if err != nil {
		return fmt.Errorf("failed to connect to device with address %q: %w", t.address, device.NormalizeError(err))
	}

	lost := make(chan struct{})
	once := &sync.Once{}
	t.mu.Lock()
	t.client, t.lost, t.lostOnce = client, lost, once
	t.mu.Unlock()

	if watcher, ok := client.(interface{ Disconnected() <-chan struct{} }); ok {
		groutine.Go(context.Background(), "ble-link-monitor", func(context.Context) {
			select {
			case <-watcher.Disconnected():
				t.logger.WithField("address", t.address).Warn("BLE stack reported disconnection")
				t.markLost(client)
			case <-lost:
			}
		})
	} else {
		t.logger.Debug("Client does not report disconnections")
	}
	return nil
}

func (t *Transport) markLost(client ble.Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != client {
		return
	}
	t.client = nil
	t.lostOnce.Do(func() { close(t.lost) })
}

func (t *Transport) connectedClient() (ble.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil, device.ErrNotConnected
	}
	return t.client, nil
}

// DiscoverCharacteristics discovers the profile and returns the requested
// characteristics of service, in argument order.
func (t *Transport) DiscoverCharacteristics(ctx context.Context, service string, uuids ...string) ([]device.Characteristic, error) {
	client, err := t.connectedClient()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		return nil, fmt.Errorf("failed to discover profile: %w", device.NormalizeError(err))
	}

	var svc *ble.Service
	for _, s := range profile.Services {
		if device.SameUUID(s.UUID.String(), service) {
			svc = s
			break
		}
	}
	if svc == nil {
		return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{service}}
	}

	out := make([]device.Characteristic, 0, len(uuids))
	for _, want := range uuids {
		var found *ble.Characteristic
		for _, c := range svc.Characteristics {
			if device.SameUUID(c.UUID.String(), want) {
				found = c
				break
			}
		}
		if found == nil {
			return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{service, want}}
		}
		out = append(out, &characteristic{uuid: want, client: client, char: found})
	}
	return out, nil
}

// Disconnect cancels the link. Calling it while disconnected is a no-op.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	client := t.client
	t.client = nil
	if t.lostOnce != nil {
		t.lostOnce.Do(func() { close(t.lost) })
	}
	t.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.CancelConnection(); err != nil {
		return device.NormalizeError(err)
	}
	return nil
}

// Disconnected is closed when the current link ends.
func (t *Transport) Disconnected() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lost
}

type characteristic struct {
	uuid   string
	client ble.Client
	char   *ble.Characteristic

	writeMu sync.Mutex
}

func (c *characteristic) UUID() string { return c.uuid }

func (c *characteristic) Write(data []byte, withoutResponse bool) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return device.NormalizeError(c.client.WriteCharacteristic(c.char, data, withoutResponse))
}

func (c *characteristic) Subscribe(handler func([]byte)) error {
	return device.NormalizeError(c.client.Subscribe(c.char, false, func(data []byte) {
		handler(append([]byte(nil), data...))
	}))
}

func (c *characteristic) Unsubscribe() error {
	return device.NormalizeError(c.client.Unsubscribe(c.char, false))
}

var _ device.Transport = (*Transport)(nil)
