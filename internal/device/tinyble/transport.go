package tinyble

import (
	"context"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/srg/coral/internal/device"
)

// Transport is a link to one peripheral.
type Transport struct {
	adapter *Adapter
	address string
	addr    bluetooth.Address

	mu       sync.Mutex
	dev      *bluetooth.Device
	lost     chan struct{}
	lostOnce *sync.Once
}

func (t *Transport) Address() string { return t.address }

// Connect blocks until the stack connects or ctx ends. A connected transport
// returns nil at once. The stack applies its own connect timeout and cannot be
// interrupted, so a cancelled attempt may still finish in the background; that
// link is dropped.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.dev != nil {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	type result struct {
		dev bluetooth.Device
		err error
	}
	ch := make(chan result, 1)
	go func() {
		d, err := t.adapter.adapter.Connect(t.addr, bluetooth.ConnectionParams{})
		ch <- result{d, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.err == nil {
				_ = r.dev.Disconnect()
			}
		}()
		return fmt.Errorf("connect to %s: %w", t.address, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("connect to %s: %w", t.address, device.NormalizeError(r.err))
		}
		t.mu.Lock()
		t.dev = &r.dev
		t.lost = make(chan struct{})
		t.lostOnce = &sync.Once{}
		t.mu.Unlock()
		return nil
	}
}

func (t *Transport) markLost() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dev == nil {
		return
	}
	t.dev = nil
	t.lostOnce.Do(func() { close(t.lost) })
}

// DiscoverCharacteristics returns the requested characteristics of service,
// in argument order.
func (t *Transport) DiscoverCharacteristics(ctx context.Context, service string, uuids ...string) ([]device.Characteristic, error) {
	t.mu.Lock()
	dev := t.dev
	t.mu.Unlock()
	if dev == nil {
		return nil, device.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	svcUUID, err := bluetooth.ParseUUID(service)
	if err != nil {
		return nil, fmt.Errorf("parse service uuid: %w", err)
	}
	wanted := make([]bluetooth.UUID, len(uuids))
	for i, u := range uuids {
		if wanted[i], err = bluetooth.ParseUUID(u); err != nil {
			return nil, fmt.Errorf("parse characteristic uuid: %w", err)
		}
	}

	svcs, err := dev.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", device.NormalizeError(err))
	}
	if len(svcs) == 0 {
		return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{service}}
	}
	chars, err := svcs[0].DiscoverCharacteristics(wanted)
	if err != nil {
		return nil, fmt.Errorf("discover characteristics: %w", device.NormalizeError(err))
	}

	out := make([]device.Characteristic, 0, len(uuids))
	for i, want := range wanted {
		var found *bluetooth.DeviceCharacteristic
		for j := range chars {
			if chars[j].UUID() == want {
				found = &chars[j]
				break
			}
		}
		if found == nil {
			return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{service, uuids[i]}}
		}
		out = append(out, &characteristic{uuid: uuids[i], char: found})
	}
	return out, nil
}

func (t *Transport) Disconnect() error {
	t.mu.Lock()
	dev := t.dev
	t.dev = nil
	if t.lostOnce != nil {
		t.lostOnce.Do(func() { close(t.lost) })
	}
	t.mu.Unlock()

	if dev == nil {
		return nil
	}
	return device.NormalizeError(dev.Disconnect())
}

func (t *Transport) Disconnected() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lost
}

var _ device.Transport = (*Transport)(nil)

// gattCharacteristic is the part of *bluetooth.DeviceCharacteristic the
// transport uses.
type gattCharacteristic interface {
	WriteWithoutResponse(p []byte) (int, error)
	EnableNotifications(callback func(buf []byte)) error
}

type characteristic struct {
	uuid string
	char gattCharacteristic
	mu   sync.Mutex
}

func (c *characteristic) UUID() string { return c.uuid }

// Write always uses write-without-response: the stack offers no
// acknowledged write on every platform, and Coral commands are answered on
// the notify characteristic anyway.
func (c *characteristic) Write(data []byte, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.char.WriteWithoutResponse(data)
	return device.NormalizeError(err)
}

func (c *characteristic) Subscribe(handler func([]byte)) error {
	return device.NormalizeError(c.char.EnableNotifications(func(buf []byte) {
		handler(append([]byte(nil), buf...))
	}))
}

// Unsubscribe disables notifications by clearing the callback.
func (c *characteristic) Unsubscribe() error {
	return device.NormalizeError(c.char.EnableNotifications(nil))
}
