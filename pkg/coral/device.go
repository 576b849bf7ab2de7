// Package coral wraps a Coral connection in typed device handles.
//
// A device handle checks on connect that the peripheral really is the kind
// it was created for, starts the sensor stream and re-publishes sensor
// payloads as DeviceEvents, dropping records that repeat the previous value
// of their stream.
package coral

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/coral/internal/connection"
	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/internal/ringchan"
)

// EventKind names a device event: a sensor kind ("joystick", "motor", ...)
// or EventDisconnect.
type EventKind string

// EventDisconnect is published once per disconnect, whichever side initiated it.
const EventDisconnect EventKind = "disconnect"

// KindOf returns the event kind for a sensor payload.
func KindOf(p protocol.SensorPayload) EventKind {
	return EventKind(p.Kind().String())
}

// DeviceEvent is one de-duplicated sensor payload or a disconnect.
type DeviceEvent struct {
	Kind    EventKind              `json:"kind"`
	Payload protocol.SensorPayload `json:"payload,omitempty"`
	// Err is the cause of a transport-initiated disconnect.
	Err error `json:"-"`
}

// Info describes a device: what it advertised plus what it reported on connect.
type Info struct {
	Name       string              `json:"name"`
	Address    string              `json:"address"`
	Kind       protocol.DeviceKind `json:"-"`
	Firmware   protocol.Version    `json:"firmware"`
	Bootloader protocol.Version    `json:"bootloader"`
	Color      *protocol.Color     `json:"color,omitempty"`
	Tag        *uint16             `json:"tag,omitempty"`
}

// KindMismatchError is returned by Connect when the peripheral reports a
// product that does not match the handle's kind.
type KindMismatchError struct {
	Expected protocol.DeviceKind
	Reported protocol.DeviceKind
	Product  protocol.ProductGroupDevice
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("discovered device reported unexpected type '%s' (product %s, expected %s)",
		e.Reported, e.Product, e.Expected)
}

// Device is the behavior shared by every Coral peripheral.
type Device struct {
	conn   *connection.Connection
	kind   protocol.DeviceKind
	opts   Options
	logger *logrus.Entry

	filter *protocol.ChangeFilter
	events *ringchan.Ring[DeviceEvent]
	nextID atomic.Uint64

	// handlers run in registration order.
	handlersMu sync.Mutex
	handlers   *orderedmap.OrderedMap[uint64, func(DeviceEvent)]

	mu        sync.Mutex
	info      Info
	connected bool
	detach    func()
}

func newDevice(kind protocol.DeviceKind, transport device.Transport, info Info, opts *Options) *Device {
	o := opts.withDefaults()
	info.Kind = kind
	if info.Address == "" {
		info.Address = transport.Address()
	}
	return &Device{
		conn: connection.New(transport, o.connection(), o.Logger),
		kind: kind,
		opts: o,
		logger: o.Logger.WithFields(logrus.Fields{
			"address": info.Address,
			"kind":    kind.String(),
		}),
		filter:   protocol.NewChangeFilter(),
		events:   ringchan.New[DeviceEvent](o.EventBuffer),
		handlers: orderedmap.New[uint64, func(DeviceEvent)](),
		info:     info,
	}
}

// Kind returns the hardware family this handle drives.
func (d *Device) Kind() protocol.DeviceKind { return d.kind }

// Info returns a copy of the device description.
func (d *Device) Info() Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info
}

// Connected reports whether Connect completed and no disconnect followed.
func (d *Device) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// Connection exposes the underlying link for raw requests and the frame tap.
func (d *Device) Connection() *connection.Connection { return d.conn }

// Connect opens the link, verifies the product kind, records the reported
// versions and starts the sensor stream. Any failure leaves the device
// disconnected.
func (d *Device) Connect(ctx context.Context) error {
	if d.Connected() {
		return device.ErrAlreadyConnected
	}
	if err := d.conn.Open(ctx); err != nil {
		return err
	}

	info, err := d.conn.RequestInfo(ctx)
	if err != nil {
		return d.abort(fmt.Errorf("info request failed: %w", err))
	}
	if reported := protocol.KindOfProduct(info.ProductGroupDevice); reported != d.kind {
		return d.abort(&KindMismatchError{Expected: d.kind, Reported: reported, Product: info.ProductGroupDevice})
	}

	d.mu.Lock()
	d.info.Firmware = info.Firmware
	d.info.Bootloader = info.Bootloader
	d.detach = d.conn.Observe(connection.ObserverFunc(d.onEvent))
	d.mu.Unlock()

	if err := d.conn.EnableNotifications(ctx, d.opts.NotificationInterval); err != nil {
		return d.abort(fmt.Errorf("enable notifications failed: %w", err))
	}

	d.mu.Lock()
	d.connected = true
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"firmware":   info.Firmware.String(),
		"bootloader": info.Bootloader.String(),
	}).Info("Device connected")
	return nil
}

func (d *Device) abort(err error) error {
	d.detachObserver()
	if derr := d.conn.Disconnect(); derr != nil {
		d.logger.WithError(derr).Debug("Disconnect after failed connect")
	}
	d.filter.Reset()
	d.logger.WithError(err).Error("Device connect failed")
	return err
}

func (d *Device) detachObserver() {
	d.mu.Lock()
	detach := d.detach
	d.detach = nil
	d.mu.Unlock()
	if detach != nil {
		detach()
	}
}

// Disconnect closes the link and publishes EventDisconnect if the device was
// connected. Calling it again is a no-op.
func (d *Device) Disconnect() error {
	d.detachObserver()
	err := d.conn.Disconnect()
	d.markDisconnected(nil)
	return err
}

func (d *Device) markDisconnected(cause error) {
	d.mu.Lock()
	was := d.connected
	d.connected = false
	d.mu.Unlock()

	d.filter.Reset()
	if !was {
		return
	}
	if cause != nil {
		d.logger.WithError(cause).Warn("Device disconnected")
	} else {
		d.logger.Info("Device disconnected")
	}
	d.publish(DeviceEvent{Kind: EventDisconnect, Err: cause})
}

func (d *Device) onEvent(e connection.Event) {
	switch e.Kind {
	case connection.EventNotification:
		for _, p := range d.filter.Filter(e.Payloads) {
			d.publish(DeviceEvent{Kind: KindOf(p), Payload: p})
		}
	case connection.EventDisconnect:
		d.detachObserver()
		d.markDisconnected(e.Err)
	case connection.EventMessage:
		d.logger.WithField("type", e.Message.Type().String()).Debug("Unsolicited message")
	}
}

func (d *Device) publish(e DeviceEvent) {
	d.events.Send(e)

	d.handlersMu.Lock()
	fns := make([]func(DeviceEvent), 0, d.handlers.Len())
	for pair := d.handlers.Oldest(); pair != nil; pair = pair.Next() {
		fns = append(fns, pair.Value)
	}
	d.handlersMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Events returns the buffered device event stream. The channel stays open
// across reconnects.
func (d *Device) Events() <-chan DeviceEvent {
	return d.events.C()
}

// Observe registers fn for every device event. fn runs on the notification
// goroutine and must not block. The returned function removes it.
func (d *Device) Observe(fn func(DeviceEvent)) (cancel func()) {
	id := d.nextID.Add(1)
	d.handlersMu.Lock()
	d.handlers.Set(id, fn)
	d.handlersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.handlersMu.Lock()
			defer d.handlersMu.Unlock()
			d.handlers.Delete(id)
		})
	}
}

// On registers fn for events of one kind only.
func (d *Device) On(kind EventKind, fn func(DeviceEvent)) (cancel func()) {
	return d.Observe(func(e DeviceEvent) {
		if e.Kind == kind {
			fn(e)
		}
	})
}

// Close disconnects and closes the Events channel. The device cannot be
// reused afterwards.
func (d *Device) Close() error {
	err := d.Disconnect()
	d.events.Close()
	return err
}

func (d *Device) send(ctx context.Context, cmd protocol.Command) error {
	_, err := d.conn.Request(ctx, cmd, 0)
	return err
}

// SetLightColor sets the status light.
func (d *Device) SetLightColor(ctx context.Context, color protocol.Color) error {
	return d.send(ctx, protocol.LightColor{Color: color})
}

// Beep plays a tone.
func (d *Device) Beep(ctx context.Context, frequency, durationMs int) error {
	return d.send(ctx, protocol.Beep{Frequency: frequency, DurationMs: durationMs})
}

// StopSound silences the buzzer.
func (d *Device) StopSound(ctx context.Context) error {
	return d.send(ctx, protocol.StopSound{})
}

// SetYawFace selects which face of the device the yaw axis is measured around.
func (d *Device) SetYawFace(ctx context.Context, face int) error {
	return d.send(ctx, protocol.ImuSetYawFace{Face: face})
}

// ResetYawAxis sets the current yaw reading to angle.
func (d *Device) ResetYawAxis(ctx context.Context, angle int) error {
	return d.send(ctx, protocol.ImuResetYawAxis{Angle: angle})
}

// DeviceUUID reads the peripheral's unique identifier.
func (d *Device) DeviceUUID(ctx context.Context) (protocol.DeviceUUIDResponse, error) {
	msg, err := d.conn.Request(ctx, protocol.DeviceUUIDRequest{}, 0)
	if err != nil {
		return protocol.DeviceUUIDResponse{}, err
	}
	resp, ok := msg.(protocol.DeviceUUIDResponse)
	if !ok {
		return protocol.DeviceUUIDResponse{}, fmt.Errorf("unexpected reply %s to device uuid request", msg.Type())
	}
	return resp, nil
}

// BeginFirmwareUpdate announces an image of size bytes with checksum crc.
// A Nack is returned as a *protocol.StatusError.
func (d *Device) BeginFirmwareUpdate(ctx context.Context, size, crc uint32) error {
	return d.send(ctx, protocol.BeginFirmwareUpdateRequest{Size: size, CRC: crc})
}
