// Package connection drives one Coral peripheral over a device.Transport.
//
// A Connection moves Closed → Opening → Ready → Closed. While Ready, every
// inbound frame is decoded and either resolves a pending request or is
// reported to observers. Reconnecting after a close reuses the same object
// but starts from an empty request table.
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srg/coral/internal/correlate"
	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/groutine"
	"github.com/srg/coral/internal/protocol"
)

// State of a Connection.
type State uint8

const (
	StateClosed State = iota
	StateOpening
	StateReady
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Options configures a Connection.
type Options struct {
	// RequestTimeout applies to requests issued with a zero timeout.
	RequestTimeout time.Duration
	// FrameTap is the number of raw frames to retain; zero disables the tap.
	FrameTap uint32
}

// DefaultOptions returns the interactive defaults.
func DefaultOptions() *Options {
	return &Options{RequestTimeout: protocol.DefaultRequestTimeout}
}

// Connection is the request/response link to one peripheral.
type Connection struct {
	transport device.Transport
	opts      Options
	logger    *logrus.Logger
	tap       *FrameTap
	observers observers

	mu     sync.Mutex
	state  State
	engine *correlate.Engine
	write  device.Characteristic
	notify device.Characteristic
	done   chan struct{}
}

// New creates a closed connection over transport.
func New(transport device.Transport, opts *Options, logger *logrus.Logger) *Connection {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = logrus.New()
	}
	o := *opts
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = protocol.DefaultRequestTimeout
	}
	return &Connection{
		transport: transport,
		opts:      o,
		logger:    logger,
		tap:       NewFrameTap(o.FrameTap),
	}
}

// Address returns the peripheral address.
func (c *Connection) Address() string {
	return c.transport.Address()
}

// State returns the current state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// FrameTap returns the raw frame tap, or nil if disabled.
func (c *Connection) FrameTap() *FrameTap {
	return c.tap
}

// Open connects, discovers the write and notify characteristics and
// subscribes to notifications. On any failure the transport is disconnected
// and the connection stays Closed.
func (c *Connection) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateClosed {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: connection is %s", device.ErrAlreadyConnected, state)
	}
	c.state = StateOpening
	c.engine = correlate.NewEngine(c.logger)
	c.done = make(chan struct{})
	engine, done := c.engine, c.done
	c.mu.Unlock()

	log := c.logger.WithField("address", c.transport.Address())
	log.Info("Connecting...")

	if err := c.transport.Connect(ctx); err != nil {
		return c.abortOpen(engine, PhaseConnect, err)
	}

	chars, err := c.transport.DiscoverCharacteristics(ctx, protocol.ServiceUUID, protocol.WriteCharUUID, protocol.NotifyCharUUID)
	if err != nil {
		return c.abortOpen(engine, PhaseDiscover, err)
	}
	var found [2]device.Characteristic
	for i, uuid := range []string{protocol.WriteCharUUID, protocol.NotifyCharUUID} {
		if found[i] = findCharacteristic(chars, uuid); found[i] == nil {
			return c.abortOpen(engine, PhaseDiscover, &device.NotFoundError{
				Resource: "characteristic",
				UUIDs:    []string{protocol.ServiceUUID, uuid},
			})
		}
	}
	write, notify := found[0], found[1]

	if err := notify.Subscribe(c.handleFrame); err != nil {
		return c.abortOpen(engine, PhaseSubscribe, err)
	}

	c.mu.Lock()
	if c.state != StateOpening || c.done != done {
		c.mu.Unlock()
		_ = notify.Unsubscribe()
		return correlate.ErrConnectionClosed
	}
	c.state = StateReady
	c.write, c.notify = write, notify
	c.mu.Unlock()

	lost := c.transport.Disconnected()
	groutine.Go(context.Background(), "coral-disconnect-monitor", func(context.Context) {
		select {
		case <-lost:
			c.teardown(done, device.ErrNotConnected)
		case <-done:
		}
	})

	log.Info("Connection ready")
	return nil
}

// findCharacteristic returns the characteristic of chars matching uuid, or nil.
func findCharacteristic(chars []device.Characteristic, uuid string) device.Characteristic {
	for _, ch := range chars {
		if ch != nil && device.SameUUID(ch.UUID(), uuid) {
			return ch
		}
	}
	return nil
}

func (c *Connection) abortOpen(engine *correlate.Engine, phase Phase, err error) error {
	perr := &PhaseError{Phase: phase, Err: err}
	c.logger.WithFields(logrus.Fields{
		"address": c.transport.Address(),
		"phase":   phase,
		"error":   err,
	}).Error("Failed to open connection")

	if derr := c.transport.Disconnect(); derr != nil {
		c.logger.WithError(derr).Debug("Disconnect after failed open")
	}
	engine.Close()

	c.mu.Lock()
	if c.state == StateOpening {
		c.state = StateClosed
		close(c.done)
	}
	c.mu.Unlock()
	return perr
}

// Issue encodes cmd, registers it for correlation and writes it. The returned
// Pending settles with the matching reply, a status error, a timeout or a
// connection close. A zero timeout uses Options.RequestTimeout.
func (c *Connection) Issue(cmd protocol.Command, timeout time.Duration) (*correlate.Pending, error) {
	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return nil, ErrNotReady
	}
	engine, write := c.engine, c.write
	c.mu.Unlock()

	frame, err := protocol.Encode(cmd)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = c.opts.RequestTimeout
	}

	p, err := engine.Issue(cmd, timeout)
	if err != nil {
		return nil, err
	}

	c.tap.record(Tx, frame)
	c.logger.WithFields(logrus.Fields{
		"type": cmd.Type().String(),
		"tx":   fmt.Sprintf("%X", frame),
	}).Debug("Sending frame")

	if err := write.Write(frame, true); err != nil {
		perr := &PhaseError{Phase: PhaseWrite, Err: device.NormalizeError(err)}
		engine.Reject(p, perr)
		return nil, perr
	}
	return p, nil
}

// Request issues cmd and waits for its reply. Cancelling ctx withdraws the
// request.
func (c *Connection) Request(ctx context.Context, cmd protocol.Command, timeout time.Duration) (protocol.Message, error) {
	p, err := c.Issue(cmd, timeout)
	if err != nil {
		return nil, err
	}
	return p.Wait(ctx)
}

// RequestInfo asks the peripheral for its identity and versions.
func (c *Connection) RequestInfo(ctx context.Context) (protocol.InfoResponse, error) {
	msg, err := c.Request(ctx, protocol.InfoRequest{}, 0)
	if err != nil {
		return protocol.InfoResponse{}, err
	}
	info, ok := msg.(protocol.InfoResponse)
	if !ok {
		return protocol.InfoResponse{}, fmt.Errorf("unexpected reply %s to info request", msg.Type())
	}
	return info, nil
}

// EnableNotifications starts periodic sensor notifications. A zero interval
// uses the protocol default.
func (c *Connection) EnableNotifications(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = protocol.DefaultNotificationInterval
	}
	_, err := c.Request(ctx, protocol.DeviceNotificationRequest{IntervalMs: int(interval.Milliseconds())}, 0)
	return err
}

// Disconnect closes the link and rejects every pending request with
// correlate.ErrConnectionClosed. Calling it on a closed connection is a no-op.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	return c.teardown(done, nil)
}

// teardown closes the session identified by done. cause is nil for a
// caller-initiated close.
func (c *Connection) teardown(done chan struct{}, cause error) error {
	c.mu.Lock()
	if c.done != done || c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	notify, engine := c.notify, c.engine
	c.state = StateClosed
	c.write, c.notify = nil, nil
	close(done)
	c.mu.Unlock()

	log := c.logger.WithField("address", c.transport.Address())
	if cause != nil {
		log.WithError(cause).Info("Connection lost")
	} else {
		log.Info("Disconnecting...")
	}

	if notify != nil {
		if err := notify.Unsubscribe(); err != nil {
			log.WithError(err).Debug("Unsubscribe failed")
		}
	}

	var result error
	select {
	case <-c.transport.Disconnected():
	default:
		if err := c.transport.Disconnect(); err != nil {
			result = &PhaseError{Phase: PhaseDisconnect, Err: err}
		}
	}

	if engine != nil {
		engine.Close()
	}
	c.observers.emit(Event{Kind: EventDisconnect, Err: cause})
	return result
}

// handleFrame runs on the transport's notification goroutine.
func (c *Connection) handleFrame(data []byte) {
	c.tap.record(Rx, data)
	log := c.logger.WithField("rx", fmt.Sprintf("%X", data))

	msg, err := protocol.Decode(data)
	switch {
	case errors.Is(err, protocol.ErrSchemaMissing):
		log.WithError(err).Warn("No decoder for inbound opcode")
		return
	case err != nil:
		log.WithError(err).Debug("Dropping malformed frame")
		return
	case msg == nil:
		log.Debug("Ignoring unknown frame")
		return
	}
	log.WithField("type", msg.Type().String()).Debug("Received frame")

	c.mu.Lock()
	engine, ready := c.engine, c.state == StateReady
	c.mu.Unlock()
	if !ready {
		return
	}

	if n, ok := msg.(protocol.Notification); ok {
		if n.StreamErr != nil {
			log.WithError(n.StreamErr).Warn("Sensor stream decoding stopped early")
		}
		c.observers.emit(Event{Kind: EventNotification, Message: n, Payloads: n.Payloads})
		return
	}

	if engine.Deliver(msg) {
		return
	}
	c.observers.emit(Event{Kind: EventMessage, Message: msg})
}
