package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/srg/coral/internal/device"
	"github.com/srg/coral/internal/protocol"
)

// MockCharacteristic is an in-memory device.Characteristic.
type MockCharacteristic struct {
	uuid string

	mu        sync.Mutex
	writes    [][]byte
	handler   func([]byte)
	onWrite   func([]byte)
	writeErr  error
	subErr    error
	subscribe int
}

// NewMockCharacteristic returns a characteristic with the given UUID.
func NewMockCharacteristic(uuid string) *MockCharacteristic {
	return &MockCharacteristic{uuid: uuid}
}

func (c *MockCharacteristic) UUID() string { return c.uuid }

func (c *MockCharacteristic) Write(data []byte, _ bool) error {
	c.mu.Lock()
	if c.writeErr != nil {
		err := c.writeErr
		c.mu.Unlock()
		return err
	}
	frame := append([]byte(nil), data...)
	c.writes = append(c.writes, frame)
	onWrite := c.onWrite
	c.mu.Unlock()

	if onWrite != nil {
		onWrite(frame)
	}
	return nil
}

func (c *MockCharacteristic) Subscribe(handler func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subErr != nil {
		return c.subErr
	}
	c.handler = handler
	c.subscribe++
	return nil
}

func (c *MockCharacteristic) Unsubscribe() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = nil
	return nil
}

// Subscribed reports whether a notification handler is installed.
func (c *MockCharacteristic) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler != nil
}

// Writes returns a copy of every frame written so far.
func (c *MockCharacteristic) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

// Emit delivers data to the installed handler, if any.
func (c *MockCharacteristic) Emit(data []byte) bool {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h == nil {
		return false
	}
	h(data)
	return true
}

// FailWrites makes every following Write return err. Nil restores writes.
func (c *MockCharacteristic) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

// FailSubscribe makes Subscribe return err.
func (c *MockCharacteristic) FailSubscribe(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subErr = err
}

// MockTransport is an in-memory device.Transport exposing the Coral service.
//
// Writes to the write characteristic are passed to the responder, and the
// frames it returns are delivered on the notify characteristic before Write
// returns.
type MockTransport struct {
	address string

	Write  *MockCharacteristic
	Notify *MockCharacteristic

	mu           sync.Mutex
	connected    bool
	disconnected chan struct{}
	connectErr   error
	chars        map[string]*MockCharacteristic
	responder    Responder

	ConnectCalls    int
	DisconnectCalls int
}

// Responder computes the reply frames for one outbound frame.
type Responder func(frame []byte) [][]byte

// NewMockTransport returns a disconnected transport with the Coral write and
// notify characteristics.
func NewMockTransport(address string) *MockTransport {
	m := &MockTransport{
		address:      address,
		Write:        NewMockCharacteristic(protocol.WriteCharUUID),
		Notify:       NewMockCharacteristic(protocol.NotifyCharUUID),
		disconnected: make(chan struct{}),
		chars:        make(map[string]*MockCharacteristic),
	}
	m.chars[device.NormalizeUUID(protocol.WriteCharUUID)] = m.Write
	m.chars[device.NormalizeUUID(protocol.NotifyCharUUID)] = m.Notify
	m.Write.onWrite = m.respond
	return m
}

// WithResponder installs r and returns m.
func (m *MockTransport) WithResponder(r Responder) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = r
	return m
}

// WithoutCharacteristic removes a characteristic so discovery fails.
func (m *MockTransport) WithoutCharacteristic(uuid string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chars, device.NormalizeUUID(uuid))
	return m
}

// FailConnect makes Connect return err.
func (m *MockTransport) FailConnect(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
	return m
}

func (m *MockTransport) respond(frame []byte) {
	m.mu.Lock()
	r := m.responder
	m.mu.Unlock()
	if r == nil {
		return
	}
	for _, reply := range r(frame) {
		m.Notify.Emit(reply)
	}
}

func (m *MockTransport) Address() string { return m.address }

func (m *MockTransport) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ConnectCalls++
	if m.connectErr != nil {
		return m.connectErr
	}
	if m.connected {
		return nil
	}
	m.connected = true
	m.disconnected = make(chan struct{})
	return nil
}

func (m *MockTransport) DiscoverCharacteristics(ctx context.Context, service string, chars ...string) ([]device.Characteristic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil, device.ErrNotConnected
	}
	if !device.SameUUID(service, protocol.ServiceUUID) {
		return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{service}}
	}

	out := make([]device.Characteristic, 0, len(chars))
	for _, uuid := range chars {
		c, ok := m.chars[device.NormalizeUUID(uuid)]
		if !ok {
			return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{service, uuid}}
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MockTransport) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DisconnectCalls++
	m.dropLocked()
	return nil
}

// DropLink simulates a peripheral-initiated disconnect.
func (m *MockTransport) DropLink() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked()
}

func (m *MockTransport) dropLocked() {
	if !m.connected {
		return
	}
	m.connected = false
	close(m.disconnected)
}

func (m *MockTransport) Disconnected() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnected
}

// Connected reports the link state.
func (m *MockTransport) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Writes returns every frame written to the write characteristic.
func (m *MockTransport) Writes() [][]byte {
	return m.Write.Writes()
}

// Inject delivers data as a notification from the peripheral.
func (m *MockTransport) Inject(data []byte) bool {
	return m.Notify.Emit(data)
}

// MockAdapter is an in-memory device.Adapter.
type MockAdapter struct {
	mu             sync.Mutex
	advertisements []device.Advertisement
	transports     map[string]*MockTransport
	scanErr        error
}

// NewMockAdapter returns an adapter that replays ads on every scan.
func NewMockAdapter(ads ...device.Advertisement) *MockAdapter {
	return &MockAdapter{
		advertisements: ads,
		transports:     make(map[string]*MockTransport),
	}
}

// WithTransport registers t under its address.
func (a *MockAdapter) WithTransport(t *MockTransport) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transports[t.Address()] = t
	return a
}

// FailScan makes Scan return err.
func (a *MockAdapter) FailScan(err error) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scanErr = err
	return a
}

// Scan delivers every configured advertisement, then blocks until ctx ends.
func (a *MockAdapter) Scan(ctx context.Context, _ bool, handler func(device.Advertisement)) error {
	a.mu.Lock()
	ads := append([]device.Advertisement(nil), a.advertisements...)
	err := a.scanErr
	a.mu.Unlock()

	if err != nil {
		return err
	}
	for _, adv := range ads {
		handler(adv)
	}
	<-ctx.Done()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil
	}
	return ctx.Err()
}

func (a *MockAdapter) Transport(address string) (device.Transport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, ok := a.transports[address]; ok {
		return t, nil
	}
	return nil, &device.NotFoundError{Resource: "device", UUIDs: []string{address}}
}
