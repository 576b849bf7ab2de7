package connection

import (
	"sync"

	"github.com/srg/coral/internal/protocol"
	"github.com/srg/coral/internal/ringchan"
)

// EventKind enumerates what a connection reports to observers.
type EventKind uint8

const (
	// EventMessage is a decoded reply that no pending request claimed.
	EventMessage EventKind = iota
	// EventNotification carries the sensor payloads of a DeviceNotification.
	EventNotification
	// EventDisconnect is emitted once per close, whichever side initiated it.
	EventDisconnect
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventNotification:
		return "notification"
	case EventDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is one observer callback.
type Event struct {
	Kind     EventKind
	Message  protocol.Message
	Payloads []protocol.SensorPayload
	// Err is the disconnect cause; nil for a caller-initiated close.
	Err error
}

// Observer receives connection events. OnEvent runs on the transport's
// notification goroutine and must not block.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

type observers struct {
	mu     sync.RWMutex
	nextID uint64
	byID   map[uint64]Observer
}

func (o *observers) add(obs Observer) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.byID == nil {
		o.byID = make(map[uint64]Observer)
	}
	o.nextID++
	id := o.nextID
	o.byID[id] = obs

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.byID, id)
		})
	}
}

func (o *observers) emit(e Event) {
	o.mu.RLock()
	snapshot := make([]Observer, 0, len(o.byID))
	for _, obs := range o.byID {
		snapshot = append(snapshot, obs)
	}
	o.mu.RUnlock()

	for _, obs := range snapshot {
		obs.OnEvent(e)
	}
}

// Observe registers obs and returns a function that removes it.
func (c *Connection) Observe(obs Observer) (cancel func()) {
	return c.observers.add(obs)
}

// Events returns a buffered event stream. When the buffer is full the oldest
// event is dropped. cancel detaches the stream and closes the channel.
func (c *Connection) Events(capacity int) (events <-chan Event, cancel func()) {
	ring := ringchan.New[Event](capacity)
	detach := c.Observe(ObserverFunc(func(e Event) { ring.Send(e) }))
	return ring.C(), func() {
		detach()
		ring.Close()
	}
}
