package protocol

import "sync"

// StreamIdentity distinguishes sensor streams for duplicate suppression:
// the record kind, plus the motor mask for per-motor records.
type StreamIdentity struct {
	Kind   SensorKind
	Motors MotorBits
}

// IdentityOf returns the stream a payload belongs to.
func IdentityOf(p SensorPayload) StreamIdentity {
	id := StreamIdentity{Kind: p.Kind()}
	switch v := p.(type) {
	case MotorPayload:
		id.Motors = v.Motors
	case MotorGesturePayload:
		id.Motors = v.Motors
	}
	return id
}

// ChangeFilter drops payloads equal to the last one seen on the same stream.
// The device streams on a fixed timer whether or not anything changed.
type ChangeFilter struct {
	mu   sync.Mutex
	last map[StreamIdentity]SensorPayload
}

// NewChangeFilter returns an empty filter.
func NewChangeFilter() *ChangeFilter {
	return &ChangeFilter{last: make(map[StreamIdentity]SensorPayload)}
}

// Changed reports whether p differs from the previous payload of its stream
// and remembers it when it does.
func (f *ChangeFilter) Changed(p SensorPayload) bool {
	id := IdentityOf(p)

	f.mu.Lock()
	defer f.mu.Unlock()

	if prev, ok := f.last[id]; ok && prev == p {
		return false
	}
	f.last[id] = p
	return true
}

// Filter returns the payloads of batch that changed, in order.
func (f *ChangeFilter) Filter(batch []SensorPayload) []SensorPayload {
	out := batch[:0:0]
	for _, p := range batch {
		if f.Changed(p) {
			out = append(out, p)
		}
	}
	return out
}

// Reset forgets every remembered payload.
func (f *ChangeFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.last)
}
