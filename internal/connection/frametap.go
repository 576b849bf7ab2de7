package connection

import (
	"sync/atomic"
	"time"

	"github.com/hedzr/go-ringbuf/v2/mpmc"
)

// Direction of a tapped frame.
type Direction uint8

const (
	Tx Direction = iota
	Rx
)

func (d Direction) String() string {
	if d == Tx {
		return "tx"
	}
	return "rx"
}

// Frame is one raw frame seen on the link.
type Frame struct {
	Direction Direction
	At        time.Time
	Data      []byte
}

// FrameTap keeps the most recent raw frames in a bounded ring. Older frames
// are overwritten once the ring is full.
type FrameTap struct {
	buffer      mpmc.RichOverlappedRingBuffer[Frame]
	overwritten atomic.Uint64
	errors      atomic.Uint64
}

// NewFrameTap returns a tap holding up to capacity frames, or nil when
// capacity is zero. A nil tap records nothing.
func NewFrameTap(capacity uint32) *FrameTap {
	if capacity == 0 {
		return nil
	}
	return &FrameTap{buffer: mpmc.NewOverlappedRingBuffer[Frame](capacity)}
}

func (t *FrameTap) record(dir Direction, data []byte) {
	if t == nil {
		return
	}
	frame := Frame{Direction: dir, At: time.Now(), Data: append([]byte(nil), data...)}
	overwrites, err := t.buffer.EnqueueM(frame)
	if err != nil {
		t.errors.Add(1)
		return
	}
	t.overwritten.Add(uint64(overwrites))
}

// Drain removes and returns every buffered frame, oldest first.
func (t *FrameTap) Drain() []Frame {
	if t == nil {
		return nil
	}
	var out []Frame
	for !t.buffer.IsEmpty() {
		f, err := t.buffer.Dequeue()
		if err != nil {
			break
		}
		out = append(out, f)
	}
	return out
}

// Overwritten returns how many frames were lost to overflow.
func (t *FrameTap) Overwritten() uint64 {
	if t == nil {
		return 0
	}
	return t.overwritten.Load()
}
