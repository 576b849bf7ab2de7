// Package correlate matches inbound replies to outstanding requests.
//
// Requests are queued per protocol.Key. Replies for one key resolve the
// oldest pending request first; different keys are independent. Every
// pending request owns its own deadline timer.
package correlate

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/coral/internal/protocol"
)

// Pending is one outstanding request.
type Pending struct {
	key     protocol.Key
	issued  time.Time
	timeout time.Duration
	timer   *time.Timer
	engine  *Engine

	done chan struct{}
	msg  protocol.Message
	err  error
}

// Key returns the key the reply is expected under.
func (p *Pending) Key() protocol.Key { return p.key }

// Done is closed once the request is resolved or rejected.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result returns the outcome. Only valid after Done is closed.
func (p *Pending) Result() (protocol.Message, error) {
	return p.msg, p.err
}

// Wait blocks until the request settles or ctx ends. A cancelled context
// withdraws the request from its queue.
func (p *Pending) Wait(ctx context.Context) (protocol.Message, error) {
	select {
	case <-p.done:
		return p.msg, p.err
	case <-ctx.Done():
		p.engine.Reject(p, ctx.Err())
		<-p.done
		return p.msg, p.err
	}
}

// settle must be called exactly once, after p left its queue.
func (p *Pending) settle(msg protocol.Message, err error) {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.msg = msg
	p.err = err
	close(p.done)
}

// Engine owns the pending-request queues of one connection.
type Engine struct {
	mu      sync.Mutex
	pending *orderedmap.OrderedMap[protocol.Key, []*Pending]
	closed  bool
	logger  *logrus.Logger
}

// NewEngine returns an empty engine.
func NewEngine(logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		pending: orderedmap.New[protocol.Key, []*Pending](),
		logger:  logger,
	}
}

// Issue registers a request for cmd and starts its deadline.
func (e *Engine) Issue(cmd protocol.Command, timeout time.Duration) (*Pending, error) {
	if timeout <= 0 {
		timeout = protocol.DefaultRequestTimeout
	}

	p := &Pending{
		key:     protocol.RequestKey(cmd),
		issued:  time.Now(),
		timeout: timeout,
		engine:  e,
		done:    make(chan struct{}),
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	queue, _ := e.pending.Get(p.key)
	e.pending.Set(p.key, append(queue, p))
	p.timer = time.AfterFunc(timeout, func() { e.expire(p) })
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"key":     p.key.String(),
		"timeout": timeout,
		"queued":  len(queue) + 1,
	}).Debug("Request issued")
	return p, nil
}

// Deliver routes an inbound message to the oldest request waiting on its key.
// It reports false when nothing was waiting, leaving the message to the caller.
func (e *Engine) Deliver(msg protocol.Message) bool {
	key := protocol.ResponseKey(msg)

	e.mu.Lock()
	queue, ok := e.pending.Get(key)
	if !ok || len(queue) == 0 {
		e.mu.Unlock()
		return false
	}
	p := queue[0]
	e.storeQueue(key, queue[1:])
	e.mu.Unlock()

	if err := protocol.CheckStatus(msg); err != nil {
		e.logger.WithFields(logrus.Fields{
			"key":   key.String(),
			"error": err,
		}).Debug("Request rejected by device")
		p.settle(nil, err)
		return true
	}

	e.logger.WithFields(logrus.Fields{
		"key":     key.String(),
		"type":    msg.Type().String(),
		"elapsed": time.Since(p.issued),
	}).Debug("Request resolved")
	p.settle(msg, nil)
	return true
}

// Reject withdraws p with err. It is a no-op if p already settled.
func (e *Engine) Reject(p *Pending, err error) {
	if e.unlink(p) {
		p.settle(nil, err)
	}
}

func (e *Engine) expire(p *Pending) {
	if !e.unlink(p) {
		return
	}
	e.logger.WithFields(logrus.Fields{
		"key":     p.key.String(),
		"timeout": p.timeout,
	}).Warn("Request timed out")
	p.settle(nil, &TimeoutError{Key: p.key, Timeout: p.timeout})
}

// unlink removes p from its queue and reports whether it was still there.
func (e *Engine) unlink(p *Pending) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	queue, ok := e.pending.Get(p.key)
	if !ok {
		return false
	}
	for i, q := range queue {
		if q == p {
			rest := make([]*Pending, 0, len(queue)-1)
			rest = append(rest, queue[:i]...)
			rest = append(rest, queue[i+1:]...)
			e.storeQueue(p.key, rest)
			return true
		}
	}
	return false
}

// storeQueue must be called with mu held.
func (e *Engine) storeQueue(key protocol.Key, queue []*Pending) {
	if len(queue) == 0 {
		e.pending.Delete(key)
		return
	}
	e.pending.Set(key, queue)
}

// Close rejects every pending request with ErrConnectionClosed and refuses
// new ones. Safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	var rejected []*Pending
	for pair := e.pending.Oldest(); pair != nil; pair = pair.Next() {
		rejected = append(rejected, pair.Value...)
	}
	e.pending = orderedmap.New[protocol.Key, []*Pending]()
	e.mu.Unlock()

	if len(rejected) > 0 {
		e.logger.WithField("pending", len(rejected)).Debug("Rejecting pending requests")
	}
	for _, p := range rejected {
		p.settle(nil, ErrConnectionClosed)
	}
}

// Len returns the number of pending requests across all keys.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for pair := e.pending.Oldest(); pair != nil; pair = pair.Next() {
		n += len(pair.Value)
	}
	return n
}

// Keys returns the keys that have pending requests, oldest first.
func (e *Engine) Keys() []protocol.Key {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := make([]protocol.Key, 0, e.pending.Len())
	for pair := e.pending.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
