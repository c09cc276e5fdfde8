package events

import (
	"context"
	"errors"
	"sync"
)

// ErrBusClosed is returned by Send once the consumer has terminated.
var ErrBusClosed = errors.New("event bus closed")

// Sender is the producer side of the Bus handed to background workers.
type Sender interface {
	Send(evt Event) error
}

// Bus is an unbounded many-producer, single-consumer FIFO of events.
// Send never blocks; events from one goroutine are received in the order they
// were sent. Events sent after Close are dropped.
type Bus struct {
	mu     sync.Mutex
	queue  []Envelope
	ready  chan struct{}
	closed bool
	done   chan struct{}

	observe func(Envelope)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// OnSend registers a hook invoked for every accepted event, on the sender's
// goroutine. Must be called before the bus is shared.
func (b *Bus) OnSend(fn func(Envelope)) {
	b.observe = fn
}

// Send enqueues evt for the consumer.
func (b *Bus) Send(evt Event) error {
	if evt == nil {
		return errors.New("nil event")
	}
	env := newEnvelope(evt)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.queue = append(b.queue, env)
	b.mu.Unlock()

	if b.observe != nil {
		b.observe(env)
	}

	select {
	case b.ready <- struct{}{}:
	default:
	}
	return nil
}

// Receive returns the next event, blocking until one is available, the bus is
// closed or ctx is done.
func (b *Bus) Receive(ctx context.Context) (Envelope, error) {
	for {
		if env, ok := b.pop(); ok {
			return env, nil
		}
		select {
		case <-b.ready:
		case <-b.done:
			return Envelope{}, ErrBusClosed
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		}
	}
}

// TryReceive returns the next queued event without blocking.
func (b *Bus) TryReceive() (Envelope, bool) {
	return b.pop()
}

func (b *Bus) pop() (Envelope, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || len(b.queue) == 0 {
		return Envelope{}, false
	}
	env := b.queue[0]
	b.queue[0] = Envelope{}
	b.queue = b.queue[1:]
	return env, true
}

// Len reports the number of queued events.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Close terminates the bus. Queued events are discarded. Safe to call more
// than once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.queue = nil
	close(b.done)
}

// Closed reports whether Close has been called.
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
