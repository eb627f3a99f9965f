package stream

import (
	"sync"

	"github.com/roach88/remod/internal/ir"
)

// Observer receives values pushed through a Source.
type Observer func(ir.Value)

// Source is the read side of a stream.
type Source interface {
	Subscribe(Observer) *Subscription
}

// SourceFunc adapts a subscribe function into a Source.
type SourceFunc func(Observer) *Subscription

// Subscribe calls f.
func (f SourceFunc) Subscribe(o Observer) *Subscription {
	return f(o)
}

// Sink is the write side of a channel.
type Sink func(ir.Value)

type subscriber struct {
	observe Observer
	sub     *Subscription
}

// Channel is a named multicast conduit with one sink and any number of
// subscribers. Values pushed with no subscribers are dropped.
//
// The subscriber list is copy-on-write: Push iterates the list that was
// current when it started, so observers may subscribe or cancel during
// delivery without affecting that push's other recipients. A subscriber
// cancelled mid-push is skipped if it has not been reached yet.
type Channel struct {
	name string

	mu     sync.Mutex
	subs   []*subscriber
	closed bool
}

// NewChannel creates an open channel.
func NewChannel(name string) *Channel {
	return &Channel{name: name}
}

// New creates a channel and returns its two halves.
func New(name string) (Sink, Source) {
	ch := NewChannel(name)
	return ch.Push, ch.Source()
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// Push delivers v synchronously to every subscriber attached now.
// Push on a closed channel is a no-op.
func (c *Channel) Push(v ir.Value) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	subs := c.subs
	c.mu.Unlock()

	for _, s := range subs {
		if s.sub.Cancelled() {
			continue
		}
		s.observe(v)
	}
}

// Subscribe attaches o. Subscribing to a closed channel returns an
// already-cancelled subscription.
func (c *Channel) Subscribe(o Observer) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cancelled()
	}

	s := &subscriber{observe: o}
	s.sub = NewSubscription(func() { c.remove(s) })

	next := make([]*subscriber, len(c.subs), len(c.subs)+1)
	copy(next, c.subs)
	c.subs = append(next, s)
	return s.sub
}

func (c *Channel) remove(target *subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]*subscriber, 0, len(c.subs))
	for _, s := range c.subs {
		if s != target {
			next = append(next, s)
		}
	}
	c.subs = next
}

// Subscribers returns the number of attached observers.
func (c *Channel) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close detaches every observer. Later pushes and subscribes are no-ops.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		s.sub.Cancel()
	}
}

// Closed reports whether Close has been called.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Source returns a read-only view, so holders of the source cannot push.
func (c *Channel) Source() Source {
	return SourceFunc(c.Subscribe)
}
