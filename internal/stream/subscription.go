package stream

import (
	"sync"
	"sync/atomic"
)

// Subscription is the handle returned by Subscribe. Cancel detaches the
// observer; it is idempotent and safe to call from inside the observer.
type Subscription struct {
	once      sync.Once
	cancelled atomic.Bool
	teardown  func()
}

// NewSubscription returns a subscription that runs teardown on first Cancel.
func NewSubscription(teardown func()) *Subscription {
	return &Subscription{teardown: teardown}
}

// Cancel stops further delivery. Extra calls are no-ops.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.cancelled.Store(true)
		if s.teardown != nil {
			s.teardown()
		}
	})
}

// Cancelled reports whether Cancel has been called.
func (s *Subscription) Cancelled() bool {
	return s == nil || s.cancelled.Load()
}

// Group returns a subscription that cancels all of subs, in order.
func Group(subs ...*Subscription) *Subscription {
	return NewSubscription(func() {
		for _, sub := range subs {
			sub.Cancel()
		}
	})
}

func cancelled() *Subscription {
	s := NewSubscription(nil)
	s.Cancel()
	return s
}
