package stream

import (
	"sync"

	"github.com/roach88/remod/internal/ir"
)

// Share returns a hot, ref-counted multicast of src. The first subscriber
// connects src once; later subscribers join that connection; when the last
// one cancels the upstream subscription is cancelled too. A later
// subscriber reconnects. Values are not replayed.
func Share(src Source) Source {
	return &shared{src: src}
}

// ShareReplay is Share that also retains the most recent value and
// delivers it to each new subscriber before live values.
// The retained value is dropped when the connection is torn down.
func ShareReplay(src Source) Source {
	return &shared{src: src, replay: true}
}

type shared struct {
	src    Source
	replay bool

	mu       sync.Mutex
	hub      *Channel
	refs     int
	upstream *Subscription
	last     ir.Value
	hasLast  bool
}

func (s *shared) Subscribe(o Observer) *Subscription {
	s.mu.Lock()
	if s.hub == nil {
		s.hub = NewChannel("share")
	}
	hub := s.hub
	s.refs++
	first := s.refs == 1
	last, replay := s.last, s.replay && s.hasLast
	s.mu.Unlock()

	if replay {
		o(last)
	}
	inner := hub.Subscribe(o)

	if first {
		// Connect outside the lock: src may emit synchronously on subscribe.
		up := s.src.Subscribe(func(v ir.Value) {
			if s.replay {
				s.mu.Lock()
				s.last, s.hasLast = v, true
				s.mu.Unlock()
			}
			hub.Push(v)
		})
		s.mu.Lock()
		if s.hub == hub {
			s.upstream = up
			up = nil
		}
		s.mu.Unlock()
		if up != nil {
			// Every subscriber left while connecting.
			up.Cancel()
		}
	}

	return NewSubscription(func() {
		inner.Cancel()

		s.mu.Lock()
		if s.hub != hub {
			s.mu.Unlock()
			return
		}
		s.refs--
		disconnect := s.refs == 0
		var up *Subscription
		if disconnect {
			up = s.upstream
			s.upstream = nil
			s.hub = nil
			s.last, s.hasLast = nil, false
		}
		s.mu.Unlock()

		if up != nil {
			up.Cancel()
		}
		if disconnect {
			hub.Close()
		}
	})
}
