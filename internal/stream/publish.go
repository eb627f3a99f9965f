package stream

import (
	"sync"

	"github.com/roach88/remod/internal/ir"
)

// Published is a hot multicast of a source that stays disconnected until
// Connect is called, so several observers can attach before any value
// flows. After Connect it is ref-counted like Share: when the last
// observer cancels, the upstream subscription is cancelled too.
type Published struct {
	src Source
	hub *Channel

	mu        sync.Mutex
	refs      int
	connected bool
	upstream  *Subscription
}

// Publish wraps src. Nothing is subscribed upstream until Connect.
func Publish(src Source) *Published {
	return &Published{src: src, hub: NewChannel("publish")}
}

// Subscribe attaches o to the multicast.
func (p *Published) Subscribe(o Observer) *Subscription {
	p.mu.Lock()
	p.refs++
	p.mu.Unlock()

	inner := p.hub.Subscribe(o)
	return NewSubscription(func() {
		inner.Cancel()

		p.mu.Lock()
		p.refs--
		var up *Subscription
		if p.refs == 0 && p.connected {
			up, p.upstream = p.upstream, nil
		}
		p.mu.Unlock()
		up.Cancel()
	})
}

// Connect subscribes upstream once and returns a subscription that
// disconnects it. Values emitted synchronously while connecting reach
// every observer already attached. Later calls return the existing
// connection handle.
func (p *Published) Connect() *Subscription {
	p.mu.Lock()
	if p.connected {
		p.mu.Unlock()
		return NewSubscription(p.disconnect)
	}
	p.connected = true
	p.mu.Unlock()

	up := p.src.Subscribe(func(v ir.Value) { p.hub.Push(v) })

	p.mu.Lock()
	if p.refs > 0 {
		p.upstream, up = up, nil
	}
	p.mu.Unlock()
	// Every observer left while connecting.
	up.Cancel()

	return NewSubscription(p.disconnect)
}

func (p *Published) disconnect() {
	p.mu.Lock()
	up := p.upstream
	p.upstream = nil
	p.mu.Unlock()
	up.Cancel()
	p.hub.Close()
}
