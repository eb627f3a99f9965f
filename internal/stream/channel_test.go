package stream

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remod/internal/ir"
)

// collect subscribes to src and returns a pointer to the received values.
func collect(src Source) (*[]ir.Value, *Subscription) {
	var got []ir.Value
	sub := src.Subscribe(func(v ir.Value) { got = append(got, v) })
	return &got, sub
}

func ints(vals ...int64) []ir.Value {
	out := make([]ir.Value, len(vals))
	for i, v := range vals {
		out[i] = ir.Int(v)
	}
	return out
}

// ============================================================================
// Delivery
// ============================================================================

func TestChannelMulticastFidelity(t *testing.T) {
	push, src := New("tick")

	a, _ := collect(src)
	b, _ := collect(src)
	c, _ := collect(src)

	for i := int64(1); i <= 5; i++ {
		push(ir.Int(i))
	}

	want := ints(1, 2, 3, 4, 5)
	assert.Equal(t, want, *a)
	assert.Equal(t, want, *b)
	assert.Equal(t, want, *c)
}

func TestChannelDeliversInSubscriptionOrder(t *testing.T) {
	ch := NewChannel("order")
	var order []string
	ch.Subscribe(func(ir.Value) { order = append(order, "first") })
	ch.Subscribe(func(ir.Value) { order = append(order, "second") })

	ch.Push(ir.Null{})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestChannelNoBufferingWithoutSubscribers(t *testing.T) {
	push, src := New("lost")
	push(ir.Int(1))

	got, _ := collect(src)
	push(ir.Int(2))

	assert.Equal(t, ints(2), *got, "values pushed before subscribing are not replayed")
}

func TestChannelSynchronousDelivery(t *testing.T) {
	ch := NewChannel("sync")
	delivered := false
	ch.Subscribe(func(ir.Value) { delivered = true })

	ch.Push(ir.Null{})
	assert.True(t, delivered, "Push returns only after observers ran")
}

func TestChannelSubscribeDuringPushSeesOnlyLaterValues(t *testing.T) {
	ch := NewChannel("late")
	var late *[]ir.Value
	ch.Subscribe(func(v ir.Value) {
		if late == nil {
			late, _ = collect(ch)
		}
	})

	ch.Push(ir.Int(1))
	ch.Push(ir.Int(2))

	require.NotNil(t, late)
	assert.Equal(t, ints(2), *late)
}

// ============================================================================
// Cancellation
// ============================================================================

func TestSubscriptionCancelIdempotent(t *testing.T) {
	ch := NewChannel("c")
	got, sub := collect(ch)

	sub.Cancel()
	sub.Cancel()
	assert.True(t, sub.Cancelled())
	assert.Equal(t, 0, ch.Subscribers())

	ch.Push(ir.Int(1))
	assert.Empty(t, *got)
}

func TestSubscriptionCancelNil(t *testing.T) {
	var sub *Subscription
	assert.NotPanics(t, sub.Cancel)
	assert.True(t, sub.Cancelled())
}

func TestCancelSelfDuringDelivery(t *testing.T) {
	ch := NewChannel("self")
	var got []ir.Value
	var sub *Subscription
	sub = ch.Subscribe(func(v ir.Value) {
		got = append(got, v)
		sub.Cancel()
		sub.Cancel()
	})
	other, _ := collect(ch)

	ch.Push(ir.Int(1))
	ch.Push(ir.Int(2))

	assert.Equal(t, ints(1), got)
	assert.Equal(t, ints(1, 2), *other, "cancelling one observer does not affect the others")
}

func TestCancelOtherDuringDelivery(t *testing.T) {
	ch := NewChannel("other")
	var victim *Subscription
	first, _ := collect(ch)
	ch.Subscribe(func(ir.Value) { victim.Cancel() })
	var victimGot []ir.Value
	victim = ch.Subscribe(func(v ir.Value) { victimGot = append(victimGot, v) })
	last, _ := collect(ch)

	ch.Push(ir.Int(1))

	assert.Equal(t, ints(1), *first)
	assert.Empty(t, victimGot, "a subscriber cancelled before it is reached is skipped")
	assert.Equal(t, ints(1), *last)
}

func TestGroupCancelsAll(t *testing.T) {
	ch := NewChannel("g")
	_, s1 := collect(ch)
	_, s2 := collect(ch)

	g := Group(s1, s2)
	g.Cancel()

	assert.True(t, s1.Cancelled())
	assert.True(t, s2.Cancelled())
	assert.Equal(t, 0, ch.Subscribers())
}

// ============================================================================
// Close
// ============================================================================

func TestChannelCloseDetachesAndNoops(t *testing.T) {
	ch := NewChannel("closed")
	got, sub := collect(ch)

	ch.Close()
	ch.Close()
	assert.True(t, ch.Closed())
	assert.True(t, sub.Cancelled())

	ch.Push(ir.Int(1))
	assert.Empty(t, *got)

	late := ch.Subscribe(func(ir.Value) { t.Fatal("closed channel delivered") })
	assert.True(t, late.Cancelled())
	ch.Push(ir.Int(2))
}

func TestChannelSourceIsReadOnly(t *testing.T) {
	ch := NewChannel("ro")
	src := ch.Source()
	_, isChannel := src.(*Channel)
	assert.False(t, isChannel, "the source view must not expose Push")
	assert.Equal(t, "ro", ch.Name())
}

func TestChannelConcurrentUse(t *testing.T) {
	ch := NewChannel("race")
	var mu sync.Mutex
	count := 0
	ch.Subscribe(func(ir.Value) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sub := ch.Subscribe(func(ir.Value) {})
				ch.Push(ir.Int(int64(j)))
				sub.Cancel()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, count)
	assert.Equal(t, 1, ch.Subscribers())
}
