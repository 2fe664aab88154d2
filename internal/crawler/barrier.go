package crawler

import (
	"context"
	"sync"
)

// barrier tracks a growing and shrinking set of outstanding work units.
//
// Unlike sync.WaitGroup it exposes the pending count and supports waiting
// with a context. Once the count drains to zero the barrier is spent:
// registering on it again panics.
type barrier struct {
	mu      sync.Mutex
	pending int
	drained bool
	done    chan struct{}
}

// newBarrier returns a barrier with parties already registered.
// parties must be positive.
func newBarrier(parties int) *barrier {
	if parties <= 0 {
		panic("crawler: barrier needs at least one party")
	}
	return &barrier{
		pending: parties,
		done:    make(chan struct{}),
	}
}

// register adds one outstanding unit. It must be called by the code that
// decides to create the unit, before the unit is handed to a pool.
func (b *barrier) register() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drained {
		panic("crawler: register on drained barrier")
	}
	b.pending++
}

// arrive marks one unit finished.
func (b *barrier) arrive() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending <= 0 {
		panic("crawler: negative barrier count")
	}
	b.pending--
	if b.pending == 0 {
		b.drained = true
		close(b.done)
	}
}

// wait blocks until the barrier drains or ctx is done.
func (b *barrier) wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// outstanding returns the number of registered units that have not arrived.
func (b *barrier) outstanding() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}
