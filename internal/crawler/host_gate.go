package crawler

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostStats is a snapshot of one host's admission state.
type HostStats struct {
	// InFlight is the number of fetches running or handed to the fetch pool.
	InFlight int

	// Pending is the number of fetches waiting for a free host slot.
	Pending int
}

// hostState is the admission record for one host. A fetch is either counted
// in inFlight or queued in pending, never both.
type hostState struct {
	mu       sync.Mutex
	inFlight int
	pending  []job

	// limiter is nil unless a per-host rate limit is configured.
	limiter *rate.Limiter
}

// hostGate admits at most limit concurrent fetches per host and queues the
// rest in FIFO order. Host records are created lazily and each has its own
// lock, so hosts never wait on each other.
type hostGate struct {
	limit int
	pool  *workerPool

	rps   rate.Limit
	burst int

	states sync.Map // host -> *hostState
}

func newHostGate(pool *workerPool, limit int, rps float64, burst int) *hostGate {
	g := &hostGate{
		limit: clampConcurrency(limit),
		pool:  pool,
	}
	if rps > 0 {
		g.rps = rate.Limit(rps)
		g.burst = max(burst, 1)
	}
	return g
}

func (g *hostGate) state(host string) *hostState {
	host = strings.ToLower(host)
	if st, ok := g.states.Load(host); ok {
		return st.(*hostState) //nolint:forcetypeassert // only *hostState is stored
	}
	fresh := &hostState{}
	if g.rps > 0 {
		fresh.limiter = rate.NewLimiter(g.rps, g.burst)
	}
	st, _ := g.states.LoadOrStore(host, fresh)
	return st.(*hostState) //nolint:forcetypeassert // only *hostState is stored
}

// submit hands fn to the fetch pool if host has a free slot, otherwise
// queues it behind the host's earlier fetches.
func (g *hostGate) submit(host string, fn job) error {
	st := g.state(host)

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.inFlight >= g.limit {
		st.pending = append(st.pending, fn)
		return nil
	}
	if err := g.pool.submit(fn); err != nil {
		return err
	}
	st.inFlight++
	return nil
}

// release is called when a fetch for host finishes. The freed slot goes to
// the oldest queued fetch if there is one.
func (g *hostGate) release(host string) {
	st := g.state(host)

	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.pending) > 0 {
		next := st.pending[0]
		st.pending[0] = nil
		st.pending = st.pending[1:]
		if err := g.pool.submit(next); err == nil {
			return
		}
		// The pool is closed; nothing queued here can run anymore.
		st.pending = nil
	}
	st.inFlight--
}

// wait blocks until the host's rate limiter allows one more request.
func (g *hostGate) wait(ctx context.Context, host string) error {
	st := g.state(host)
	if st.limiter == nil {
		return nil
	}
	return st.limiter.Wait(ctx)
}

func (g *hostGate) stats(host string) HostStats {
	v, ok := g.states.Load(strings.ToLower(host))
	if !ok {
		return HostStats{}
	}
	st := v.(*hostState) //nolint:forcetypeassert // only *hostState is stored

	st.mu.Lock()
	defer st.mu.Unlock()
	return HostStats{InFlight: st.inFlight, Pending: len(st.pending)}
}
