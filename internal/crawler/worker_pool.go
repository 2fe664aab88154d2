package crawler

import (
	"sync"
	"sync/atomic"
)

// MaxConcurrency caps every pool and per-host limit regardless of the
// requested value.
const MaxConcurrency = 50

type job func()

// workerPool runs jobs on a fixed number of goroutines.
//
// The queue is unbounded, so submit never blocks a worker of the other pool.
type workerPool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool

	wg   sync.WaitGroup
	live atomic.Int32
}

// newWorkerPool starts a pool with size workers, clamped to [1, MaxConcurrency].
func newWorkerPool(size int) *workerPool {
	p := &workerPool{}
	p.cond = sync.NewCond(&p.mu)
	p.start(clampConcurrency(size))
	return p
}

func (p *workerPool) start(size int) {
	for range size {
		p.wg.Add(1)
		p.live.Add(1)
		go func() {
			defer p.wg.Done()
			defer p.live.Add(-1)
			for {
				fn, ok := p.next()
				if !ok {
					return
				}
				fn()
			}
		}()
	}
}

// next blocks until a job is available or the pool is closed.
func (p *workerPool) next() (job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.closed {
		return nil, false
	}
	fn := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return fn, true
}

// submit appends fn to the queue. It never blocks.
func (p *workerPool) submit(fn job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.queue = append(p.queue, fn)
	p.cond.Signal()
	return nil
}

// close discards queued jobs and waits for running ones to return.
func (p *workerPool) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}

// workers returns the number of live worker goroutines.
func (p *workerPool) workers() int {
	return int(p.live.Load())
}

// queued returns the number of jobs waiting for a worker.
func (p *workerPool) queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func clampConcurrency(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxConcurrency:
		return MaxConcurrency
	default:
		return n
	}
}
