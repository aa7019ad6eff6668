// Package workerpool decouples I/O reactor threads from handler execution:
// a fixed set of workers drains a FIFO of thunks so no handler ever runs
// on a reactor goroutine.
package workerpool

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/galaxyeye/pioneer/cmn"
)

// Pool is a fixed-size worker pool over an in-memory FIFO queue. The queue
// is unbounded by default, so Schedule always accepts; passing maxQueue >
// 0 switches to a bounded mode, where Schedule returns ErrBadRequest once
// the queue is full instead of growing forever.
type Pool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []func()
	closed   bool
	maxQueue int

	eg *errgroup.Group
}

// New starts workers goroutines draining the queue. maxQueue of 0 means
// unbounded.
func New(workers, maxQueue int) *Pool {
	p := &Pool{maxQueue: maxQueue}
	p.cond = sync.NewCond(&p.mu)
	eg := &errgroup.Group{}
	for i := 0; i < workers; i++ {
		eg.Go(func() error {
			p.run()
			return nil
		})
	}
	p.eg = eg
	return p
}

func (p *Pool) run() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.closed {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		task()
	}
}

// Schedule enqueues f for a worker to run. It never blocks: in unbounded
// mode schedule(f) always accepts.
func (p *Pool) Schedule(f func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return cmn.ErrShuttingDown
	}
	if p.maxQueue > 0 && len(p.queue) >= p.maxQueue {
		return cmn.ErrBadRequest
	}
	p.queue = append(p.queue, f)
	p.cond.Signal()
	return nil
}

// Clear drops every not-yet-started task and waits for tasks already
// being run by a worker to finish.
func (p *Pool) Clear() {
	p.mu.Lock()
	p.queue = nil
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	_ = p.eg.Wait()
}

// Len reports the number of tasks currently queued (not counting any task a
// worker already picked up), mainly for tests.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
