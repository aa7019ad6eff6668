package session

import (
	"context"
	"time"

	"github.com/galaxyeye/pioneer/nlog"
)

// Reaper periodically sweeps the async table for stale fan-ins: a
// registered cleanup function invoked at intervals, narrowed to this one
// cleanup. See AsyncManager.ReapExpired.
type Reaper struct {
	async *AsyncManager
	ttl   time.Duration
}

func NewReaper(async *AsyncManager, ttl time.Duration) *Reaper {
	return &Reaper{async: async, ttl: ttl}
}

// Run blocks, sweeping every ttl/2 until ctx is done. Callers start this in
// its own goroutine.
func (r *Reaper) Run(ctx context.Context) {
	if r.ttl <= 0 {
		return
	}
	interval := r.ttl / 2
	if interval <= 0 {
		interval = r.ttl
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.async.ReapExpired(r.ttl); n > 0 {
				nlog.V(2).Infof("session: reaped %d stale async session(s)", n)
			}
		}
	}
}
