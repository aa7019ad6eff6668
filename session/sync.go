// Package session is the session manager: a sync table that blocks the
// calling goroutine on a one-shot promise, and an async table that fans a
// multicast call's replies into a continuation.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/galaxyeye/pioneer/cmn"
	"github.com/galaxyeye/pioneer/rpc"
)

// Outcome is what a sync Suspend ultimately receives: either a Result from
// a matching Resume, or a terminal Err (timeout, or a Clear()-wide
// cancellation on shutdown).
type Outcome struct {
	Result rpc.Result
	Err    error
}

// SyncManager is the "sync table": suspend(id) blocks until a matching
// resume(id, result) arrives or ctx's deadline elapses.
type SyncManager struct {
	mu      sync.Mutex
	pending map[uuid.UUID]chan Outcome
}

func NewSyncManager() *SyncManager {
	return &SyncManager{pending: make(map[uuid.UUID]chan Outcome)}
}

// Suspend registers id and blocks the caller until Resume(id, ...) arrives
// or ctx is done. A second Suspend against an in-use id fails immediately.
func (m *SyncManager) Suspend(ctx context.Context, id uuid.UUID) (rpc.Result, error) {
	ch := make(chan Outcome, 1)

	m.mu.Lock()
	if _, dup := m.pending[id]; dup {
		m.mu.Unlock()
		return rpc.Result{}, cmn.ErrDuplicatedSession
	}
	m.pending[id] = ch
	m.mu.Unlock()

	select {
	case out := <-ch:
		return out.Result, out.Err
	case <-ctx.Done():
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
		return rpc.Result{}, cmn.ErrConnectionTimeout
	}
}

// Resume fulfils and removes the session. A resume against an unknown id
// (already completed, already timed out, or never suspended) is a no-op
// that reports ErrBadSession — a late response is dropped, not
// double-delivered.
func (m *SyncManager) Resume(id uuid.UUID, result rpc.Result) error {
	m.mu.Lock()
	ch, ok := m.pending[id]
	if ok {
		delete(m.pending, id)
	}
	m.mu.Unlock()
	if !ok {
		return cmn.ErrBadSession
	}
	ch <- Outcome{Result: result}
	return nil
}

// Clear unblocks every pending promise with cause, used on engine
// shutdown so no caller goroutine is left waiting forever.
func (m *SyncManager) Clear(cause error) {
	m.mu.Lock()
	pending := m.pending
	m.pending = make(map[uuid.UUID]chan Outcome)
	m.mu.Unlock()

	for _, ch := range pending {
		ch <- Outcome{Err: cause}
	}
}

// Len reports the number of outstanding sync sessions, mainly for tests.
func (m *SyncManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
