package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/galaxyeye/pioneer/cmn"
)

// Continuation is the closure attached to an async session, invoked on
// every matching Resume: it may inspect the running counters via view and
// act only once view.Ready() is true.
type Continuation func(payload []byte, errCode int32, view View)

// View is the read-only snapshot of a session's running counters the
// continuation observes. The original implementation's ready() compared
// response_received to itself; Ready here is the corrected
// received == expected.
type View struct {
	ID         uuid.UUID
	Received   int32
	Expected   int32
	Aggregated [][]byte
}

func (v View) Ready() bool { return v.Received == v.Expected }

type asyncEntry struct {
	mu         sync.Mutex
	cont       Continuation
	expected   int32
	received   int32
	aggregated [][]byte
	done       bool
	created    time.Time
}

// AsyncManager is the "async table", with fan-in aggregation for
// multicast calls: expected_responses pre-arms N.
type AsyncManager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*asyncEntry
}

func NewAsyncManager() *AsyncManager {
	return &AsyncManager{sessions: make(map[uuid.UUID]*asyncEntry)}
}

// Suspend registers id with the number of responses the caller will wait
// for (at least 1) and the continuation to invoke on each arrival.
func (m *AsyncManager) Suspend(id uuid.UUID, expected int32, cont Continuation) error {
	if expected < 1 {
		expected = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.sessions[id]; dup {
		return cmn.ErrDuplicatedSession
	}
	m.sessions[id] = &asyncEntry{cont: cont, expected: expected, created: time.Now()}
	return nil
}

// Resume increments received, appends a non-empty payload to the
// aggregate, invokes the continuation, and removes the session exactly
// once received reaches expected. A resume against an unknown or
// already-completed session is a dropped no-op.
func (m *AsyncManager) Resume(id uuid.UUID, payload []byte, errCode int32) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return cmn.ErrBadSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return cmn.ErrBadSession
	}
	e.received++
	if len(payload) > 0 {
		e.aggregated = append(e.aggregated, payload)
	}
	ready := e.received == e.expected
	if ready {
		e.done = true
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
	}
	view := View{ID: id, Received: e.received, Expected: e.expected, Aggregated: append([][]byte(nil), e.aggregated...)}
	if e.cont != nil {
		e.cont(payload, errCode, view)
	}
	return nil
}

// Clear drops every pending async session without invoking continuations,
// mirroring SyncManager.Clear's role on shutdown: outstanding fan-ins
// simply never complete once the table is cleared.
func (m *AsyncManager) Clear() {
	m.mu.Lock()
	m.sessions = make(map[uuid.UUID]*asyncEntry)
	m.mu.Unlock()
}

// Len reports the number of outstanding async sessions.
func (m *AsyncManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ReapExpired evicts async sessions older than ttl that never reached
// their expected response count. The original implementation never
// reaped these: a multicast fan-out whose peers partially fail would
// otherwise leak a table entry forever. Reaping discards state, it does
// not retry delivery, so it adds no delivery guarantee of its own.
func (m *AsyncManager) ReapExpired(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	var expired []uuid.UUID

	m.mu.Lock()
	for id, e := range m.sessions {
		if e.created.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	return len(expired)
}
