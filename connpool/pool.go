// Package connpool is the per-direction `ip:port -> connection` table: one
// live entry per key, with put/take/random_take/erase semantics. It
// shards its backing maps by key hash to cut lock contention when many
// peers churn connections concurrently.
package connpool

import (
	"math/rand"
	"sync"

	"github.com/OneOfOne/xxhash"

	"github.com/galaxyeye/pioneer/transport"
)

const shardCount = 32

type shard struct {
	mu    sync.RWMutex
	conns map[string]transport.Conn
}

// Pool is a single direction's connection table (inward or outward are two
// independent Pool instances; the directions are always kept disjoint).
type Pool struct {
	shards [shardCount]*shard
}

func New() *Pool {
	p := &Pool{}
	for i := range p.shards {
		p.shards[i] = &shard{conns: make(map[string]transport.Conn)}
	}
	return p
}

func (p *Pool) shardFor(key string) *shard {
	h := xxhash.Checksum64S([]byte(key), 0)
	return p.shards[h%uint64(shardCount)]
}

// Put installs conn under key, replacing and returning whatever connection
// previously lived there: a key holds at most one live entry, and the
// caller is responsible for shutting down the displaced connection.
func (p *Pool) Put(key string, conn transport.Conn) (prev transport.Conn, existed bool) {
	s := p.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed = s.conns[key]
	s.conns[key] = conn
	return prev, existed
}

// Take returns and removes the connection at key, if any.
func (p *Pool) Take(key string) (transport.Conn, bool) {
	s := p.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[key]
	if ok {
		delete(s.conns, key)
	}
	return c, ok
}

// Get returns the connection at key without removing it.
func (p *Pool) Get(key string) (transport.Conn, bool) {
	s := p.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[key]
	return c, ok
}

// RandomTake removes and returns one arbitrary connection, used by the
// random-peer caller façade. ok is false iff the pool is empty.
func (p *Pool) RandomTake() (key string, conn transport.Conn, ok bool) {
	order := rand.Perm(shardCount)
	for _, idx := range order {
		s := p.shards[idx]
		s.mu.Lock()
		for k, c := range s.conns {
			delete(s.conns, k)
			s.mu.Unlock()
			return k, c, true
		}
		s.mu.Unlock()
	}
	return "", nil, false
}

// Erase removes key's connection without returning it; a no-op if absent.
func (p *Pool) Erase(key string) {
	s := p.shardFor(key)
	s.mu.Lock()
	delete(s.conns, key)
	s.mu.Unlock()
}

// Size returns the total number of live connections across all shards.
func (p *Pool) Size() int {
	n := 0
	for _, s := range p.shards {
		s.mu.RLock()
		n += len(s.conns)
		s.mu.RUnlock()
	}
	return n
}

func (p *Pool) Empty() bool { return p.Size() == 0 }

// Clear drains the pool and invokes shutdown on every connection it held.
func (p *Pool) Clear() {
	for _, s := range p.shards {
		s.mu.Lock()
		conns := s.conns
		s.conns = make(map[string]transport.Conn)
		s.mu.Unlock()
		for _, c := range conns {
			c.Shutdown()
		}
	}
}

// Keys returns a snapshot of every key currently held, for callers that
// iterate the pool (e.g. inward.Pool's disconnect-all and refresh-all).
func (p *Pool) Keys() []string {
	keys := make([]string, 0, p.Size())
	for _, s := range p.shards {
		s.mu.RLock()
		for k := range s.conns {
			keys = append(keys, k)
		}
		s.mu.RUnlock()
	}
	return keys
}
