package netio

import (
	"testing"
	"time"

	"github.com/galaxyeye/pioneer/cluster"
	"github.com/galaxyeye/pioneer/connpool"
	"github.com/galaxyeye/pioneer/dispatch"
	"github.com/galaxyeye/pioneer/registry"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/session"
	"github.com/galaxyeye/pioneer/status"
	"github.com/galaxyeye/pioneer/transport"
	"github.com/galaxyeye/pioneer/wire"
)

type inlineScheduler struct{}

func (inlineScheduler) Schedule(f func()) error { f(); return nil }

func newTestHandlers(t *testing.T) (*Handlers, *connpool.Pool, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	sm := session.NewSyncManager()
	am := session.NewAsyncManager()
	chain := dispatch.NewChain(dispatch.NewBuiltin(sm, am))
	chain.Register(dispatch.NewRegistryDispatcher(reg))
	engine := dispatch.NewEngine(chain, wire.NewMsgpCodec(), false)

	pool := connpool.New()
	view := cluster.New("10.0.0.1")
	counters := status.New()
	h := New(rpc.OutwardClient, pool, view, engine, inlineScheduler{}, counters)
	return h, pool, reg
}

func TestOnConnectRegistersInPoolAndView(t *testing.T) {
	h, pool, _ := newTestHandlers(t)
	conn := transport.NewFakeConn("10.0.0.9:9100")
	h.OnConnect(conn)

	if pool.Size() != 1 {
		t.Fatalf("pool size = %d, want 1", pool.Size())
	}
	if h.View.OutwardCount() != 1 {
		t.Fatalf("outward count = %d, want 1", h.View.OutwardCount())
	}
}

func TestOnDisconnectRemovesFromPoolAndView(t *testing.T) {
	h, pool, _ := newTestHandlers(t)
	conn := transport.NewFakeConn("10.0.0.9:9100")
	h.OnConnect(conn)
	h.OnDisconnect(conn.Peer())

	if !pool.Empty() {
		t.Fatal("pool should be empty after disconnect")
	}
	if h.View.OutwardCount() != 0 {
		t.Fatal("view should have no outward peers after disconnect")
	}
}

func TestOnMessageDispatchesCompleteFrame(t *testing.T) {
	h, pool, reg := newTestHandlers(t)
	gotCh := make(chan string, 1)
	if err := registry.Register1[string](reg, 9, func(s string, _ rpc.Context) rpc.Result {
		gotCh <- s
		return rpc.Null()
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	conn := transport.NewFakeConn("10.0.0.9:9100")
	h.OnConnect(conn)

	bd := wire.Builder{FnID: 9, ReturnMode: wire.AsyncFireAndForget, Origin: wire.OriginOutward}
	raw, err := bd.Encode(wire.NewMsgpCodec(), registry.Arg1("payload"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	h.OnMessage(conn, raw)

	select {
	case got := <-gotCh:
		if got != "payload" {
			t.Fatalf("handler got %q, want payload", got)
		}
	case <-time.After(time.Second):
		t.Fatal("handler never invoked")
	}
	_ = pool
}

func TestOnMessageHandlesSplitFrame(t *testing.T) {
	h, _, reg := newTestHandlers(t)
	gotCh := make(chan string, 1)
	if err := registry.Register1[string](reg, 9, func(s string, _ rpc.Context) rpc.Result {
		gotCh <- s
		return rpc.Null()
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	conn := transport.NewFakeConn("10.0.0.9:9100")
	h.OnConnect(conn)

	bd := wire.Builder{FnID: 9, ReturnMode: wire.AsyncFireAndForget, Origin: wire.OriginOutward}
	raw, err := bd.Encode(wire.NewMsgpCodec(), registry.Arg1("payload"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	mid := len(raw) / 2
	h.OnMessage(conn, raw[:mid])
	h.OnMessage(conn, raw[mid:])

	select {
	case got := <-gotCh:
		if got != "payload" {
			t.Fatalf("handler got %q, want payload", got)
		}
	case <-time.After(time.Second):
		t.Fatal("handler never invoked after split frame")
	}
}
