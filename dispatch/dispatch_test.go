package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/galaxyeye/pioneer/registry"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/session"
	"github.com/galaxyeye/pioneer/wire"
)

func waitUntil(cond func() bool) {
	deadline := time.Now().Add(time.Second)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

func TestBuiltinResumesSyncSession(t *testing.T) {
	sm := session.NewSyncManager()
	am := session.NewAsyncManager()
	builtin := NewBuiltin(sm, am)
	chain := NewChain(builtin)

	id := uuid.New()
	done := make(chan rpc.Result, 1)
	go func() {
		res, _ := sm.Suspend(context.Background(), id)
		done <- res
	}()

	// give the goroutine a moment to register; deterministic tests would use
	// a signal channel, kept simple here since Suspend registers before
	// blocking and tests run fast in-process.
	waitUntil(func() bool { return sm.Len() == 1 })

	res := chain.Route(wire.FnResumeThread, ResumeBody(id, []byte("10"), 0), rpc.Context{})
	if res.HasPayload() {
		t.Fatalf("resume_thread must return a null result, got %+v", res)
	}

	got := <-done
	if string(got.Data) != "10" {
		t.Fatalf("sync caller got %q, want 10", got.Data)
	}
}

func TestChainFallsThroughToRegistry(t *testing.T) {
	reg := registry.New()
	var gotArg string
	if err := registry.Register1[string](reg, 5, func(s string, _ rpc.Context) rpc.Result {
		gotArg = s
		return rpc.Final([]byte("ok"), 0)
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	sm := session.NewSyncManager()
	am := session.NewAsyncManager()
	chain := NewChain(NewBuiltin(sm, am))
	chain.Register(NewRegistryDispatcher(reg))

	res := chain.Route(5, registry.Arg1("10.0.0.7"), rpc.Context{})
	if !res.IsFinal || string(res.Data) != "ok" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if gotArg != "10.0.0.7" {
		t.Fatalf("handler arg mismatch: %q", gotArg)
	}
}

func TestChainDropsUnclaimedFnID(t *testing.T) {
	sm := session.NewSyncManager()
	am := session.NewAsyncManager()
	chain := NewChain(NewBuiltin(sm, am))

	res := chain.Route(999, wire.Tuple{wire.Nil()}, rpc.Context{})
	if res.IsFinal {
		t.Fatalf("expected a non-final (dropped) result, got %+v", res)
	}
}
