package caller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/galaxyeye/pioneer/cmn"
	"github.com/galaxyeye/pioneer/connpool"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/session"
	"github.com/galaxyeye/pioneer/transport"
	"github.com/galaxyeye/pioneer/wire"
)

type fakeMulticast struct {
	mu   sync.Mutex
	sent [][]byte
	down bool
}

func (f *fakeMulticast) Send(raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return cmn.ErrBadConnection
	}
	f.sent = append(f.sent, raw)
	return nil
}

func newTestCaller() (*Caller, *connpool.Pool, *fakeMulticast) {
	outward := connpool.New()
	mc := &fakeMulticast{}
	c := &Caller{
		Codec:       wire.NewMsgpCodec(),
		Sessions:    session.New(0),
		Outward:     outward,
		Inward:      connpool.New(),
		Multicast:   mc,
		LocalOrigin: wire.OriginOutward,
	}
	return c, outward, mc
}

func TestFireAndForgetSendsNoSession(t *testing.T) {
	c, pool, _ := newTestCaller()
	conn := transport.NewFakeConn("10.0.0.5:9100")
	pool.Put(conn.Peer(), conn)

	if err := c.CallFireAndForget(wire.OriginOutward, conn.Peer(), 42, wire.Tuple{wire.Int64(1)}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if conn.SentCount() != 1 {
		t.Fatalf("sent count = %d, want 1", conn.SentCount())
	}
	if c.Sessions.Sync.Len() != 0 || c.Sessions.Async.Len() != 0 {
		t.Fatal("fire-and-forget must not create a session")
	}
}

func TestFireAndForgetMissingPeerFails(t *testing.T) {
	c, _, _ := newTestCaller()
	err := c.CallFireAndForget(wire.OriginOutward, "10.9.9.9:9100", 1, nil)
	if cmn.CodeOf(err) != cmn.CodeBadConnection {
		t.Fatalf("got %v, want ErrBadConnection", err)
	}
}

func TestSyncCallResumesOnReply(t *testing.T) {
	c, pool, _ := newTestCaller()
	conn := transport.NewFakeConn("10.0.0.6:9100")
	pool.Put(conn.Peer(), conn)

	resultCh := make(chan rpc.Result, 1)
	go func() {
		res, err := c.CallSync(context.Background(), wire.OriginOutward, conn.Peer(), 42, wire.Tuple{wire.Int64(1)})
		if err != nil {
			t.Errorf("call sync: %v", err)
		}
		resultCh <- res
	}()

	deadline := time.Now().Add(time.Second)
	for c.Sessions.Sync.Len() != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if c.Sessions.Sync.Len() != 1 {
		t.Fatal("sync session never registered")
	}

	raw := conn.Sent[0]
	header := wire.DecodeHeader(raw)
	if err := c.Sessions.Sync.Resume(header.SessionID, rpc.Final([]byte("pong"), 0)); err != nil {
		t.Fatalf("resume: %v", err)
	}

	select {
	case res := <-resultCh:
		if string(res.Data) != "pong" {
			t.Fatalf("got %q, want pong", res.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sync call to return")
	}
}

func TestSyncCallTimesOut(t *testing.T) {
	c, pool, _ := newTestCaller()
	conn := transport.NewFakeConn("10.0.0.7:9100")
	pool.Put(conn.Peer(), conn)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.CallSync(ctx, wire.OriginOutward, conn.Peer(), 42, nil)
	if cmn.CodeOf(err) != cmn.CodeConnectionTimeout {
		t.Fatalf("got %v, want ErrConnectionTimeout", err)
	}
}

func TestMulticastAsyncFanIn(t *testing.T) {
	c, _, mc := newTestCaller()
	var mu sync.Mutex
	var readyAt int32
	done := make(chan struct{})
	_, err := c.CallMulticastAsync(7, nil, 3, func(_ []byte, _ int32, view session.View) {
		mu.Lock()
		defer mu.Unlock()
		if view.Ready() {
			readyAt = view.Received
			close(done)
		}
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(mc.sent) != 1 {
		t.Fatalf("multicast sent %d datagrams, want 1", len(mc.sent))
	}

	raw := mc.sent[0]
	id := wire.DecodeHeader(raw).SessionID
	_ = c.Sessions.Async.Resume(id, []byte("a"), 0)
	_ = c.Sessions.Async.Resume(id, []byte("b"), 0)
	_ = c.Sessions.Async.Resume(id, []byte("c"), 0)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("continuation never observed Ready()")
	}
	mu.Lock()
	defer mu.Unlock()
	if readyAt != 3 {
		t.Fatalf("readyAt = %d, want 3", readyAt)
	}
}

func TestBroadcastIsUnimplemented(t *testing.T) {
	c, _, _ := newTestCaller()
	if err := c.CallBroadcast(1, nil); err != cmn.ErrUnknown {
		t.Fatalf("got %v, want ErrUnknown", err)
	}
}
