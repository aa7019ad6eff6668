// Package caller implements the remote-caller façades: each façade picks
// a destination (point-to-point, random peer, or multicast) and layers
// one of three call styles (fire-and-forget, async-with-continuation,
// sync) on a shared build-frame + register-session + send skeleton.
package caller

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/galaxyeye/pioneer/cmn"
	"github.com/galaxyeye/pioneer/connpool"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/session"
	"github.com/galaxyeye/pioneer/wire"
)

// DefaultSyncTimeout bounds a sync call's blocking wait absent an explicit
// context deadline from the caller.
const DefaultSyncTimeout = 10 * time.Second

// MulticastSender is the narrow slice of *mcast.Sender the multicast
// façade needs; tests substitute a fake so they don't need a real socket.
type MulticastSender interface {
	Send(raw []byte) error
}

// Caller bundles everything a façade needs to build, register and send a
// call: the codec, the session tables, the two direction-specific
// connection pools, and the multicast sender.
type Caller struct {
	Codec       wire.Codec
	Sessions    *session.Manager
	Outward     *connpool.Pool
	Inward      *connpool.Pool
	Multicast   MulticastSender
	Compress    bool
	LocalOrigin wire.Origin

	// SyncTimeout bounds a sync call's blocking wait absent an explicit
	// context deadline from the caller. Zero falls back to DefaultSyncTimeout.
	SyncTimeout time.Duration
}

func (c *Caller) syncTimeout() time.Duration {
	if c.SyncTimeout > 0 {
		return c.SyncTimeout
	}
	return DefaultSyncTimeout
}

func poolFor(c *Caller, origin wire.Origin) *connpool.Pool {
	if origin == wire.OriginInward {
		return c.Inward
	}
	return c.Outward
}

func (c *Caller) build(fnID int32, mode wire.ReturnMode, sessionID uuid.UUID, expected int32, args wire.Tuple) ([]byte, error) {
	bd := wire.Builder{
		FnID:              fnID,
		ReturnMode:        mode,
		Origin:            c.LocalOrigin,
		SessionID:         sessionID,
		ExpectedResponses: expected,
		Compress:          c.Compress,
	}
	return bd.Encode(c.Codec, args)
}

// --- point-to-point ---------------------------------------------------

// CallFireAndForget sends to peer over the connection pool for origin and
// creates no session: no reply is ever expected.
func (c *Caller) CallFireAndForget(origin wire.Origin, peer string, fnID int32, args wire.Tuple) error {
	raw, err := c.build(fnID, wire.AsyncFireAndForget, uuid.UUID{}, 0, args)
	if err != nil {
		return err
	}
	return c.sendToPeer(origin, peer, raw)
}

// CallAsync sends to peer and registers cont to run on each matching
// resume (the async-with-continuation call style).
func (c *Caller) CallAsync(origin wire.Origin, peer string, fnID int32, args wire.Tuple, cont session.Continuation) (uuid.UUID, error) {
	id := uuid.New()
	raw, err := c.build(fnID, wire.AsyncWithCallback, id, 1, args)
	if err != nil {
		return id, err
	}
	if err := c.Sessions.Async.Suspend(id, 1, cont); err != nil {
		return id, err
	}
	if err := c.sendToPeer(origin, peer, raw); err != nil {
		return id, err
	}
	return id, nil
}

// CallSync sends to peer and blocks until the matching resume arrives or
// ctx's deadline elapses.
func (c *Caller) CallSync(ctx context.Context, origin wire.Origin, peer string, fnID int32, args wire.Tuple) (rpc.Result, error) {
	id := uuid.New()
	raw, err := c.build(fnID, wire.Sync, id, 1, args)
	if err != nil {
		return rpc.Result{}, err
	}

	ctx, cancel := c.withSyncTimeout(ctx)
	defer cancel()

	resCh := make(chan struct {
		res rpc.Result
		err error
	}, 1)
	go func() {
		res, err := c.Sessions.Sync.Suspend(ctx, id)
		resCh <- struct {
			res rpc.Result
			err error
		}{res, err}
	}()

	if err := c.sendToPeer(origin, peer, raw); err != nil {
		return rpc.Result{}, err
	}
	out := <-resCh
	return out.res, out.err
}

func (c *Caller) sendToPeer(origin wire.Origin, peer string, raw []byte) error {
	conn, ok := poolFor(c, origin).Get(peer)
	if !ok {
		return cmn.ErrBadConnection
	}
	return conn.Send(raw)
}

// --- random peer --------------------------------------------------------

// CallRandomFireAndForget picks an arbitrary connected peer instead of an
// explicit address.
func (c *Caller) CallRandomFireAndForget(origin wire.Origin, fnID int32, args wire.Tuple) error {
	raw, err := c.build(fnID, wire.AsyncFireAndForget, uuid.UUID{}, 0, args)
	if err != nil {
		return err
	}
	return c.sendToRandomPeer(origin, raw)
}

func (c *Caller) CallRandomSync(ctx context.Context, origin wire.Origin, fnID int32, args wire.Tuple) (rpc.Result, error) {
	pool := poolFor(c, origin)
	peer, conn, ok := pool.RandomTake()
	if !ok {
		return rpc.Result{}, cmn.ErrBadConnection
	}
	pool.Put(peer, conn) // random_take removes; put it right back, this is a lookup not a claim

	id := uuid.New()
	raw, err := c.build(fnID, wire.Sync, id, 1, args)
	if err != nil {
		return rpc.Result{}, err
	}
	ctx, cancel := c.withSyncTimeout(ctx)
	defer cancel()

	resCh := make(chan struct {
		res rpc.Result
		err error
	}, 1)
	go func() {
		res, err := c.Sessions.Sync.Suspend(ctx, id)
		resCh <- struct {
			res rpc.Result
			err error
		}{res, err}
	}()
	if err := conn.Send(raw); err != nil {
		return rpc.Result{}, err
	}
	out := <-resCh
	return out.res, out.err
}

func (c *Caller) sendToRandomPeer(origin wire.Origin, raw []byte) error {
	pool := poolFor(c, origin)
	peer, conn, ok := pool.RandomTake()
	if !ok {
		return cmn.ErrBadConnection
	}
	pool.Put(peer, conn)
	return conn.Send(raw)
}

// --- multicast ------------------------------------------------------------

// CallMulticastFireAndForget broadcasts to the multicast group and creates
// no session.
func (c *Caller) CallMulticastFireAndForget(fnID int32, args wire.Tuple) error {
	raw, err := c.build(fnID, wire.AsyncFireAndForget, uuid.UUID{}, 0, args)
	if err != nil {
		return err
	}
	return c.Multicast.Send(raw)
}

// CallMulticastAsync arms a session expecting expectedResponses replies
// (default 1) and fires one datagram to the group, with cont invoked on
// each arriving reply until the fan-in completes.
func (c *Caller) CallMulticastAsync(fnID int32, args wire.Tuple, expectedResponses int32, cont session.Continuation) (uuid.UUID, error) {
	if expectedResponses < 1 {
		expectedResponses = 1
	}
	id := uuid.New()
	if err := c.Sessions.Async.Suspend(id, expectedResponses, cont); err != nil {
		return id, err
	}
	raw, err := c.build(fnID, wire.AsyncWithCallback, id, expectedResponses, args)
	if err != nil {
		return id, err
	}
	if err := c.Multicast.Send(raw); err != nil {
		return id, err
	}
	return id, nil
}

// --- broadcast --------------------------------------------------------

// CallBroadcast is reserved / not implemented: it always surfaces
// ErrUnknown so callers notice the gap rather than silently no-op'ing.
func (c *Caller) CallBroadcast(int32, wire.Tuple) error {
	return cmn.ErrUnknown
}

func (c *Caller) withSyncTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.syncTimeout())
}
