// Package netio is the net-handler glue: it turns the three reactor
// callbacks (on_connect, on_message, on_disconnect) into mutations of the
// connection pools and cluster view, and schedules dispatch onto the
// worker pool so handlers never run on a reactor thread.
package netio

import (
	"strings"
	"sync"

	"github.com/galaxyeye/pioneer/cluster"
	"github.com/galaxyeye/pioneer/cmn"
	"github.com/galaxyeye/pioneer/connpool"
	"github.com/galaxyeye/pioneer/dispatch"
	"github.com/galaxyeye/pioneer/nlog"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/status"
	"github.com/galaxyeye/pioneer/transport"
	"github.com/galaxyeye/pioneer/wire"
)

// Scheduler is the narrow slice of workerpool.Pool this package needs.
type Scheduler interface {
	Schedule(f func()) error
}

// Handlers wires one direction (inward or outward) of TCP traffic into the
// engine: connection-pool bookkeeping, cluster-view mutation, counters,
// and scheduled dispatch.
type Handlers struct {
	Origin   rpc.ClientKind
	Pool     *connpool.Pool
	View     *cluster.View
	Engine   *dispatch.Engine
	Worker   Scheduler
	Counters *status.Counters

	framersMu sync.Mutex
	framers   map[string]*wire.StreamFramer
}

func New(origin rpc.ClientKind, pool *connpool.Pool, view *cluster.View, engine *dispatch.Engine, worker Scheduler, counters *status.Counters) *Handlers {
	return &Handlers{
		Origin:   origin,
		Pool:     pool,
		View:     view,
		Engine:   engine,
		Worker:   worker,
		Counters: counters,
		framers:  make(map[string]*wire.StreamFramer),
	}
}

// OnConnect installs conn into the pool keyed by its peer address, records
// the peer in the cluster view, and updates the live-connection gauge.
func (h *Handlers) OnConnect(conn transport.Conn) {
	peer := conn.Peer()
	if prev, existed := h.Pool.Put(peer, conn); existed {
		prev.Shutdown()
	}
	h.addToView(peer)
	h.updateGauge()
}

// OnDisconnect erases the peer's pool entry and cluster-view membership
// and updates the live-connection gauge. It does not signal inward.Pool:
// inward.Pool.Stop waits for its own control loop to disconnect every
// client, not for disconnect events delivered here.
func (h *Handlers) OnDisconnect(peer string) {
	h.Pool.Erase(peer)
	h.removeFromView(peer)
	h.updateGauge()
}

// OnMessage is the TCP on_message callback: feed the framer, drain every
// whole frame, and schedule dispatch of each onto the worker pool. A
// malformed length prefix is logged and the stream's framer state is
// reset by StreamFramer itself; the connection stays open.
func (h *Handlers) OnMessage(conn transport.Conn, data []byte) {
	peer := conn.Peer()
	h.framersMu.Lock()
	framer, ok := h.framers[peer]
	if !ok {
		framer = &wire.StreamFramer{}
		h.framers[peer] = framer
	}
	h.framersMu.Unlock()

	framer.Feed(data)
	framer.Drain(
		func(frame *wire.Frame) {
			f := frame
			if err := h.Worker.Schedule(func() {
				h.Engine.HandleFrame(f, h.Origin, peer, replierFor(h.Pool))
			}); err != nil {
				nlog.Warningf("netio: schedule dispatch for %s: %v", peer, err)
			}
		},
		func(err error) {
			if h.Counters != nil {
				h.Counters.FramesDropped.Inc()
			}
			nlog.Warningf("netio: malformed frame from %s: %v", peer, err)
		},
	)
}

func (h *Handlers) addToView(peer string) {
	ip := ipOf(peer)
	if h.Origin == rpc.InwardClient {
		h.View.AddInward(ip)
	} else {
		h.View.AddOutward(ip)
	}
}

func (h *Handlers) removeFromView(peer string) {
	ip := ipOf(peer)
	if h.Origin == rpc.InwardClient {
		h.View.RemoveInward(ip)
	} else {
		h.View.RemoveOutward(ip)
	}
	h.framersMu.Lock()
	delete(h.framers, peer)
	h.framersMu.Unlock()
}

func (h *Handlers) updateGauge() {
	if h.Counters == nil {
		return
	}
	if h.Origin == rpc.InwardClient {
		h.Counters.InwardConnections.Set(float64(h.Pool.Size()))
	} else {
		h.Counters.OutwardConnections.Set(float64(h.Pool.Size()))
	}
}

func ipOf(peer string) string {
	if i := strings.LastIndexByte(peer, ':'); i >= 0 {
		return peer[:i]
	}
	return peer
}

// replier adapts a connpool.Pool into dispatch.Replier: reply frames go
// back out the same direction's pool they arrived on.
type replier struct {
	pool *connpool.Pool
}

func replierFor(pool *connpool.Pool) dispatch.Replier { return replier{pool: pool} }

func (r replier) Reply(_ rpc.ClientKind, source string, raw []byte) error {
	conn, ok := r.pool.Get(source)
	if !ok {
		return cmn.ErrBadConnection
	}
	return conn.Send(raw)
}
