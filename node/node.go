// Package node wires every component into a single, usable engine value.
// This is a library entry point, not a CLI or process bootstrap — CLI,
// signal handling, and process bootstrap stay out of the engine's scope.
// A real binary imports this package, supplies a transport.Conn-producing
// reactor and a local IP, and drives accept loops itself; node only owns
// wiring and lifecycle.
package node

import (
	"net"

	"github.com/galaxyeye/pioneer/caller"
	"github.com/galaxyeye/pioneer/cluster"
	"github.com/galaxyeye/pioneer/cmn"
	"github.com/galaxyeye/pioneer/config"
	"github.com/galaxyeye/pioneer/connpool"
	"github.com/galaxyeye/pioneer/dispatch"
	"github.com/galaxyeye/pioneer/inward"
	"github.com/galaxyeye/pioneer/mcast"
	"github.com/galaxyeye/pioneer/netio"
	"github.com/galaxyeye/pioneer/registry"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/session"
	"github.com/galaxyeye/pioneer/status"
	"github.com/galaxyeye/pioneer/wire"
	"github.com/galaxyeye/pioneer/workerpool"
)

// Node bundles one process's full complement of engine components: both
// connection-pool directions, the multicast endpoint, the session and
// dispatch layers, the caller façades, and the counters that back the
// out-of-scope status page.
type Node struct {
	Config   *config.Config
	View     *cluster.View
	Registry *registry.Registry
	Sessions *session.Manager
	Worker   *workerpool.Pool
	Counters *status.Counters

	OutwardPool *connpool.Pool
	InwardPool  *connpool.Pool
	InwardDial  *inward.Pool

	McastSender   *mcast.Sender
	McastReceiver *mcast.Receiver

	Chain  *dispatch.Chain
	Engine *dispatch.Engine

	OutwardHandlers *netio.Handlers
	InwardHandlers  *netio.Handlers

	Caller *caller.Caller
}

// New wires the full component graph from cfg. dial is the outward-dialing
// primitive the inward client pool uses; it comes from whatever reactor
// library a real binary links in. localIP is this node's own address.
func New(cfg *config.Config, localIP string, workers int, dial inward.Dialer) (*Node, error) {
	view := cluster.New(localIP)
	reg := registry.New()
	sessions := session.New(cfg.AsyncSessionTTL)
	worker := workerpool.New(workers, 0)
	counters := status.New()

	outwardPool := connpool.New()
	inwardPool := connpool.New()
	inwardDial := inward.New(cfg.InwardPort, dial, inwardPool, view)

	mcastAddr := cfg.McastAddr()
	sender, err := mcast.NewSender(mcastAddr.IP, mcastAddr.Port)
	if err != nil {
		return nil, err
	}
	receiver, err := mcast.NewReceiver(mcastAddr.IP, mcastAddr.Port)
	if err != nil {
		sender.Stop()
		return nil, err
	}
	receiver.OnDuplicate = counters.McastDuplicate.Inc
	receiver.OnAccepted = counters.McastReceived.Inc

	chain := dispatch.NewChain(dispatch.NewBuiltin(sessions.Sync, sessions.Async))
	chain.Register(dispatch.NewRegistryDispatcher(reg))

	codec := codecFor(cfg)
	engine := dispatch.NewEngine(chain, codec, cfg.Compression)

	outwardHandlers := netio.New(rpc.OutwardClient, outwardPool, view, engine, worker, counters)
	inwardHandlers := netio.New(rpc.InwardClient, inwardPool, view, engine, worker, counters)

	c := &caller.Caller{
		Codec:       codec,
		Sessions:    sessions,
		Outward:     outwardPool,
		Inward:      inwardPool,
		Multicast:   sender,
		Compress:    cfg.Compression,
		LocalOrigin: wire.OriginAny,
		SyncTimeout: cfg.CallTimeout,
	}

	return &Node{
		Config:          cfg,
		View:            view,
		Registry:        reg,
		Sessions:        sessions,
		Worker:          worker,
		Counters:        counters,
		OutwardPool:     outwardPool,
		InwardPool:      inwardPool,
		InwardDial:      inwardDial,
		McastSender:     sender,
		McastReceiver:   receiver,
		Chain:           chain,
		Engine:          engine,
		OutwardHandlers: outwardHandlers,
		InwardHandlers:  inwardHandlers,
		Caller:          c,
	}, nil
}

func codecFor(cfg *config.Config) wire.Codec {
	if cfg.DebugArchive {
		return wire.NewJSONCodec()
	}
	return wire.NewMsgpCodec()
}

// RunMulticastReceiver blocks the calling goroutine draining multicast
// datagrams, decoding them into dispatch and, for sync/async_with_callback
// calls, replying over whichever direction's pool holds a connection to
// the sender's IP. The handler context's Source is that IP alone: the UDP
// source port is dropped. Callers typically run this in its own
// goroutine: the multicast receiver owns a dedicated blocking thread.
func (n *Node) RunMulticastReceiver() {
	n.McastReceiver.Run(func(sourceAddr string, frame *wire.Frame) {
		f := frame
		source := sourceAddr
		if host, _, err := net.SplitHostPort(sourceAddr); err == nil {
			source = host
		}
		if err := n.Worker.Schedule(func() {
			n.Engine.HandleFrame(f, rpc.ClientKind(wire.OriginAny), source, mcastReplier{n})
		}); err != nil {
			return
		}
	})
}

// mcastReplier answers a multicast-originated sync/async_with_callback
// call by looking for a connection to the source IP in both connection-pool
// directions (outward first), since a multicast sender may be either an
// inward or an outward peer. If neither pool holds one, the reply is
// dropped.
type mcastReplier struct{ n *Node }

func (r mcastReplier) Reply(_ rpc.ClientKind, source string, raw []byte) error {
	for _, pool := range []*connpool.Pool{r.n.OutwardPool, r.n.InwardPool} {
		for _, key := range pool.Keys() {
			if host, _, err := net.SplitHostPort(key); err != nil || host != source {
				continue
			}
			if conn, ok := pool.Get(key); ok {
				return conn.Send(raw)
			}
		}
	}
	return nil
}

// Stop shuts every owned component down: the inward client pool drains
// gracefully (the 30s deadline lives inside inward.Pool.Stop), the
// multicast endpoints close, outstanding sessions are cancelled, and the
// worker pool finishes whatever it's already running.
func (n *Node) Stop() {
	n.View.SetQuitting()
	_ = n.InwardDial.Stop()
	n.McastReceiver.Stop()
	n.McastSender.Stop()
	n.OutwardPool.Clear()
	n.InwardPool.Clear()
	n.Sessions.Stop(cmn.ErrShuttingDown)
	n.Worker.Clear()
}
