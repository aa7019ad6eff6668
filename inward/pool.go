// Package inward is the TCP client pool: it owns one dial-and-keep-alive
// client per configured remote peer and serializes connect/disconnect/
// refresh through a dedicated control loop: a single goroutine owns the
// mutation, everyone else sends it work.
package inward

import (
	"strconv"
	"time"

	"github.com/galaxyeye/pioneer/cluster"
	"github.com/galaxyeye/pioneer/cmn"
	"github.com/galaxyeye/pioneer/connpool"
	"github.com/galaxyeye/pioneer/nlog"
	"github.com/galaxyeye/pioneer/transport"
)

// Dialer dials out to a cluster peer and returns the resulting connection.
// The traffic it carries is classified as inward (intra-cluster) regardless
// of which side initiated the dial. The real implementation lives in
// whatever reactor library is wired in; tests supply a fake.
type Dialer func(ip string, port int) (transport.Conn, error)

const drainTimeout = 30 * time.Second

type cmdKind int

const (
	cmdConnect cmdKind = iota
	cmdDisconnect
	cmdRefresh
	cmdDisconnectAll
	cmdRefreshAll
	cmdStop
)

type command struct {
	kind cmdKind
	ip   string
	done chan struct{}
}

// Pool is the TCP client pool. All mutating operations funnel through a
// single control-loop goroutine, dispatched to a dedicated goroutine
// rather than run on whatever caller goroutine invoked them.
type Pool struct {
	port   int
	dial   Dialer
	conns  *connpool.Pool
	view   *cluster.View

	cmds    chan command
	stopped chan struct{}
}

func New(port int, dial Dialer, conns *connpool.Pool, view *cluster.View) *Pool {
	p := &Pool{
		port:    port,
		dial:    dial,
		conns:   conns,
		view:    view,
		cmds:    make(chan command, 64),
		stopped: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Pool) run() {
	for cmd := range p.cmds {
		switch cmd.kind {
		case cmdConnect:
			p.doConnect(cmd.ip)
		case cmdDisconnect:
			p.doDisconnect(cmd.ip)
		case cmdRefresh:
			p.doDisconnect(cmd.ip)
			p.doConnect(cmd.ip)
		case cmdDisconnectAll:
			for _, key := range p.conns.Keys() {
				p.doDisconnect(ipFromKey(key))
			}
		case cmdRefreshAll:
			for _, key := range p.conns.Keys() {
				ip := ipFromKey(key)
				p.doDisconnect(ip)
				p.doConnect(ip)
			}
		case cmdStop:
			for _, key := range p.conns.Keys() {
				p.doDisconnect(ipFromKey(key))
			}
			close(p.stopped)
			if cmd.done != nil {
				close(cmd.done)
			}
			return
		}
		if cmd.done != nil {
			close(cmd.done)
		}
	}
}

func (p *Pool) doConnect(ip string) {
	conn, err := p.dial(ip, p.port)
	if err != nil {
		nlog.Warningf("inward: dial %s:%d: %v", ip, p.port, err)
		return
	}
	if prev, existed := p.conns.Put(conn.Peer(), conn); existed {
		prev.Shutdown()
	}
	p.view.AddInward(ip)
}

func (p *Pool) doDisconnect(ip string) {
	key := keyFor(ip, p.port)
	if conn, ok := p.conns.Take(key); ok {
		conn.Shutdown()
	}
	p.view.RemoveInward(ip)
}

// Connect dials ip asynchronously via the control loop; it does not block
// on the dial completing.
func (p *Pool) Connect(ip string) { p.enqueue(command{kind: cmdConnect, ip: ip}) }

func (p *Pool) Disconnect(ip string) { p.enqueue(command{kind: cmdDisconnect, ip: ip}) }

func (p *Pool) Refresh(ip string) { p.enqueue(command{kind: cmdRefresh, ip: ip}) }

func (p *Pool) DisconnectAll() { p.enqueueWait(command{kind: cmdDisconnectAll}) }

func (p *Pool) RefreshAll() { p.enqueueWait(command{kind: cmdRefreshAll}) }

// Stop initiates graceful shutdown: disconnect all, wait up to 30s for the
// connection pool to drain, then force-clear whatever remains.
func (p *Pool) Stop() error {
	done := make(chan struct{})
	select {
	case p.cmds <- command{kind: cmdStop, done: done}:
	default:
		return cmn.ErrShuttingDown
	}

	deadline := time.NewTimer(drainTimeout)
	defer deadline.Stop()
	select {
	case <-done:
	case <-deadline.C:
		nlog.Warningf("inward: stop did not drain within %s, force-clearing", drainTimeout)
	}
	p.conns.Clear()
	return nil
}

func (p *Pool) enqueue(cmd command) {
	select {
	case p.cmds <- cmd:
	case <-p.stopped:
	}
}

func (p *Pool) enqueueWait(cmd command) {
	cmd.done = make(chan struct{})
	select {
	case p.cmds <- cmd:
		<-cmd.done
	case <-p.stopped:
	}
}

func keyFor(ip string, port int) string {
	return ip + ":" + strconv.Itoa(port)
}

func ipFromKey(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
