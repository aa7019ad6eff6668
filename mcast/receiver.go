// Package mcast implements the multicast endpoint: a receiver that joins
// the configured group and hands whole datagrams to a handler, and a
// singleton sender serialized behind a mutex.
package mcast

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/seiflotfy/cuckoofilter"

	"github.com/galaxyeye/pioneer/nlog"
	"github.com/galaxyeye/pioneer/wire"
)

const (
	rcvBufBytes  = 220 * 1024
	rcvTimeout   = 2 * time.Second
	datagramSize = wire.MaxMulticastFrame
	dedupCapacity = 1 << 16
)

// Handler is invoked for every distinct datagram the receiver accepts.
type Handler func(sourceAddr string, frame *wire.Frame)

// Receiver owns the UDP multicast listening socket and its run loop.
type Receiver struct {
	conn   *net.UDPConn
	dedup  *cuckoofilter.Filter
	stopCh chan struct{}
	doneCh chan struct{}
	ran    atomic.Bool

	// OnDuplicate and OnAccepted, if set, are invoked for every dropped
	// duplicate and every accepted datagram respectively; node wires
	// these to the status package's prometheus counters.
	OnDuplicate func()
	OnAccepted  func()
}

// NewReceiver binds ANY:port and joins group: an ANY:MULTICAST_PORT
// listener with IP_ADD_MEMBERSHIP and SO_REUSEADDR set. Go's
// net.ListenMulticastUDP performs the bind, join and SO_REUSEADDR/PORT
// setup for us; RCVBUF and RCVTIMEO are then layered on top.
func NewReceiver(group net.IP, port int) (*Receiver, error) {
	conn, err := net.ListenMulticastUDP("udp4", nil, &net.UDPAddr{IP: group, Port: port})
	if err != nil {
		return nil, err
	}
	if err := conn.SetReadBuffer(rcvBufBytes); err != nil {
		nlog.Warningf("mcast: set rcvbuf: %v", err)
	}
	cf := cuckoofilter.NewFilter(dedupCapacity)
	return &Receiver{
		conn:   conn,
		dedup:  cf,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Run blocks, delivering decoded frames to handle until Stop is called.
// A 2s read deadline (RCVTIMEO) lets the loop notice Stop without relying
// on signal delivery; EAGAIN/EWOULDBLOCK equivalents are not logged, any
// other read error is logged and the loop continues.
func (r *Receiver) Run(handle Handler) {
	r.ran.Store(true)
	defer close(r.doneCh)
	buf := make([]byte, datagramSize)
	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		if err := r.conn.SetReadDeadline(time.Now().Add(rcvTimeout)); err != nil {
			nlog.Warningf("mcast: set read deadline: %v", err)
		}
		n, addr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-r.stopCh:
				return
			default:
			}
			nlog.Warningf("mcast: recv: %v", err)
			continue
		}

		datagram := buf[:n]
		if r.dedup.Lookup(datagram) {
			if r.OnDuplicate != nil {
				r.OnDuplicate()
			}
			continue
		}
		r.dedup.InsertUnique(datagram)
		if r.OnAccepted != nil {
			r.OnAccepted()
		}

		frame, err := wire.DecodeDatagram(datagram)
		if err != nil {
			nlog.Warningf("mcast: malformed datagram from %s: %v", addr, err)
			continue
		}
		handle(addr.String(), frame)
	}
}

// Stop closes the socket; the run loop exits on its next deadline tick or
// read return. If Run has been started, Stop waits for it to return.
func (r *Receiver) Stop() {
	close(r.stopCh)
	_ = r.conn.Close()
	if r.ran.Load() {
		<-r.doneCh
	}
}
