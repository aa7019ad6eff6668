package mcast

import (
	"net"
	"sync"

	"github.com/galaxyeye/pioneer/cmn"
	"github.com/galaxyeye/pioneer/wire"
)

const sndBufBytes = 220 * 1024

// Sender is the multicast send-side singleton: one UDP socket,
// pre-resolved to group:port, with sends serialized by a mutex so
// concurrent callers never race on Write against a concurrent Stop/Close.
type Sender struct {
	mu     sync.Mutex
	conn   *net.UDPConn
	closed bool
}

func NewSender(group net.IP, port int) (*Sender, error) {
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: group, Port: port})
	if err != nil {
		return nil, err
	}
	if err := conn.SetWriteBuffer(sndBufBytes); err != nil {
		// best-effort; a failed SNDBUF resize is not fatal
		_ = err
	}
	return &Sender{conn: conn}, nil
}

// Send writes one datagram. A single UDP write is atomic, so the mutex
// here only protects the fd against a concurrent Stop. A frame larger than
// wire.MaxMulticastFrame is rejected with ErrBadRequest and not sent.
func (s *Sender) Send(raw []byte) error {
	if len(raw) > wire.MaxMulticastFrame {
		return cmn.ErrBadRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return cmn.ErrBadConnection
	}
	_, err := s.conn.Write(raw)
	return err
}

// Stop closes the socket; subsequent Send calls return ErrBadConnection.
func (s *Sender) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.conn.Close()
}
