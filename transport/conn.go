// Package transport defines the boundary between this engine and whatever
// TCP reactor library actually owns the sockets: an external collaborator
// exposing send/peer/connected/shutdown plus connect/message/write-complete
// callbacks. This package turns that boundary into a Go interface so the
// rest of the engine compiles and is testable without a real reactor
// wired in.
package transport

// Conn is one established point-to-point TCP connection, inward or
// outward. Implementations are expected to be safe for concurrent use
// from multiple goroutines.
type Conn interface {
	// Peer returns the remote endpoint's "ip:port", the connection-pool key.
	Peer() string

	// Send enqueues raw bytes (an already-framed message) for the peer.
	// It does not block on the write completing.
	Send(raw []byte) error

	// Connected reports whether the connection is still usable.
	Connected() bool

	// Shutdown tears the connection down; idempotent.
	Shutdown()
}

// MessageHandler is invoked by a reactor implementation for every inbound
// frame it delivers, once deframed down to a single message's raw bytes.
type MessageHandler func(peer string, raw []byte)

// ConnectHandler and DisconnectHandler are the lifecycle callbacks a
// reactor implementation drives; netio wires these into the cluster view
// and connection pools.
type ConnectHandler func(conn Conn)
type DisconnectHandler func(peer string)
