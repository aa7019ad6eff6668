// Package rpc holds the few types shared by every layer of the engine
// (registry, dispatch, session, caller) without creating import cycles
// between them: the call Context and the handler Result.
package rpc

import "github.com/google/uuid"

// ClientKind mirrors wire.Origin but lives here so handler code never needs
// to import the wire package just to inspect where a call came from.
type ClientKind int32

const (
	OutwardClient ClientKind = 1 << iota
	InwardClient
)

// Context is populated by the dispatcher on the callee side before a
// handler runs; the caller always sends a nil sentinel for this slot and
// the adapter overrides it.
type Context struct {
	Origin    ClientKind
	SessionID uuid.UUID
	// Source is the peer ip:port the frame arrived from. For multicast
	// frames this is "ip" with no usable port — the reply path goes through
	// the connection pool, never back out the UDP socket.
	Source string
}
