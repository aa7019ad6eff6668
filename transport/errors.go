package transport

import "github.com/pkg/errors"

// ErrNotConnected is returned by Send on a connection that already shut
// down; callers treat it the same as any other bad_connection failure.
var ErrNotConnected = errors.New("transport: not connected")
