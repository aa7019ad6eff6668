// Package wire implements the frame header and the stream/datagram framing
// rules: a fixed, packed, host-endian header followed by an archive-encoded
// body.
package wire

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// ReturnMode is the header's return_mode enum.
type ReturnMode int32

const (
	Sync ReturnMode = iota
	AsyncWithCallback
	AsyncFireAndForget
)

// Origin is the header's origin enum; OriginAny is a bitmask of both kinds.
type Origin int32

const (
	OriginOutward Origin = 1 << iota
	OriginInward
)

const OriginAny = OriginOutward | OriginInward

// Reserved built-in function IDs.
const (
	FnResumeThread int32 = -1
	FnResumeTask   int32 = -2
)

// HeaderSize is sizeof(header) on the wire: four i32 fields, a 16-byte UUID,
// and the trailing i32 expected_responses count.
const HeaderSize = 4 + 4 + 4 + 4 + 16 + 4

// Header is the fixed-width record at the start of every frame. This type
// is marshaled with explicit binary.LittleEndian puts rather than unsafe
// struct-copy, since Go offers no portable packed-struct memcpy and the
// wire format is host-endian-only, not cross-architecture portable anyway.
type Header struct {
	Length            int32
	FnID              int32
	ReturnMode        ReturnMode
	Origin            Origin
	SessionID         uuid.UUID
	ExpectedResponses int32
}

// Encode writes the header into buf, which must be at least HeaderSize
// bytes. Length is taken from h.Length as set by the caller (Builder.Encode
// patches it in after the body is serialized).
func (h *Header) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Length))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.FnID))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.ReturnMode))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.Origin))
	copy(buf[16:32], h.SessionID[:])
	binary.LittleEndian.PutUint32(buf[32:36], uint32(h.ExpectedResponses))
}

// DecodeHeader reads a Header from the front of buf; buf must be at least
// HeaderSize bytes (callers check readable length before calling this).
func DecodeHeader(buf []byte) Header {
	var h Header
	h.Length = int32(binary.LittleEndian.Uint32(buf[0:4]))
	h.FnID = int32(binary.LittleEndian.Uint32(buf[4:8]))
	h.ReturnMode = ReturnMode(binary.LittleEndian.Uint32(buf[8:12]))
	h.Origin = Origin(binary.LittleEndian.Uint32(buf[12:16]))
	copy(h.SessionID[:], buf[16:32])
	h.ExpectedResponses = int32(binary.LittleEndian.Uint32(buf[32:36]))
	return h
}
