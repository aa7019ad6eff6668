package wire

import (
	"bytes"
	"io"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v3"

	"github.com/galaxyeye/pioneer/cmn"
)

// MaxMulticastFrame is the default oversize threshold: frames larger than
// this cannot go out over multicast and must use TCP.
const MaxMulticastFrame = 3584 // 3.5 KiB

// Every header field is meaningful, so compression is a framer-level, not
// header-level, concern: the body on the wire always starts with one flag
// byte (flagPlain or flagCompressed) saying whether the rest is LZ4
// compressed. This keeps the packed header byte-for-byte unchanged.
const (
	flagPlain      byte = 0
	flagCompressed byte = 1
)

// Frame is a decoded wire unit: header plus the still-archive-encoded body.
type Frame struct {
	Header Header
	Body   []byte
}

// Builder composes a frame: encode the body first, then patch Length into
// the header before emitting bytes.
type Builder struct {
	FnID              int32
	ReturnMode        ReturnMode
	Origin            Origin
	SessionID         uuid.UUID
	ExpectedResponses int32
	Compress          bool
}

// Encode serializes tuple via codec and returns the full frame bytes.
func (bd Builder) Encode(codec Codec, tuple Tuple) ([]byte, error) {
	body, err := codec.EncodeTuple(tuple)
	if err != nil {
		return nil, cmn.Wrap(err, "encode tuple")
	}
	flag := flagPlain
	if bd.Compress {
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(body); err != nil {
			return nil, cmn.Wrap(err, "lz4 compress")
		}
		if err := w.Close(); err != nil {
			return nil, cmn.Wrap(err, "lz4 compress")
		}
		body = buf.Bytes()
		flag = flagCompressed
	}

	h := Header{
		FnID:              bd.FnID,
		ReturnMode:        bd.ReturnMode,
		Origin:            bd.Origin,
		SessionID:         bd.SessionID,
		ExpectedResponses: bd.ExpectedResponses,
	}
	h.Length = int32(HeaderSize + 1 + len(body))

	out := make([]byte, h.Length)
	h.Encode(out)
	out[HeaderSize] = flag
	copy(out[HeaderSize+1:], body)
	return out, nil
}

// DecodeBody inflates (if needed) and decodes a frame's body into a Tuple.
func DecodeBody(codec Codec, raw []byte) (Tuple, error) {
	if len(raw) < 1 {
		return nil, cmn.ErrBadRequest
	}
	flag, body := raw[0], raw[1:]
	if flag == flagCompressed {
		r := lz4.NewReader(bytes.NewReader(body))
		inflated, err := io.ReadAll(r)
		if err != nil {
			return nil, cmn.Wrap(err, "lz4 decompress")
		}
		body = inflated
	}
	return codec.DecodeTuple(body)
}
