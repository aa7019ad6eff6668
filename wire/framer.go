package wire

import (
	"encoding/binary"

	"github.com/galaxyeye/pioneer/cmn"
)

// StreamFramer delimits whole frames out of a TCP byte stream: buffer until
// readable >= 4 to learn Length, then until readable >= Length; never
// consume on "need more". Fed arbitrary byte chunks, it must reproduce the
// same frame sequence as if fed the whole stream at once — the only state
// is the pending byte slice, so interleaving Feed calls differently cannot
// change the frames it yields.
type StreamFramer struct {
	buf []byte
}

// Feed appends newly-read bytes to the pending buffer.
func (f *StreamFramer) Feed(data []byte) {
	f.buf = append(f.buf, data...)
}

// Next extracts one whole frame if available. ok is false when more bytes
// are needed; err is non-nil when the buffered length prefix is impossibly
// small (smaller than HeaderSize) — in that case the framer cannot locate
// the next frame boundary and drops everything buffered so far, so the
// connection stays open past one malformed frame.
func (f *StreamFramer) Next() (frame *Frame, ok bool, err error) {
	if len(f.buf) < 4 {
		return nil, false, nil
	}
	length := int32(binary.LittleEndian.Uint32(f.buf[0:4]))
	if length < HeaderSize {
		f.buf = nil
		return nil, false, cmn.ErrBadRequest
	}
	if int32(len(f.buf)) < length {
		return nil, false, nil
	}
	raw := f.buf[:length]
	h := DecodeHeader(raw)
	body := append([]byte(nil), raw[HeaderSize:length]...)
	f.buf = f.buf[length:]
	return &Frame{Header: h, Body: body}, true, nil
}

// Drain repeatedly calls Next, invoking onFrame for each whole frame and
// onError for a malformed length prefix, until no more whole frames remain.
func (f *StreamFramer) Drain(onFrame func(*Frame), onError func(error)) {
	for {
		fr, ok, err := f.Next()
		if err != nil {
			onError(err)
			return
		}
		if !ok {
			return
		}
		onFrame(fr)
	}
}

// DecodeDatagram treats buf as exactly one atomic multicast frame: no
// "need more" state exists for UDP, a short or truncated datagram is
// simply malformed.
func DecodeDatagram(buf []byte) (*Frame, error) {
	if len(buf) < HeaderSize {
		return nil, cmn.ErrBadRequest
	}
	h := DecodeHeader(buf)
	if int(h.Length) != len(buf) {
		return nil, cmn.ErrBadRequest
	}
	body := append([]byte(nil), buf[HeaderSize:]...)
	return &Frame{Header: h, Body: body}, nil
}
