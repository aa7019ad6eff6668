package dispatch

import (
	"github.com/galaxyeye/pioneer/nlog"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/wire"
)

// Replier sends a reply frame back over a point-to-point client of the
// same direction as the caller. Implemented by package netio on top of
// the connection pools.
type Replier interface {
	Reply(origin rpc.ClientKind, source string, raw []byte) error
}

// Engine is the glue that, after the chain produces a non-null final
// result, builds and sends the resume_thread/resume_task reply frame for
// sync and async_with_callback calls; fire-and-forget calls never get a
// reply, by construction.
type Engine struct {
	chain    *Chain
	codec    wire.Codec
	compress bool
}

func NewEngine(chain *Chain, codec wire.Codec, compress bool) *Engine {
	return &Engine{chain: chain, codec: codec, compress: compress}
}

// HandleFrame decodes, routes, and (if warranted) replies to one decoded
// frame. It never returns an error to the caller: parse/handler failures
// are logged and the frame is dropped, so a bad frame never crashes the
// process.
func (e *Engine) HandleFrame(frame *wire.Frame, origin rpc.ClientKind, source string, replier Replier) {
	ctx := rpc.Context{Origin: origin, SessionID: frame.Header.SessionID, Source: source}

	body, err := wire.DecodeBody(e.codec, frame.Body)
	if err != nil {
		nlog.Warningf("dispatch: bad body from %s (fn_id=%d): %v", source, frame.Header.FnID, err)
		return
	}

	res := e.chain.Route(frame.Header.FnID, body, ctx)
	if !res.IsFinal || !res.HasPayload() {
		return
	}

	var replyFnID int32
	switch frame.Header.ReturnMode {
	case wire.Sync:
		replyFnID = wire.FnResumeThread
	case wire.AsyncWithCallback:
		replyFnID = wire.FnResumeTask
	default:
		return // async_fire_and_forget: no reply frame, ever
	}

	bd := wire.Builder{
		FnID:              replyFnID,
		ReturnMode:        wire.AsyncFireAndForget,
		Origin:            wire.Origin(origin),
		SessionID:         frame.Header.SessionID,
		ExpectedResponses: 1,
		Compress:          e.compress,
	}
	raw, err := bd.Encode(e.codec, ResumeBody(frame.Header.SessionID, res.Data, res.ErrorCode))
	if err != nil {
		nlog.Errorf("dispatch: encode reply for session %s: %v", frame.Header.SessionID, err)
		return
	}
	if err := replier.Reply(origin, source, raw); err != nil {
		nlog.Warningf("dispatch: reply to %s for session %s: %v", source, frame.Header.SessionID, err)
	}
}
