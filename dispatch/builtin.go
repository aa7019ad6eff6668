package dispatch

import (
	"github.com/google/uuid"

	"github.com/galaxyeye/pioneer/cmn"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/session"
	"github.com/galaxyeye/pioneer/wire"
)

// ResumeBody builds the call body a reply frame carries: the completed
// session's id plus its result payload and error code.
func ResumeBody(id uuid.UUID, data []byte, errCode int32) wire.Tuple {
	return wire.Tuple{
		wire.UUIDArg(id),
		wire.Bytes(data),
		wire.Int64(int64(errCode)),
		wire.Nil(),
	}
}

func decodeResumeBody(body wire.Tuple) (id uuid.UUID, data []byte, errCode int32, ok bool) {
	if len(body) < 3 {
		return uuid.UUID{}, nil, 0, false
	}
	if body[0].Kind != wire.KindUUID {
		return uuid.UUID{}, nil, 0, false
	}
	return body[0].UUIDBytes(), body[1].Bytes, int32(body[2].I64), true
}

// Builtin is the always-first dispatcher handling the two reserved
// function IDs: resume_thread (-1, sync table) and resume_task (-2,
// async table). Both are fire-and-forget from the chain's point of
// view — resuming a session never itself produces a reply frame.
type Builtin struct {
	sync  *session.SyncManager
	async *session.AsyncManager
}

func NewBuiltin(sync *session.SyncManager, async *session.AsyncManager) *Builtin {
	return &Builtin{sync: sync, async: async}
}

func (b *Builtin) Dispatch(fnID int32, body wire.Tuple, _ rpc.Context) rpc.Result {
	switch fnID {
	case wire.FnResumeThread:
		id, data, errCode, ok := decodeResumeBody(body)
		if !ok {
			return rpc.Final(nil, int32(cmn.CodeBadRequest))
		}
		_ = b.sync.Resume(id, rpc.Final(data, errCode)) // unknown/late session: dropped, not an error to the peer
		return rpc.Null()
	case wire.FnResumeTask:
		id, data, errCode, ok := decodeResumeBody(body)
		if !ok {
			return rpc.Final(nil, int32(cmn.CodeBadRequest))
		}
		_ = b.async.Resume(id, data, errCode)
		return rpc.Null()
	default:
		return rpc.NotMine()
	}
}
