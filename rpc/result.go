package rpc

// Result is what a handler, or a dispatcher in the chain, returns.
//
//   - IsFinal tells the dispatcher chain whether routing should stop here;
//     built-in dispatchers always return a final result, intermediate
//     dispatchers in a composed chain may return non-final results that let
//     routing continue (reserved for future composition).
//   - Null() means "no response will be sent": fire-and-forget side effects
//     only. A null Result is final (there's nothing left to route) but
//     carries no payload.
type Result struct {
	IsFinal   bool
	hasData   bool
	Data      []byte
	ErrorCode int32
}

// Final constructs a terminal result carrying a payload and an application
// error code (0 on success).
func Final(data []byte, errCode int32) Result {
	return Result{IsFinal: true, hasData: true, Data: data, ErrorCode: errCode}
}

// Null is the "no response will be sent" result: fire-and-forget handlers
// return this.
func Null() Result { return Result{IsFinal: true, hasData: false} }

// NotMine is returned by a dispatcher in the chain that does not claim the
// frame's fn_id: routing continues to the next dispatcher.
func NotMine() Result { return Result{IsFinal: false, hasData: false} }

// HasPayload reports whether Data/ErrorCode are meaningful, i.e. this is
// not a null (fire-and-forget) result.
func (r Result) HasPayload() bool { return r.hasData }
