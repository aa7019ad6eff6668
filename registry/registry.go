// Package registry is the function registry: a startup-time mapping from
// stable numeric fn_id to a typed adapter that decodes the call body,
// overrides the trailing context slot, invokes the Go handler, and
// returns its Result.
//
// Go has no variadic templates; instead of code generation from an IDL we
// use small generics (RegisterN) over a closed set of wire-native Go
// types, an idiomatic middle ground between generics and code generation.
package registry

import (
	"sync"

	"github.com/galaxyeye/pioneer/cmn"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/wire"
)

// Adapter decodes a call body, injects ctx into the trailing slot, and
// invokes the underlying handler.
type Adapter interface {
	FnID() int32
	Invoke(body wire.Tuple, ctx rpc.Context) rpc.Result
}

// Registry maps fn_id to Adapter. Zero value is ready to use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[int32]Adapter
}

func New() *Registry { return &Registry{adapters: make(map[int32]Adapter)} }

// register rejects duplicate IDs.
func (r *Registry) register(fnID int32, a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.adapters == nil {
		r.adapters = make(map[int32]Adapter)
	}
	if _, dup := r.adapters[fnID]; dup {
		return cmn.NewError(cmn.CodeBadRequest, "duplicate fn_id %d", fnID)
	}
	r.adapters[fnID] = a
	return nil
}

// Lookup returns the adapter for fnID, or (nil, false) if unregistered.
func (r *Registry) Lookup(fnID int32) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[fnID]
	return a, ok
}

// Native is the closed set of Go types a handler argument can have; each
// maps to one wire.Kind (KindNil and KindUUID have no Native counterpart).
type Native interface {
	string | int64 | float64 | bool | []byte | []string | []int64
}

func toArg[T Native](v T) wire.Arg {
	switch x := any(v).(type) {
	case string:
		return wire.String(x)
	case int64:
		return wire.Int64(x)
	case float64:
		return wire.Float64(x)
	case bool:
		return wire.Bool(x)
	case []byte:
		return wire.Bytes(x)
	case []string:
		return wire.StringSlice(x)
	case []int64:
		return wire.Int64Slice(x)
	default:
		panic("registry: unreachable native type")
	}
}

func fromArg[T Native](a wire.Arg) (T, error) {
	var zero T
	switch any(zero).(type) {
	case string:
		if a.Kind != wire.KindString {
			return zero, cmn.ErrBadRequest
		}
		return any(a.Str).(T), nil
	case int64:
		if a.Kind != wire.KindInt64 {
			return zero, cmn.ErrBadRequest
		}
		return any(a.I64).(T), nil
	case float64:
		if a.Kind != wire.KindFloat64 {
			return zero, cmn.ErrBadRequest
		}
		return any(a.F64).(T), nil
	case bool:
		if a.Kind != wire.KindBool {
			return zero, cmn.ErrBadRequest
		}
		return any(a.B).(T), nil
	case []byte:
		if a.Kind != wire.KindBytes {
			return zero, cmn.ErrBadRequest
		}
		return any(a.Bytes).(T), nil
	case []string:
		if a.Kind != wire.KindStringSlice {
			return zero, cmn.ErrBadRequest
		}
		return any(a.Strs).(T), nil
	case []int64:
		if a.Kind != wire.KindInt64Slice {
			return zero, cmn.ErrBadRequest
		}
		return any(a.I64s).(T), nil
	default:
		return zero, cmn.ErrBadRequest
	}
}

// BuildArgs is the caller-side counterpart: turns typed arguments into the
// Tuple a remote-caller facade sends, appending the nil context sentinel
// that the callee-side adapter overrides before invoking the handler.
func BuildArgs(args ...wire.Arg) wire.Tuple {
	return append(append(wire.Tuple{}, args...), wire.Nil())
}

type adapter1[A Native] struct {
	fnID int32
	fn   func(A, rpc.Context) rpc.Result
}

func (a adapter1[A]) FnID() int32 { return a.fnID }

func (a adapter1[A]) Invoke(body wire.Tuple, ctx rpc.Context) rpc.Result {
	if len(body) != 2 {
		return rpc.Final(nil, int32(cmn.CodeBadRequest))
	}
	v, err := fromArg[A](body[0])
	if err != nil {
		return rpc.Final(nil, int32(cmn.CodeBadRequest))
	}
	return a.fn(v, ctx)
}

// Register1 registers a one-argument handler (plus the implicit trailing
// context slot).
func Register1[A Native](r *Registry, fnID int32, fn func(A, rpc.Context) rpc.Result) error {
	return r.register(fnID, adapter1[A]{fnID: fnID, fn: fn})
}

type adapter2[A, B Native] struct {
	fnID int32
	fn   func(A, B, rpc.Context) rpc.Result
}

func (a adapter2[A, B]) FnID() int32 { return a.fnID }

func (a adapter2[A, B]) Invoke(body wire.Tuple, ctx rpc.Context) rpc.Result {
	if len(body) != 3 {
		return rpc.Final(nil, int32(cmn.CodeBadRequest))
	}
	v1, err := fromArg[A](body[0])
	if err != nil {
		return rpc.Final(nil, int32(cmn.CodeBadRequest))
	}
	v2, err := fromArg[B](body[1])
	if err != nil {
		return rpc.Final(nil, int32(cmn.CodeBadRequest))
	}
	return a.fn(v1, v2, ctx)
}

// Register2 registers a two-argument handler.
func Register2[A, B Native](r *Registry, fnID int32, fn func(A, B, rpc.Context) rpc.Result) error {
	return r.register(fnID, adapter2[A, B]{fnID: fnID, fn: fn})
}

type adapter0 struct {
	fnID int32
	fn   func(rpc.Context) rpc.Result
}

func (a adapter0) FnID() int32 { return a.fnID }

func (a adapter0) Invoke(body wire.Tuple, ctx rpc.Context) rpc.Result {
	if len(body) != 1 {
		return rpc.Final(nil, int32(cmn.CodeBadRequest))
	}
	return a.fn(ctx)
}

// Register0 registers a context-only handler (no application arguments).
func Register0(r *Registry, fnID int32, fn func(rpc.Context) rpc.Result) error {
	return r.register(fnID, adapter0{fnID: fnID, fn: fn})
}

// Arg1 is a convenience for building a single-argument call body.
func Arg1[A Native](v A) wire.Tuple { return BuildArgs(toArg(v)) }

// Arg2 is a convenience for building a two-argument call body.
func Arg2[A, B Native](a A, b B) wire.Tuple { return BuildArgs(toArg(a), toArg(b)) }
