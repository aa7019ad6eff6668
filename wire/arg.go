package wire

// Kind tags an Arg's concrete type on the wire so the codec is
// self-describing: decode(encode(v)) round-trips without the caller having
// to hand back an exact schema, while the registry (package registry) still
// validates the decoded Kind sequence against a handler's declared
// parameter types before invoking it.
type Kind byte

const (
	KindNil Kind = iota // the trailing context slot: encoded as its kind tag alone, with no payload
	KindString
	KindInt64
	KindFloat64
	KindBool
	KindBytes
	KindUUID
	KindStringSlice
	KindInt64Slice
)

// Arg is the type-erased argument-tuple element used in place of a
// systems-language variadic template: one sum type, concrete constructors
// below, and a registry of typed adapters (package registry) that knows
// how to project a Tuple onto a Go handler's real parameter types.
type Arg struct {
	Kind    Kind
	Str     string
	I64     int64
	F64     float64
	B       bool
	Bytes   []byte
	Strs    []string
	I64s    []int64
	rawUUID [16]byte
}

func Nil() Arg                 { return Arg{Kind: KindNil} }
func String(s string) Arg      { return Arg{Kind: KindString, Str: s} }
func Int64(i int64) Arg        { return Arg{Kind: KindInt64, I64: i} }
func Float64(f float64) Arg    { return Arg{Kind: KindFloat64, F64: f} }
func Bool(b bool) Arg          { return Arg{Kind: KindBool, B: b} }
func Bytes(b []byte) Arg       { return Arg{Kind: KindBytes, Bytes: b} }
func StringSlice(s []string) Arg { return Arg{Kind: KindStringSlice, Strs: s} }
func Int64Slice(i []int64) Arg { return Arg{Kind: KindInt64Slice, I64s: i} }

func UUIDArg(b [16]byte) Arg { return Arg{Kind: KindUUID, rawUUID: b} }
func (a Arg) UUIDBytes() [16]byte { return a.rawUUID }

// Tuple is the call body: the handler's argument list in declared order,
// with the final (context) slot always KindNil on the wire.
type Tuple []Arg
