package wire

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/tinylib/msgp/msgp"
)

// Codec is the symmetric archive: encode(v) then decode(...) reproduces v
// bit-for-bit. Two implementations are wired, the production binary one
// and a textual debug one, selected by config.Config.DebugArchive.
type Codec interface {
	EncodeTuple(t Tuple) ([]byte, error)
	DecodeTuple(data []byte) (Tuple, error)
}

// Production binary archive, built directly on tinylib/msgp's runtime
// Append*/Read*Bytes primitives rather than on msgp's code generator: the
// argument tuple is a type-erased sum type, not a fixed struct, so a
// hand-written self-describing marshaler is the natural fit where
// generated per-struct marshalers would not be.
type msgpCodec struct{}

func NewMsgpCodec() Codec { return msgpCodec{} }

func (msgpCodec) EncodeTuple(t Tuple) ([]byte, error) {
	b := msgp.AppendArrayHeader(nil, uint32(len(t)))
	for _, a := range t {
		var err error
		b, err = appendArg(b, a)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func appendArg(b []byte, a Arg) ([]byte, error) {
	b = append(b, byte(a.Kind))
	switch a.Kind {
	case KindNil:
		// no-op serialization rule: the context slot carries no payload.
	case KindString:
		b = msgp.AppendString(b, a.Str)
	case KindInt64:
		b = msgp.AppendInt64(b, a.I64)
	case KindFloat64:
		b = msgp.AppendFloat64(b, a.F64)
	case KindBool:
		b = msgp.AppendBool(b, a.B)
	case KindBytes:
		b = msgp.AppendBytes(b, a.Bytes)
	case KindUUID:
		b = msgp.AppendBytes(b, a.rawUUID[:])
	case KindStringSlice:
		b = msgp.AppendArrayHeader(b, uint32(len(a.Strs)))
		for _, s := range a.Strs {
			b = msgp.AppendString(b, s)
		}
	case KindInt64Slice:
		b = msgp.AppendArrayHeader(b, uint32(len(a.I64s)))
		for _, i := range a.I64s {
			b = msgp.AppendInt64(b, i)
		}
	default:
		return nil, fmt.Errorf("wire: unknown arg kind %d", a.Kind)
	}
	return b, nil
}

func (msgpCodec) DecodeTuple(data []byte) (Tuple, error) {
	n, rest, err := msgp.ReadArrayHeaderBytes(data)
	if err != nil {
		return nil, err
	}
	t := make(Tuple, 0, n)
	for i := uint32(0); i < n; i++ {
		var a Arg
		a, rest, err = readArg(rest)
		if err != nil {
			return nil, err
		}
		t = append(t, a)
	}
	return t, nil
}

func readArg(b []byte) (Arg, []byte, error) {
	if len(b) < 1 {
		return Arg{}, nil, msgp.ErrShortBytes
	}
	kind := Kind(b[0])
	b = b[1:]
	switch kind {
	case KindNil:
		return Arg{Kind: KindNil}, b, nil
	case KindString:
		s, rest, err := msgp.ReadStringBytes(b)
		return Arg{Kind: kind, Str: s}, rest, err
	case KindInt64:
		i, rest, err := msgp.ReadInt64Bytes(b)
		return Arg{Kind: kind, I64: i}, rest, err
	case KindFloat64:
		f, rest, err := msgp.ReadFloat64Bytes(b)
		return Arg{Kind: kind, F64: f}, rest, err
	case KindBool:
		v, rest, err := msgp.ReadBoolBytes(b)
		return Arg{Kind: kind, B: v}, rest, err
	case KindBytes:
		bs, rest, err := msgp.ReadBytesBytes(b, nil)
		return Arg{Kind: kind, Bytes: bs}, rest, err
	case KindUUID:
		bs, rest, err := msgp.ReadBytesBytes(b, nil)
		if err != nil {
			return Arg{}, nil, err
		}
		var u [16]byte
		copy(u[:], bs)
		return Arg{Kind: kind, rawUUID: u}, rest, nil
	case KindStringSlice:
		n, rest, err := msgp.ReadArrayHeaderBytes(b)
		if err != nil {
			return Arg{}, nil, err
		}
		ss := make([]string, n)
		for i := range ss {
			ss[i], rest, err = msgp.ReadStringBytes(rest)
			if err != nil {
				return Arg{}, nil, err
			}
		}
		return Arg{Kind: kind, Strs: ss}, rest, nil
	case KindInt64Slice:
		n, rest, err := msgp.ReadArrayHeaderBytes(b)
		if err != nil {
			return Arg{}, nil, err
		}
		is := make([]int64, n)
		for i := range is {
			is[i], rest, err = msgp.ReadInt64Bytes(rest)
			if err != nil {
				return Arg{}, nil, err
			}
		}
		return Arg{Kind: kind, I64s: is}, rest, nil
	default:
		return Arg{}, nil, fmt.Errorf("wire: unknown arg kind %d", kind)
	}
}

// Debug textual archive: human-readable, used only when Config.DebugArchive
// is set.
type jsoniterCodec struct{}

func NewJSONCodec() Codec { return jsoniterCodec{} }

type jsonArg struct {
	Kind  Kind     `json:"k"`
	Str   string   `json:"s,omitempty"`
	I64   int64    `json:"i,omitempty"`
	F64   float64  `json:"f,omitempty"`
	B     bool     `json:"b,omitempty"`
	Bytes []byte   `json:"by,omitempty"`
	UUID  []byte   `json:"u,omitempty"`
	Strs  []string `json:"ss,omitempty"`
	I64s  []int64  `json:"is,omitempty"`
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func (jsoniterCodec) EncodeTuple(t Tuple) ([]byte, error) {
	out := make([]jsonArg, len(t))
	for i, a := range t {
		out[i] = jsonArg{
			Kind: a.Kind, Str: a.Str, I64: a.I64, F64: a.F64, B: a.B,
			Bytes: a.Bytes, Strs: a.Strs, I64s: a.I64s,
		}
		if a.Kind == KindUUID {
			u := a.rawUUID
			out[i].UUID = u[:]
		}
	}
	return jsonAPI.Marshal(out)
}

func (jsoniterCodec) DecodeTuple(data []byte) (Tuple, error) {
	var in []jsonArg
	if err := jsonAPI.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	t := make(Tuple, len(in))
	for i, a := range in {
		t[i] = Arg{Kind: a.Kind, Str: a.Str, I64: a.I64, F64: a.F64, B: a.B,
			Bytes: a.Bytes, Strs: a.Strs, I64s: a.I64s}
		if a.Kind == KindUUID {
			copy(t[i].rawUUID[:], a.UUID)
		}
	}
	return t, nil
}
