package value

import (
	"math/big"
	"strings"
)

// Value is the closed runtime value sum (spec §3.2). Only the fields that
// belong to Kind are meaningful; this mirrors Type's tagged-struct shape on
// purpose so the two lattices stay in lockstep.
type Value struct {
	Kind Kind

	Int *big.Int // KindInt

	Bool bool // KindBool

	Buffer       []byte // KindBuffer
	BufferMaxLen uint32

	Principal Principal // KindPrincipal

	List       []Value // KindList
	ListEntry  *Type
	ListMaxLen uint32

	TupleOrder []string // KindTuple, declaration order preserved for printing
	Tuple      map[string]Value

	RespCommitted bool  // KindResponse: true = ok, false = err
	RespData      *Value

	OptSome *Value // KindOptional: nil = none
	OptType *Type  // declared inner type, used when OptSome is nil
}

func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func PrincipalValue(p Principal) Value { return Value{Kind: KindPrincipal, Principal: p} }

// NewBuffer enforces the declared maximum length at construction (spec §3.2 invariants).
func NewBuffer(data []byte, maxLen uint32) (Value, error) {
	if uint32(len(data)) > maxLen {
		return Value{}, &BadListLengthError{Len: len(data), MaxLen: int(maxLen)}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return Value{Kind: KindBuffer, Buffer: buf, BufferMaxLen: maxLen}, nil
}

// ConcatBuffer implements `concat` for buffers, respecting the wider of the two max_len's.
func ConcatBuffer(a, b Value) (Value, error) {
	maxLen := a.BufferMaxLen
	if b.BufferMaxLen > maxLen {
		maxLen = b.BufferMaxLen
	}
	combined := append(append([]byte{}, a.Buffer...), b.Buffer...)
	return NewBuffer(combined, maxLen)
}

// NewList enforces len(elements) <= maxLen at construction (spec §3.2 invariants).
func NewList(elements []Value, entry *Type, maxLen uint32) (Value, error) {
	if uint32(len(elements)) > maxLen {
		return Value{}, &BadListLengthError{Len: len(elements), MaxLen: int(maxLen)}
	}
	els := make([]Value, len(elements))
	copy(els, elements)
	return Value{Kind: KindList, List: els, ListEntry: entry, ListMaxLen: maxLen}, nil
}

// NewTuple freezes the given fields at construction (spec §3.3: "tuple fields are frozen").
func NewTuple(order []string, fields map[string]Value) Value {
	ord := make([]string, len(order))
	copy(ord, order)
	fs := make(map[string]Value, len(fields))
	for k, v := range fields {
		fs[k] = v
	}
	return Value{Kind: KindTuple, TupleOrder: ord, Tuple: fs}
}

func ResponseOk(data Value) Value  { return Value{Kind: KindResponse, RespCommitted: true, RespData: &data} }
func ResponseErr(data Value) Value { return Value{Kind: KindResponse, RespCommitted: false, RespData: &data} }

func OptionalSome(v Value) Value { return Value{Kind: KindOptional, OptSome: &v} }
func OptionalNone(inner *Type) Value { return Value{Kind: KindOptional, OptType: inner} }

// BadListLengthError is raised when a container would exceed its declared max_len.
type BadListLengthError struct {
	Len, MaxLen int
}

func (e *BadListLengthError) Error() string {
	return "BadListLength: length exceeds declared maximum"
}

// TypeOf computes the runtime Type of a Value (used by the evaluator and by
// `map`/`filter`/`fold`/`list` to propagate entry_type and max_len).
func TypeOf(v Value) *Type {
	switch v.Kind {
	case KindInt:
		return IntType()
	case KindBool:
		return BoolType()
	case KindBuffer:
		return BufferType(v.BufferMaxLen)
	case KindPrincipal:
		return PrincipalType()
	case KindList:
		return ListType(v.ListEntry, v.ListMaxLen)
	case KindTuple:
		fields := make(map[string]*Type, len(v.Tuple))
		for name, fv := range v.Tuple {
			fields[name] = TypeOf(fv)
		}
		return TupleType(v.TupleOrder, fields)
	case KindResponse:
		if v.RespCommitted {
			return ResponseType(TypeOf(*v.RespData), NoType())
		}
		return ResponseType(NoType(), TypeOf(*v.RespData))
	case KindOptional:
		if v.OptSome != nil {
			return OptionalType(TypeOf(*v.OptSome))
		}
		return OptionalType(v.OptType)
	default:
		return NoType()
	}
}

// Equal implements `is-eq`: deep equality; tuple field order is irrelevant (spec §3.2).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.Int.Cmp(b.Int) == 0
	case KindBool:
		return a.Bool == b.Bool
	case KindBuffer:
		return string(a.Buffer) == string(b.Buffer)
	case KindPrincipal:
		return a.Principal.Equal(b.Principal)
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindTuple:
		if len(a.Tuple) != len(b.Tuple) {
			return false
		}
		for name, av := range a.Tuple {
			bv, ok := b.Tuple[name]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindResponse:
		return a.RespCommitted == b.RespCommitted && Equal(*a.RespData, *b.RespData)
	case KindOptional:
		if (a.OptSome == nil) != (b.OptSome == nil) {
			return false
		}
		if a.OptSome == nil {
			return true
		}
		return Equal(*a.OptSome, *b.OptSome)
	default:
		return false
	}
}

// String renders a Value in the surface syntax, used by `print`, eval's
// printed result, and diagnostic messages.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return v.Int.String()
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindBuffer:
		var sb strings.Builder
		sb.WriteString("0x")
		const hex = "0123456789abcdef"
		for _, b := range v.Buffer {
			sb.WriteByte(hex[b>>4])
			sb.WriteByte(hex[b&0xf])
		}
		return sb.String()
	case KindPrincipal:
		return "'" + v.Principal.String()
	case KindList:
		var sb strings.Builder
		sb.WriteString("(list")
		for _, e := range v.List {
			sb.WriteString(" ")
			sb.WriteString(e.String())
		}
		sb.WriteString(")")
		return sb.String()
	case KindTuple:
		var sb strings.Builder
		sb.WriteString("(tuple")
		for _, name := range v.TupleOrder {
			sb.WriteString(" (")
			sb.WriteString(name)
			sb.WriteString(" ")
			sb.WriteString(v.Tuple[name].String())
			sb.WriteString(")")
		}
		sb.WriteString(")")
		return sb.String()
	case KindResponse:
		if v.RespCommitted {
			return "(ok " + v.RespData.String() + ")"
		}
		return "(err " + v.RespData.String() + ")"
	case KindOptional:
		if v.OptSome == nil {
			return "none"
		}
		return "(some " + v.OptSome.String() + ")"
	default:
		return "<no value>"
	}
}
