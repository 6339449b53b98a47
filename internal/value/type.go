// Package value implements the closed Value and Type sums shared by the
// analyzer and the evaluator (spec §3.2). Both are represented as tagged
// structs rather than interface hierarchies: the design note in spec §9
// calls for an exhaustive tagged union here instead of polymorphic
// dispatch, so every new kind touches both lattices intentionally.
package value

import "strings"

// Kind tags the closed Value/Type sum.
type Kind uint8

const (
	KindNone Kind = iota // bottom (NoType); never appears on a Value
	KindAny              // top, admissible only in Type position
	KindInt
	KindBool
	KindBuffer
	KindPrincipal
	KindList
	KindTuple
	KindResponse
	KindOptional
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NoType"
	case KindAny:
		return "AnyType"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindBuffer:
		return "buffer"
	case KindPrincipal:
		return "principal"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindResponse:
		return "response"
	case KindOptional:
		return "optional"
	default:
		return "unknown"
	}
}

// Type mirrors Value (spec §3.2): IntType, BoolType, BufferType(max_len),
// PrincipalType, ListType(entry_type, max_len), TupleType(field->Type),
// ResponseType(ok, err), OptionalType(inner), plus NoType and AnyType.
type Type struct {
	Kind Kind

	MaxLen uint32 // BufferType, ListType

	Entry *Type // ListType

	FieldOrder []string         // TupleType, stable iteration order
	Fields     map[string]*Type // TupleType

	Ok  *Type // ResponseType
	Err *Type // ResponseType

	Inner *Type // OptionalType
}

func IntType() *Type       { return &Type{Kind: KindInt} }
func BoolType() *Type      { return &Type{Kind: KindBool} }
func PrincipalType() *Type { return &Type{Kind: KindPrincipal} }
func NoType() *Type        { return &Type{Kind: KindNone} }
func AnyType() *Type       { return &Type{Kind: KindAny} }

func BufferType(maxLen uint32) *Type { return &Type{Kind: KindBuffer, MaxLen: maxLen} }

func ListType(entry *Type, maxLen uint32) *Type {
	return &Type{Kind: KindList, Entry: entry, MaxLen: maxLen}
}

func OptionalType(inner *Type) *Type { return &Type{Kind: KindOptional, Inner: inner} }

func ResponseType(ok, err *Type) *Type { return &Type{Kind: KindResponse, Ok: ok, Err: err} }

func TupleType(fieldOrder []string, fields map[string]*Type) *Type {
	order := make([]string, len(fieldOrder))
	copy(order, fieldOrder)
	f := make(map[string]*Type, len(fields))
	for k, v := range fields {
		f[k] = v
	}
	return &Type{Kind: KindTuple, FieldOrder: order, Fields: f}
}

// String renders a Type the way diagnostics and `check --output_analysis` expect.
func (t *Type) String() string {
	if t == nil {
		return "NoType"
	}
	switch t.Kind {
	case KindNone, KindAny, KindInt, KindBool, KindPrincipal:
		return t.Kind.String()
	case KindBuffer:
		return "(buffer " + itoa(t.MaxLen) + ")"
	case KindList:
		return "(list " + itoa(t.MaxLen) + " " + t.Entry.String() + ")"
	case KindOptional:
		return "(optional " + t.Inner.String() + ")"
	case KindResponse:
		return "(response " + t.Ok.String() + " " + t.Err.String() + ")"
	case KindTuple:
		var sb strings.Builder
		sb.WriteString("(tuple")
		for _, name := range t.FieldOrder {
			sb.WriteString(" (")
			sb.WriteString(name)
			sb.WriteString(" ")
			sb.WriteString(t.Fields[name].String())
			sb.WriteString(")")
		}
		sb.WriteString(")")
		return sb.String()
	default:
		return "unknown"
	}
}

func itoa(u uint32) string {
	if u == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}

// Equal reports strict structural equality, used by map/var schema checks.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindBuffer:
		return t.MaxLen == other.MaxLen
	case KindList:
		return t.MaxLen == other.MaxLen && t.Entry.Equal(other.Entry)
	case KindOptional:
		return t.Inner.Equal(other.Inner)
	case KindResponse:
		return t.Ok.Equal(other.Ok) && t.Err.Equal(other.Err)
	case KindTuple:
		if len(t.Fields) != len(other.Fields) {
			return false
		}
		for name, ty := range t.Fields {
			oty, ok := other.Fields[name]
			if !ok || !ty.Equal(oty) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Unify computes the least upper bound of two types per spec §4.2: `if`
// unifies its branches, list literals widen to the unifier of elements,
// NoType (a never-returning analysis) absorbs into any sibling.
func Unify(a, b *Type) (*Type, bool) {
	if a == nil || b == nil {
		return nil, false
	}
	if a.Kind == KindNone {
		return b, true
	}
	if b.Kind == KindNone {
		return a, true
	}
	if a.Kind == KindAny {
		return b, true
	}
	if b.Kind == KindAny {
		return a, true
	}
	if a.Kind != b.Kind {
		return nil, false
	}
	switch a.Kind {
	case KindBuffer:
		max := a.MaxLen
		if b.MaxLen > max {
			max = b.MaxLen
		}
		return BufferType(max), true
	case KindList:
		entry, ok := Unify(a.Entry, b.Entry)
		if !ok {
			return nil, false
		}
		max := a.MaxLen
		if b.MaxLen > max {
			max = b.MaxLen
		}
		return ListType(entry, max), true
	case KindOptional:
		inner, ok := Unify(a.Inner, b.Inner)
		if !ok {
			return nil, false
		}
		return OptionalType(inner), true
	case KindResponse:
		ok1, ok := Unify(a.Ok, b.Ok)
		if !ok {
			return nil, false
		}
		err1, ok := Unify(a.Err, b.Err)
		if !ok {
			return nil, false
		}
		return ResponseType(ok1, err1), true
	case KindTuple:
		if len(a.FieldOrder) != len(b.FieldOrder) {
			return nil, false
		}
		fields := make(map[string]*Type, len(a.Fields))
		for _, name := range a.FieldOrder {
			bty, ok := b.Fields[name]
			if !ok {
				return nil, false
			}
			u, ok := Unify(a.Fields[name], bty)
			if !ok {
				return nil, false
			}
			fields[name] = u
		}
		return TupleType(a.FieldOrder, fields), true
	default:
		return a, true
	}
}
