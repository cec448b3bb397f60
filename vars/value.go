package vars

import "github.com/justina-lang/justina/token"

// ValueKind is the scalar type tag of a Value (spec.md §3.2: "tagged union
// of long, float, pointer to heap-owned string, or pointer to heap-owned
// array").
type ValueKind byte

const (
	KindLong ValueKind = iota
	KindFloat
	KindString
)

func (k ValueKind) String() string {
	switch k {
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "?"
	}
}

// Value is the tagged-union payload stored in a variable slot or pushed on
// the evaluation stack as a constant.
type Value struct {
	Kind  ValueKind
	Long  int32
	Float float32
	Str   *HeapString
	Arr   *Array
}

// LongValue, FloatValue, StringValue construct scalar Values.
func LongValue(v int32) Value    { return Value{Kind: KindLong, Long: v} }
func FloatValue(v float32) Value { return Value{Kind: KindFloat, Float: v} }
func StringValue(s *HeapString) Value {
	return Value{Kind: KindString, Str: s}
}

// TypeByte encodes the per-slot metadata spec.md §3.2 describes: value-kind,
// is-array, scope, is-constant, and whether a global value currently exists
// for a program-variable name (used to disambiguate a name that is declared
// but has no active global binding in the current context).
type TypeByte struct {
	Kind              ValueKind
	IsArray           bool
	Scope             token.Scope
	IsConstant        bool
	GlobalValueExists bool
}

// Slot is one addressable variable storage location: its current value and
// its type metadata. Scope stores hold slices of Slot; a Variable token's
// ValueIndex is an index into the appropriate slice.
type Slot struct {
	Value Value
	Type  TypeByte
}

// FreeValue releases any heap object owned by v (string or array), leaving
// the slot's Go value eligible for GC and its class counter decremented.
// Scalars (long/float) own nothing and are no-ops.
func FreeValue(v Value) {
	switch v.Kind {
	case KindString:
		v.Str.Free()
	}
	if v.Arr != nil {
		v.Arr.Free()
	}
}
