package vars

import "fmt"

// MaxArrayDims is the maximum number of dimensions an array may declare
// (spec.md §3.2: "element 0 ... three dimension sizes"); exceeding this at
// parse time is the parser's arrayDefMaxDimsExceeded error.
const MaxArrayDims = 3

// Array is a heap-owned array object. Per spec.md §3.2, logically "element
// 0" of the backing store carries the three dimension sizes and the
// dimension count, and elements 1..N hold the values; here that bookkeeping
// is lifted into typed fields (Dims/DimCount) instead of being packed into
// element 0, since Go gives us a real struct instead of a raw byte block —
// but the externally observable shape (fixed element type, individually
// heap-allocated string elements, nil for empty string elements) is
// unchanged.
type Array struct {
	acc      *Accounting
	Dims     [MaxArrayDims]int
	DimCount int
	ElemKind ValueKind

	Longs   []int32       // populated when ElemKind == KindLong
	Floats  []float32     // populated when ElemKind == KindFloat
	Strings []*HeapString // populated when ElemKind == KindString; nil entry = empty string

	freed bool
}

// NewArray allocates an array of the given dimensions and element kind,
// accounting one ArrayBlock object regardless of element count (the
// strings within it are accounted individually as they are populated).
func NewArray(acc *Accounting, dims []int, elemKind ValueKind) (*Array, error) {
	if len(dims) == 0 || len(dims) > MaxArrayDims {
		return nil, fmt.Errorf("vars: array dimension count %d out of range [1,%d]", len(dims), MaxArrayDims)
	}
	total := 1
	for _, d := range dims {
		if d <= 0 {
			return nil, fmt.Errorf("vars: array dimension size must be positive, got %d", d)
		}
		total *= d
	}

	a := &Array{acc: acc, DimCount: len(dims), ElemKind: elemKind}
	copy(a.Dims[:], dims)

	switch elemKind {
	case KindLong:
		a.Longs = make([]int32, total)
	case KindFloat:
		a.Floats = make([]float32, total)
	case KindString:
		a.Strings = make([]*HeapString, total)
	default:
		return nil, fmt.Errorf("vars: array element kind %v not supported", elemKind)
	}

	acc.Inc(ClassArrayBlock)
	return a, nil
}

// Count returns the total element count (product of dimensions).
func (a *Array) Count() int {
	n := 1
	for i := 0; i < a.DimCount; i++ {
		n *= a.Dims[i]
	}
	return n
}

// flatIndex converts 1-based subscript indices (spec.md arrays are
// conventionally 1-based in Justina source) into a flat offset.
func (a *Array) flatIndex(subs []int) (int, error) {
	if len(subs) != a.DimCount {
		return 0, fmt.Errorf("vars: array used with %d subscripts, declared with %d", len(subs), a.DimCount)
	}
	offset := 0
	stride := 1
	for i := 0; i < a.DimCount; i++ {
		s := subs[i]
		if s < 1 || s > a.Dims[i] {
			return 0, fmt.Errorf("vars: array subscript %d out of range [1,%d]", s, a.Dims[i])
		}
		offset += (s - 1) * stride
		stride *= a.Dims[i]
	}
	return offset, nil
}

// Get returns the element at subs as a Value.
func (a *Array) Get(subs []int) (Value, error) {
	idx, err := a.flatIndex(subs)
	if err != nil {
		return Value{}, err
	}
	switch a.ElemKind {
	case KindLong:
		return LongValue(a.Longs[idx]), nil
	case KindFloat:
		return FloatValue(a.Floats[idx]), nil
	case KindString:
		return StringValue(a.Strings[idx]), nil
	default:
		return Value{}, fmt.Errorf("vars: corrupt array element kind")
	}
}

// ErrArrayValueTypeFixed is spec.md's array_valueTypeIsFixed: assigning a
// value whose kind doesn't match the array's element kind.
var ErrArrayValueTypeFixed = fmt.Errorf("vars: array_valueTypeIsFixed")

// Set assigns v to the element at subs, freeing any string it replaces
// (spec.md §4.3 Assignment semantics).
func (a *Array) Set(subs []int, v Value) error {
	if v.Kind != a.ElemKind {
		return ErrArrayValueTypeFixed
	}
	idx, err := a.flatIndex(subs)
	if err != nil {
		return err
	}
	switch a.ElemKind {
	case KindLong:
		a.Longs[idx] = v.Long
	case KindFloat:
		a.Floats[idx] = v.Float
	case KindString:
		old := a.Strings[idx]
		old.Free()
		a.Strings[idx] = v.Str
	}
	return nil
}

// Free releases the array's owned string elements (if any) and decrements
// its ArrayBlock counter. Safe to call at most once.
func (a *Array) Free() {
	if a == nil || a.freed {
		return
	}
	a.freed = true
	for _, s := range a.Strings {
		s.Free()
	}
	a.acc.Dec(ClassArrayBlock)
}
