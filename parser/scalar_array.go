package parser

// ScalarArrayMask tracks, across repeated calls to the same function within
// one program, which argument positions were passed as a scalar and which
// as an array — so a later call using the opposite shape for a position
// already fixed by an earlier call is rejected (spec.md §4.2.3,
// ErrFcnScalarAndArrayArgOrderNotConsistent).
//
// Internal functions have a fixed, already-known arity (at most 8 params,
// hence an 8-bit mask is enough). External (host-registered) functions
// accumulate their signature across forward-referenced calls before the
// `function` definition is seen, so they need a wider mask plus a
// per-position "not yet constrained" bit; 16 bits covers external
// functions' larger parameter budget.
type ScalarArrayMask struct {
	isArray  uint16 // bit i set => position i has been seen as an array
	isScalar uint16 // bit i set => position i has been seen as a scalar
	defined  uint16 // bit i set => position i's shape has been constrained
}

const maxInternalFuncArgs = 8
const maxExternalFuncArgs = 16

// Observe records that argument position i (0-based) was used as an array
// (isArray=true) or scalar (isArray=false) in one call. ok is false if this
// contradicts an earlier call's shape for the same position.
func (m *ScalarArrayMask) Observe(pos int, isArray bool) (ok bool) {
	bit := uint16(1) << uint(pos)
	otherBit := m.isScalar
	if !isArray {
		otherBit = m.isArray
	}
	if m.defined&bit != 0 && otherBit&bit != 0 {
		return false
	}
	m.defined |= bit
	if isArray {
		m.isArray |= bit
	} else {
		m.isScalar |= bit
	}
	return true
}

// IsArrayAt reports whether position i has been constrained to array shape.
func (m *ScalarArrayMask) IsArrayAt(pos int) bool {
	return m.isArray&(uint16(1)<<uint(pos)) != 0
}

// IsDefinedAt reports whether position i's shape has been fixed by a prior
// observation.
func (m *ScalarArrayMask) IsDefinedAt(pos int) bool {
	return m.defined&(uint16(1)<<uint(pos)) != 0
}

// InternalFuncMasks holds one ScalarArrayMask per internal function, indexed
// by the internal-function table index (spec.md §4.2.3: internal functions'
// arity is known up front from the builtin table, so this is fixed-size at
// construction).
type InternalFuncMasks struct {
	masks []ScalarArrayMask
}

func NewInternalFuncMasks(count int) *InternalFuncMasks {
	return &InternalFuncMasks{masks: make([]ScalarArrayMask, count)}
}

func (m *InternalFuncMasks) Get(funcIndex int) *ScalarArrayMask {
	return &m.masks[funcIndex]
}

// ExternalFuncMasks holds one ScalarArrayMask per external function,
// indexed by the external-function identifier table index. External
// functions may be called before their `function` definition is parsed, so
// entries are created lazily as each new external name is interned.
type ExternalFuncMasks struct {
	masks map[int]*ScalarArrayMask
}

func NewExternalFuncMasks() *ExternalFuncMasks {
	return &ExternalFuncMasks{masks: make(map[int]*ScalarArrayMask)}
}

func (m *ExternalFuncMasks) Get(nameIndex int) *ScalarArrayMask {
	mk, ok := m.masks[nameIndex]
	if !ok {
		mk = &ScalarArrayMask{}
		m.masks[nameIndex] = mk
	}
	return mk
}
