package vars

import "fmt"

// IndexedStore is the parallel (Value, TypeByte) array backing globals and
// user variables (spec.md §3.2 "Globals & user variables: parallel arrays
// of (Value, TypeByte)"). A Variable token's ValueIndex is a direct index
// into this store.
type IndexedStore struct {
	acc   *Accounting
	slots []Slot
}

// NewIndexedStore creates an empty store.
func NewIndexedStore(acc *Accounting) *IndexedStore {
	return &IndexedStore{acc: acc}
}

// Create reserves a new slot with the given declared type and returns its
// index. The slot starts at the zero value for its kind.
func (s *IndexedStore) Create(t TypeByte) (int, error) {
	if len(s.slots) >= MaxInternedNames {
		return 0, fmt.Errorf("vars: value-index table full")
	}
	s.slots = append(s.slots, Slot{Type: t})
	return len(s.slots) - 1, nil
}

// Get returns the slot at idx.
func (s *IndexedStore) Get(idx int) (Slot, error) {
	if idx < 0 || idx >= len(s.slots) {
		return Slot{}, fmt.Errorf("vars: value index %d out of range", idx)
	}
	return s.slots[idx], nil
}

// Set replaces the value at idx, freeing any heap object the previous value
// owned (spec.md §3.2: "A variable string is owned by the variable slot;
// replacing it frees the old one.").
func (s *IndexedStore) Set(idx int, v Value) error {
	if idx < 0 || idx >= len(s.slots) {
		return fmt.Errorf("vars: value index %d out of range", idx)
	}
	old := s.slots[idx].Value
	FreeValue(old)
	s.slots[idx].Value = v
	s.slots[idx].Type.Kind = v.Kind
	s.slots[idx].Type.IsArray = v.Arr != nil
	return nil
}

// SetType overwrites only the type metadata at idx (e.g. toggling
// IsConstant or GlobalValueExists).
func (s *IndexedStore) SetType(idx int, t TypeByte) error {
	if idx < 0 || idx >= len(s.slots) {
		return fmt.Errorf("vars: value index %d out of range", idx)
	}
	s.slots[idx].Type = t
	return nil
}

// Len returns the number of allocated slots.
func (s *IndexedStore) Len() int { return len(s.slots) }

// Clear frees every owned heap object in the store and empties it. Used by
// `clearVars` on the user-variable store.
func (s *IndexedStore) Clear() {
	for _, slot := range s.slots {
		FreeValue(slot.Value)
	}
	s.slots = s.slots[:0]
}

// StaticStore is the single flat array of static-variable slots shared by
// every function in the program (spec.md §3.2: "Statics: single flat array
// across all functions; each function records its staticStart and
// staticCount").
type StaticStore struct {
	acc   *Accounting
	slots []Slot
}

// NewStaticStore creates an empty static store.
func NewStaticStore(acc *Accounting) *StaticStore {
	return &StaticStore{acc: acc}
}

// Allocate reserves count contiguous slots (for one function's static
// declarations) and returns the start index.
func (s *StaticStore) Allocate(count int, kindHint TypeByte) int {
	start := len(s.slots)
	for i := 0; i < count; i++ {
		s.slots = append(s.slots, Slot{Type: kindHint})
	}
	return start
}

// Get/Set mirror IndexedStore, addressed by the function-relative index
// (staticStart + localOffset), computed by the caller.
func (s *StaticStore) Get(idx int) (Slot, error) {
	if idx < 0 || idx >= len(s.slots) {
		return Slot{}, fmt.Errorf("vars: static index %d out of range", idx)
	}
	return s.slots[idx], nil
}

func (s *StaticStore) Set(idx int, v Value) error {
	if idx < 0 || idx >= len(s.slots) {
		return fmt.Errorf("vars: static index %d out of range", idx)
	}
	FreeValue(s.slots[idx].Value)
	s.slots[idx].Value = v
	s.slots[idx].Type.Kind = v.Kind
	s.slots[idx].Type.IsArray = v.Arr != nil
	return nil
}

// Frame holds a function call's local and parameter slots, allocated on
// entry and discarded on return (spec.md §3.2: "Locals & parameters:
// allocated on function entry in a dynamic frame; freed on return.").
type Frame struct {
	Slots []Slot
}

// NewFrame allocates count slots for one call's parameters+locals.
func NewFrame(count int) *Frame {
	return &Frame{Slots: make([]Slot, count)}
}

// Get/Set address a frame-relative index.
func (f *Frame) Get(idx int) (Slot, error) {
	if idx < 0 || idx >= len(f.Slots) {
		return Slot{}, fmt.Errorf("vars: frame index %d out of range", idx)
	}
	return f.Slots[idx], nil
}

func (f *Frame) Set(idx int, v Value) error {
	if idx < 0 || idx >= len(f.Slots) {
		return fmt.Errorf("vars: frame index %d out of range", idx)
	}
	FreeValue(f.Slots[idx].Value)
	f.Slots[idx].Value = v
	f.Slots[idx].Type.Kind = v.Kind
	f.Slots[idx].Type.IsArray = v.Arr != nil
	return nil
}

// Release frees every owned heap object in the frame. Called when a
// function call returns (spec.md §4.4: "free local string and array
// objects (counter-tracked)").
func (f *Frame) Release() {
	for _, slot := range f.Slots {
		FreeValue(slot.Value)
	}
	f.Slots = nil
}
