// Package vars implements the identifier interning tables and scoped
// variable storage described in spec.md §3.2/§4.1: five identifier classes,
// per-scope value storage, array objects, and the heap-object accounting
// that replaces the source's manual counters with owned Go types (spec.md
// §9 "Manual heap-object counters → ownership types").
package vars

import "fmt"

// HeapClass enumerates the object classes whose lifetime is tracked so that
// a clean shutdown can assert every counter is zero (spec.md §3.2
// invariants, §8 property 1).
type HeapClass int

const (
	ClassIdentName HeapClass = iota
	ClassParsedConstStr
	ClassVarStr
	ClassArrayBlock
	ClassIntermediateStr
	ClassSystemStr
	numHeapClasses
)

func (c HeapClass) String() string {
	switch c {
	case ClassIdentName:
		return "IdentNameStr"
	case ClassParsedConstStr:
		return "ParsedConstStr"
	case ClassVarStr:
		return "VarStr"
	case ClassArrayBlock:
		return "ArrayBlock"
	case ClassIntermediateStr:
		return "IntermediateStr"
	case ClassSystemStr:
		return "SystemStr"
	default:
		return fmt.Sprintf("HeapClass(%d)", int(c))
	}
}

// Accounting holds the per-class live-object counters. It is a debug
// assertion mechanism, not an allocator: Go's GC owns the actual memory,
// this only verifies that every class-tagged object created is reported
// destroyed before shutdown, exactly matching spec.md's invariant "a clean
// shutdown leaves all counters at zero".
type Accounting struct {
	counts [numHeapClasses]int
}

// NewAccounting returns a zeroed Accounting.
func NewAccounting() *Accounting { return &Accounting{} }

// Inc records the creation of one object of class c.
func (a *Accounting) Inc(c HeapClass) { a.counts[c]++ }

// Dec records the destruction of one object of class c.
func (a *Accounting) Dec(c HeapClass) { a.counts[c]-- }

// Count returns the current live count for class c.
func (a *Accounting) Count(c HeapClass) int { return a.counts[c] }

// CleanupErrors returns one error per class whose counter is nonzero,
// matching spec.md §7 "Cleanup diagnostics: printed when any heap-object
// counter is nonzero at reset."
func (a *Accounting) CleanupErrors() []error {
	var errs []error
	for c := HeapClass(0); c < numHeapClasses; c++ {
		if n := a.counts[c]; n != 0 {
			errs = append(errs, fmt.Errorf("cleanup: %s counter is %d, expected 0", c, n))
		}
	}
	return errs
}

// IsClean reports whether every counter is zero.
func (a *Accounting) IsClean() bool { return len(a.CleanupErrors()) == 0 }

// HeapString is an owned, class-tagged string. Creation increments its
// class counter in acc; Free must be called exactly once to decrement it.
// An empty string is never represented by a HeapString holding "": per
// spec.md invariant, empty strings are represented by a nil *HeapString
// instead.
type HeapString struct {
	acc   *Accounting
	class HeapClass
	val   string
	freed bool
}

// NewHeapString creates an owned string of the given class. If s == "",
// returns nil: empty strings are always a nil handle per spec.md
// §3.2 "Empty strings are ALWAYS represented by a null pointer".
func NewHeapString(acc *Accounting, class HeapClass, s string) *HeapString {
	if s == "" {
		return nil
	}
	acc.Inc(class)
	return &HeapString{acc: acc, class: class, val: s}
}

// Value returns the string's content ("" if hs is nil, matching a null
// pointer's string value).
func (hs *HeapString) Value() string {
	if hs == nil {
		return ""
	}
	return hs.val
}

// Free decrements the owning class counter. Safe to call on nil. Calling
// Free twice on the same non-nil HeapString is a bug (double-free) and
// panics, since the source's equivalent is "decrements the counter", and a
// double-decrement would hide a real accounting error.
func (hs *HeapString) Free() {
	if hs == nil {
		return
	}
	if hs.freed {
		panic("vars: double free of HeapString")
	}
	hs.freed = true
	hs.acc.Dec(hs.class)
}

// Clone creates a new owned copy of hs in the same class, incrementing the
// counter again. Used when ownership cannot be transferred outright (e.g.
// a constant string referenced by more than one token is never cloned —
// only variable assignment, which always copies, calls this).
func (hs *HeapString) Clone(acc *Accounting) *HeapString {
	return NewHeapString(acc, hs.class, hs.Value())
}
