package vars

import "fmt"

// MaxInternedNames is the per-table capacity: a Variable token's name index
// field (token.Token.NameIndex) is a single byte (FuncIndex is 16-bit), so
// each interning table is capped at 256 entries, matching the
// embedded/microcontroller scale spec.md targets.
const MaxInternedNames = 256

// IdentTable interns name strings for one identifier class (spec.md §3.2:
// program variable names, user variable names, or external function
// names). Lookup is linear search for an equal-length, equal-content
// match — the source's own algorithm, preserved because the table is tiny
// (≤256 entries) and insertion order must be stable (it IS the index).
type IdentTable struct {
	acc     *Accounting
	class   HeapClass
	names   []*HeapString
	plain   []string // mirrors names[i].Value() for fast comparison without alloc
}

// NewIdentTable creates an empty interning table whose entries are
// accounted against class in acc.
func NewIdentTable(acc *Accounting, class HeapClass) *IdentTable {
	return &IdentTable{acc: acc, class: class}
}

// ErrTableFull is returned by Intern when the table has reached
// MaxInternedNames and s is not already present.
var ErrTableFull = fmt.Errorf("vars: identifier table full")

// Intern returns the index of s, interning it if not already present.
func (t *IdentTable) Intern(s string) (int, error) {
	for i, existing := range t.plain {
		if existing == s {
			return i, nil
		}
	}
	if len(t.plain) >= MaxInternedNames {
		return 0, ErrTableFull
	}
	hs := NewHeapString(t.acc, t.class, s)
	t.names = append(t.names, hs)
	t.plain = append(t.plain, s)
	return len(t.plain) - 1, nil
}

// Lookup returns the index of s without interning it; ok is false if s is
// not present.
func (t *IdentTable) Lookup(s string) (idx int, ok bool) {
	for i, existing := range t.plain {
		if existing == s {
			return i, true
		}
	}
	return 0, false
}

// Name returns the interned string at idx.
func (t *IdentTable) Name(idx int) string {
	if idx < 0 || idx >= len(t.plain) {
		return ""
	}
	return t.plain[idx]
}

// Len returns the number of interned names.
func (t *IdentTable) Len() int { return len(t.plain) }

// StaticTable is a read-only, non-heap-allocated name table for reserved
// words and internal function names (spec.md §3.2: "static tables, not
// heap-allocated").
type StaticTable struct {
	names []string
	index map[string]int
}

// NewStaticTable builds a lookup table from a fixed slice of names, in the
// order callers want their indices to be stable (e.g. matching a parallel
// command-descriptor table).
func NewStaticTable(names []string) *StaticTable {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return &StaticTable{names: names, index: idx}
}

// Lookup returns the index of name, or ok=false if it is not a member.
func (t *StaticTable) Lookup(name string) (idx int, ok bool) {
	idx, ok = t.index[name]
	return
}

// Name returns the name at idx.
func (t *StaticTable) Name(idx int) string {
	if idx < 0 || idx >= len(t.names) {
		return ""
	}
	return t.names[idx]
}

// Len returns the number of names in the table.
func (t *StaticTable) Len() int { return len(t.names) }
