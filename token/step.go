package token

import "fmt"

// Step is a 16-bit offset into the program buffer, identifying a token
// boundary. Pinning the program buffer at 64 KiB (spec.md §9 Open
// Questions) lets every inter-token reference (block jumps, function start
// addresses, breakpoints) fit in a single Step rather than a raw pointer.
type Step uint16

// MaxBufferSize is the pinned program-buffer capacity: 64 KiB, addressable
// in full by a single Step.
const MaxBufferSize = 1 << 16

// Invalid marks the absence of a step (e.g. an unpatched forward-link).
const Invalid Step = 0xFFFF

// Add returns s+n as a Step, or an error if the result would overflow the
// buffer's addressable range.
func (s Step) Add(n int) (Step, error) {
	v := int(s) + n
	if v < 0 || v >= MaxBufferSize {
		return 0, fmt.Errorf("token: step overflow: %d+%d out of [0,%d)", s, n, MaxBufferSize)
	}
	return Step(v), nil
}

// MustAdd is Add but panics on overflow; used where the caller has already
// range-checked (e.g. immediately after a successful write).
func (s Step) MustAdd(n int) Step {
	r, err := s.Add(n)
	if err != nil {
		panic(err)
	}
	return r
}

func (s Step) String() string {
	return fmt.Sprintf("@%d", uint16(s))
}
