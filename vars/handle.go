package vars

import "fmt"

// HeapRegistry assigns stable uint32 handles to heap-allocated strings so a
// token.Token (KindConstant ValueString, or KindGenericName) can reference
// one without embedding a Go pointer in its binary encoding. Handle 0 is
// reserved for the nil/empty-string case, matching HeapString's own
// nil-means-empty convention.
type HeapRegistry struct {
	strs map[uint32]*HeapString
	next uint32
}

// NewHeapRegistry returns an empty registry.
func NewHeapRegistry() *HeapRegistry {
	return &HeapRegistry{strs: make(map[uint32]*HeapString), next: 1}
}

// Register assigns a fresh handle to hs (which may be nil, yielding handle
// 0) and returns it.
func (r *HeapRegistry) Register(hs *HeapString) uint32 {
	if hs == nil {
		return 0
	}
	h := r.next
	r.next++
	r.strs[h] = hs
	return h
}

// Lookup returns the HeapString registered under h, or nil if h is 0 or
// unknown.
func (r *HeapRegistry) Lookup(h uint32) *HeapString {
	if h == 0 {
		return nil
	}
	return r.strs[h]
}

// Release forgets handle h without freeing the underlying HeapString (the
// caller is responsible for calling HeapString.Free(); Release only removes
// the registry's bookkeeping entry once the owning token is discarded, e.g.
// on program-buffer reset).
func (r *HeapRegistry) Release(h uint32) {
	delete(r.strs, h)
}

// ErrHandleNotFound is returned by callers that expect Lookup to succeed.
var ErrHandleNotFound = fmt.Errorf("vars: heap handle not found")
