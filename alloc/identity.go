package alloc

// IdentityAllocator wraps a caller-supplied buffer as an Allocator, so that
// SetBin/SetText can point directly at externally owned memory without a
// copy. Every Alloc call must request exactly the wrapped buffer's length;
// this mirrors the source library's usage pattern of allocating once,
// immediately after construction.
//
// Grounded on original_source/lib/dba/Allocators.h (IdentityAllocator).
type IdentityAllocator struct {
	buf []byte
}

// NewIdentityAllocator wraps buf. The caller retains ownership; the Attrib
// built from it must be marked CustomHeap so it never frees buf.
func NewIdentityAllocator(buf []byte) *IdentityAllocator {
	return &IdentityAllocator{buf: buf}
}

func (a *IdentityAllocator) Alloc(bytes int) []byte {
	if bytes != len(a.buf) {
		panic("alloc: IdentityAllocator.Alloc length mismatch")
	}
	return a.buf
}
