// Package alloc provides the pluggable allocator family used as backing
// storage for attrib.Attrib values: arena-style allocators with an
// Alloc(bytes) method and no Free(ptr) — lifetime is cycle- or scope-based,
// never per-allocation.
//
// Grounded on original_source/lib/dba/Allocators.h/.cpp.
package alloc

// Allocator dispenses byte slices for attribute backing storage. There is no
// Free method: every allocator in this family is arena-style, and the whole
// arena is reclaimed (or simply dropped) at once.
//
// Out-of-memory is treated as fatal, matching the source library: an
// implementation should panic rather than return a nil slice, since the
// caller has no way to recover a meaningful zero value for variable-length
// attribute storage.
type Allocator interface {
	Alloc(bytes int) []byte
}

// Default returns a goroutine-call-scoped allocator backed by the Go heap.
// It is the analogue of the source library's thread-local memory pool: an
// Attrib built with a nil allocator uses this instead, and frees nothing
// explicitly, relying on the garbage collector. Per DESIGN.md, values built
// this way must not be handed across goroutines if that goroutine intends to
// keep mutating shared backing storage concurrently with the allocation
// goroutine; a fresh value copy (CopyTo) is the safe way to cross that
// boundary.
func Default() Allocator { return heapAllocator{} }

type heapAllocator struct{}

func (heapAllocator) Alloc(bytes int) []byte { return make([]byte, bytes) }
