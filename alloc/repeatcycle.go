package alloc

// RepeatCycleAllocator provides row-at-a-time storage in result iteration.
// Chunks grow exponentially up to MaxChunkSize; Reset optionally preserves
// the largest chunk to speed up subsequent cycles instead of freeing
// everything and starting from ChunkSize again.
//
// Grounded on original_source/lib/dba/Allocators.h
// (RepeatCycleAllocator/SimpleAllocator).
type RepeatCycleAllocator struct {
	// PreserveMemoryOnReset keeps the largest chunk alive
	// across Reset, instead of releasing all heap memory. SimpleAllocator
	// sets this to false.
	PreserveMemoryOnReset bool

	chunks       [][]byte
	chunkSize    int
	lastChunk    []byte
	lastChunkPos int
}

const maxChunkSize = 16 * 1024 * 1024

// NewRepeatCycleAllocator returns an allocator with PreserveMemoryOnReset
// enabled, matching the source library's default.
func NewRepeatCycleAllocator() *RepeatCycleAllocator {
	return &RepeatCycleAllocator{PreserveMemoryOnReset: true, chunkSize: 256}
}

// NewSimpleAllocator returns a RepeatCycleAllocator with
// PreserveMemoryOnReset switched off, matching SimpleAllocator.
func NewSimpleAllocator() *RepeatCycleAllocator {
	return &RepeatCycleAllocator{PreserveMemoryOnReset: false, chunkSize: 256}
}

func (a *RepeatCycleAllocator) Alloc(bytes int) []byte {
	if bytes < 0 {
		panic("alloc: negative allocation size")
	}
	if bytes == 0 {
		return nil
	}
	if a.lastChunk == nil || len(a.lastChunk)-a.lastChunkPos < bytes {
		size := a.chunkSize
		if size < bytes {
			size = bytes
		}
		a.lastChunk = make([]byte, size)
		a.lastChunkPos = 0
		a.chunks = append(a.chunks, a.lastChunk)
		if a.chunkSize < maxChunkSize {
			a.chunkSize *= 2
			if a.chunkSize > maxChunkSize {
				a.chunkSize = maxChunkSize
			}
		}
	}
	buf := a.lastChunk[a.lastChunkPos : a.lastChunkPos+bytes : a.lastChunkPos+bytes]
	a.lastChunkPos += bytes
	return buf
}

// Reset reclaims storage for the next cycle, honoring PreserveMemoryOnReset.
func (a *RepeatCycleAllocator) Reset() {
	a.ResetPreserving(a.PreserveMemoryOnReset)
}

// ResetPreserving resets the allocator, overriding PreserveMemoryOnReset for
// this one call with preserveMemory.
func (a *RepeatCycleAllocator) ResetPreserving(preserveMemory bool) {
	if preserveMemory && len(a.chunks) > 0 {
		biggest := a.chunks[0]
		for _, c := range a.chunks[1:] {
			if len(c) > len(biggest) {
				biggest = c
			}
		}
		a.chunks = a.chunks[:0]
		a.chunks = append(a.chunks, biggest)
		a.lastChunk = biggest
		a.lastChunkPos = 0
		a.chunkSize = 256
		if len(biggest) > a.chunkSize {
			a.chunkSize = len(biggest)
		}
		return
	}
	a.chunks = nil
	a.lastChunk = nil
	a.lastChunkPos = 0
	a.chunkSize = 256
}
