package alloc

// DefaultAlignment is the alignment used when a region is relocated.
const DefaultAlignment = 8

// Allocator is the capability set every container in this module is built on.
//
// A zero size yields a nil region and no error. Exhaustion is reported as an
// error wrapping ErrOutOfMemory.
type Allocator interface {
	// Allocate returns a zeroed region of exactly size bytes.
	Allocate(size int) ([]byte, error)
	// Reallocate resizes buf, possibly relocating it. The first
	// min(len(buf), size) bytes are preserved.
	Reallocate(buf []byte, size int) ([]byte, error)
	// Free releases buf. Implementations may restrict which regions can be
	// freed individually.
	Free(buf []byte)
}

// AlignedAllocator is an Allocator that can honor an explicit alignment.
type AlignedAllocator interface {
	Allocator
	// AllocateAligned returns a zeroed region whose first byte is aligned to
	// align, which must be a power of two.
	AllocateAligned(size, align int) ([]byte, error)
}

var (
	_ AlignedAllocator = (*Arena)(nil)
	_ Allocator        = (*Heap)(nil)
)

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
