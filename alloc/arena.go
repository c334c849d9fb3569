package alloc

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/framecore/internal/contract"
)

// ArenaStats is a snapshot of arena usage.
type ArenaStats struct {
	Capacity    int    // total bytes in the backing buffer
	Used        int    // current cursor position
	Peak        int    // highest cursor position observed
	Allocations uint64 // cumulative allocations
	Rewinds     uint64 // cumulative rewinds (Free, LoadState, Clear)
}

// Arena is a bump allocator over one contiguous, fixed-capacity buffer.
//
// Regions handed out by an Arena stay valid until the cursor is rewound past
// them. Generation changes on every rewind so holders of raw regions can
// detect invalidation.
//
// Arena is not safe for concurrent use.
type Arena struct {
	buf      []byte
	used     int
	lastSize int
	peak     int

	generation  uint64
	allocations uint64
	rewinds     uint64

	nextID uint64
	open   []uint64 // ids of checkpoints that are still restorable, oldest first
}

// NewArena creates an arena over buf. The arena takes ownership of buf.
func NewArena(buf []byte) *Arena {
	return &Arena{buf: buf[:len(buf):len(buf)]}
}

// NewArenaSize creates an arena over a freshly allocated buffer.
func NewArenaSize(capacity int) *Arena {
	contract.Assert(capacity >= 0, "arena: negative capacity %d", capacity)
	return NewArena(make([]byte, max(capacity, 0)))
}

// Allocate returns the next size bytes, zeroed.
func (a *Arena) Allocate(size int) ([]byte, error) {
	contract.Assert(size >= 0, "arena: negative allocation size %d", size)
	if size <= 0 {
		return nil, nil
	}
	if size > len(a.buf)-a.used {
		return nil, a.exhausted(size)
	}
	return a.bump(size), nil
}

// AllocateAligned pads the cursor to align before allocating size bytes.
func (a *Arena) AllocateAligned(size, align int) ([]byte, error) {
	contract.Assert(size >= 0, "arena: negative allocation size %d", size)
	contract.Assert(isPowerOfTwo(align), "arena: alignment %d is not a power of two", align)
	if size <= 0 {
		return nil, nil
	}

	pad := a.padding(align)
	if pad+size > len(a.buf)-a.used {
		return nil, a.exhausted(pad + size)
	}
	a.used += pad
	return a.bump(size), nil
}

// Reallocate resizes buf. The most recent allocation is grown or shrunk in
// place; any other region is copied into a fresh allocation and its old bytes
// are only reclaimed by a later rewind.
func (a *Arena) Reallocate(buf []byte, size int) ([]byte, error) {
	contract.Assert(size >= 0, "arena: negative reallocation size %d", size)

	if cap(buf) == 0 {
		return a.AllocateAligned(size, DefaultAlignment)
	}

	off, ok := a.offsetOf(buf)
	contract.Assert(ok, "arena: reallocating a region the arena does not own")

	if ok && off+cap(buf) == a.used {
		if size == 0 {
			a.Free(buf)
			return nil, nil
		}
		if off+size > len(a.buf) {
			return nil, a.exhausted(off + size - a.used)
		}
		if size > cap(buf) {
			clear(a.buf[a.used : off+size])
		}
		a.used = off + size
		a.lastSize = size
		a.peak = max(a.peak, a.used)
		return a.buf[off : off+size : off+size], nil
	}

	if size == 0 {
		return nil, nil
	}

	nb, err := a.AllocateAligned(size, DefaultAlignment)
	if err != nil {
		return nil, err
	}
	copy(nb, buf)
	return nb, nil
}

// Free releases buf, which must be the most recent live allocation.
func (a *Arena) Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}

	off, ok := a.offsetOf(buf)
	if !ok || off+cap(buf) != a.used {
		contract.Fail("arena: free of a region that is not the most recent allocation (offset %d, size %d, used %d)",
			off, cap(buf), a.used)
		return
	}

	a.rewind(off)
	a.lastSize = 0
}

// Clear releases every allocation and invalidates all checkpoints.
func (a *Arena) Clear() {
	a.rewind(0)
	a.lastSize = 0
	a.open = a.open[:0]
}

// Used returns the number of bytes allocated, including alignment padding.
func (a *Arena) Used() int { return a.used }

// Cap returns the capacity of the arena.
func (a *Arena) Cap() int { return len(a.buf) }

// Remaining returns the number of unallocated bytes.
func (a *Arena) Remaining() int { return len(a.buf) - a.used }

// Generation returns a counter that changes whenever the cursor is rewound.
func (a *Arena) Generation() uint64 { return a.generation }

// Contains reports whether buf lies inside the arena's buffer.
func (a *Arena) Contains(buf []byte) bool {
	if cap(buf) == 0 {
		return false
	}
	off, ok := a.offsetOf(buf)
	return ok && off+cap(buf) <= len(a.buf)
}

// Stats returns a snapshot of arena usage.
func (a *Arena) Stats() ArenaStats {
	return ArenaStats{
		Capacity:    len(a.buf),
		Used:        a.used,
		Peak:        a.peak,
		Allocations: a.allocations,
		Rewinds:     a.rewinds,
	}
}

func (a *Arena) bump(size int) []byte {
	start := a.used
	a.used += size
	a.lastSize = size
	a.peak = max(a.peak, a.used)
	a.allocations++

	region := a.buf[start:a.used:a.used]
	clear(region)
	return region
}

func (a *Arena) rewind(to int) {
	if to < a.used {
		a.generation++
		a.rewinds++
	}
	a.used = to
}

func (a *Arena) padding(align int) int {
	if len(a.buf) == 0 {
		return 0
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(a.buf))) + uintptr(a.used)
	return int((uintptr(align) - addr%uintptr(align)) % uintptr(align))
}

// offsetOf returns buf's byte offset from the start of the arena.
func (a *Arena) offsetOf(buf []byte) (int, bool) {
	if len(a.buf) == 0 || cap(buf) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.buf)))
	p := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	if p < base || p >= base+uintptr(len(a.buf)) {
		return 0, false
	}
	return int(p - base), true
}

func (a *Arena) exhausted(need int) error {
	return fmt.Errorf("%w: arena needs %d bytes, %d of %d remaining",
		ErrOutOfMemory, need, len(a.buf)-a.used, len(a.buf))
}

// release detaches the arena from its buffer; used when the backing memory is
// unmapped.
func (a *Arena) release() {
	a.buf = nil
	a.Clear()
}
