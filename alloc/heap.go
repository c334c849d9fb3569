package alloc

import (
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/framecore/internal/contract"
	"github.com/hupe1980/framecore/resource"
)

// HeapStats is a snapshot of heap allocator activity.
type HeapStats struct {
	Allocations uint64 // cumulative successful allocations
	Frees       uint64 // cumulative frees
	BytesInUse  int64  // bytes handed out and not yet freed
}

// Heap is an allocator backed by the Go heap.
//
// Heap is safe for concurrent use. The containers layered on top of it are
// not.
type Heap struct {
	budget *resource.Controller

	allocations atomic.Uint64
	frees       atomic.Uint64
	inUse       atomic.Int64
}

// HeapOption configures a Heap.
type HeapOption func(*Heap)

// WithBudget charges every allocation against rc. Allocations that would
// exceed the budget fail with ErrOutOfMemory.
func WithBudget(rc *resource.Controller) HeapOption {
	return func(h *Heap) {
		h.budget = rc
	}
}

// NewHeap creates a heap allocator.
func NewHeap(opts ...HeapOption) *Heap {
	h := &Heap{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Allocate returns a zeroed region of size bytes.
func (h *Heap) Allocate(size int) ([]byte, error) {
	contract.Assert(size >= 0, "heap: negative allocation size %d", size)
	if size <= 0 {
		return nil, nil
	}

	if err := h.charge(int64(size)); err != nil {
		return nil, err
	}

	return make([]byte, size), nil
}

// Reallocate shrinks buf in place or relocates it into a larger region.
func (h *Heap) Reallocate(buf []byte, size int) ([]byte, error) {
	contract.Assert(size >= 0, "heap: negative reallocation size %d", size)

	if buf == nil {
		return h.Allocate(size)
	}
	if size == 0 {
		h.Free(buf)
		return nil, nil
	}

	if size <= cap(buf) {
		h.release(int64(cap(buf)-size), false)
		return buf[:size:size], nil
	}

	nb, err := h.Allocate(size)
	if err != nil {
		return nil, err
	}
	copy(nb, buf)
	h.Free(buf)
	return nb, nil
}

// Free returns buf's bytes to the budget. The memory itself is reclaimed by
// the garbage collector once unreferenced.
func (h *Heap) Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	h.release(int64(cap(buf)), true)
}

// Stats returns a snapshot of allocator activity.
func (h *Heap) Stats() HeapStats {
	return HeapStats{
		Allocations: h.allocations.Load(),
		Frees:       h.frees.Load(),
		BytesInUse:  h.inUse.Load(),
	}
}

func (h *Heap) charge(n int64) error {
	if !h.budget.TryAcquireMemory(n) {
		return fmt.Errorf("%w: heap budget exhausted requesting %d bytes (limit %d, in use %d)",
			ErrOutOfMemory, n, h.budget.MemoryLimit(), h.budget.MemoryUsage())
	}
	h.allocations.Add(1)
	h.inUse.Add(n)
	return nil
}

func (h *Heap) release(n int64, free bool) {
	if free {
		h.frees.Add(1)
	}
	if n <= 0 {
		return
	}
	h.inUse.Add(-n)
	h.budget.ReleaseMemory(n)
}
