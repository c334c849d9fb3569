package alloc

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/framecore/internal/contract"
	"github.com/hupe1980/framecore/internal/conv"
	"github.com/hupe1980/framecore/internal/mmap"
	"github.com/hupe1980/framecore/resource"
)

// Memory is one off-heap block reserved at startup and split into a
// permanent arena (process lifetime) and a transient arena (scratch that is
// rewound every frame).
type Memory struct {
	Permanent *Arena
	Transient *Arena

	region *mmap.Region
	budget *resource.Controller
	size   int64
	closed bool
}

type memoryOptions struct {
	budget *resource.Controller
}

// MemoryOption configures ReserveMemory.
type MemoryOption func(*memoryOptions)

// WithMemoryBudget charges the whole reservation against rc.
func WithMemoryBudget(rc *resource.Controller) MemoryOption {
	return func(o *memoryOptions) {
		o.budget = rc
	}
}

// ReserveMemory reserves permanent+transient bytes and carves both arenas
// from the block. It fails immediately when the budget cannot cover the
// reservation.
func ReserveMemory(permanent, transient int, opts ...MemoryOption) (*Memory, error) {
	return reserve(permanent, transient, opts, func(rc *resource.Controller, n int64) error {
		if !rc.TryAcquireMemory(n) {
			return fmt.Errorf("%w: reserving %d bytes exceeds memory limit %d",
				ErrOutOfMemory, n, rc.MemoryLimit())
		}
		return nil
	})
}

// ReserveMemoryContext is like ReserveMemory but waits for the budget to
// free up until ctx is done. A reservation larger than the whole limit
// still fails immediately.
func ReserveMemoryContext(ctx context.Context, permanent, transient int, opts ...MemoryOption) (*Memory, error) {
	return reserve(permanent, transient, opts, func(rc *resource.Controller, n int64) error {
		if err := rc.AcquireMemory(ctx, n); err != nil {
			if errors.Is(err, resource.ErrMemoryLimitExceeded) {
				return fmt.Errorf("%w: reserving %d bytes exceeds memory limit %d: %w",
					ErrOutOfMemory, n, rc.MemoryLimit(), err)
			}
			return fmt.Errorf("alloc: wait for %d bytes of budget: %w", n, err)
		}
		return nil
	})
}

func reserve(permanent, transient int, opts []MemoryOption, acquire func(*resource.Controller, int64) error) (*Memory, error) {
	contract.Assert(permanent >= 0 && transient >= 0,
		"alloc: negative reservation (permanent %d, transient %d)", permanent, transient)

	var o memoryOptions
	for _, opt := range opts {
		opt(&o)
	}

	total := permanent + transient
	if total < permanent {
		return nil, fmt.Errorf("%w: reservation of %d + %d bytes overflows", ErrOutOfMemory, permanent, transient)
	}
	if total == 0 {
		return &Memory{Permanent: NewArena(nil), Transient: NewArena(nil)}, nil
	}

	size := conv.IntToInt64(total)
	if err := acquire(o.budget, size); err != nil {
		return nil, err
	}

	region, err := mmap.Reserve(total)
	if err != nil {
		o.budget.ReleaseMemory(size)
		return nil, fmt.Errorf("alloc: reserve %d bytes: %w", total, err)
	}

	block := region.Bytes()
	return &Memory{
		Permanent: NewArena(block[:permanent:permanent]),
		Transient: NewArena(block[permanent:]),
		region:    region,
		budget:    o.budget,
		size:      size,
	}, nil
}

// Size returns the total number of reserved bytes.
func (m *Memory) Size() int64 {
	return m.size
}

// Close releases the block. Both arenas are left empty with zero capacity.
// Close is idempotent.
func (m *Memory) Close() error {
	if m == nil || m.closed {
		return nil
	}
	m.closed = true

	m.Permanent.release()
	m.Transient.release()
	m.budget.ReleaseMemory(m.size)

	return m.region.Close()
}
