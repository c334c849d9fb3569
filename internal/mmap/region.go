package mmap

import (
	"errors"
	"sync/atomic"
)

// ErrInvalidSize is returned when a reservation size is not positive.
var ErrInvalidSize = errors.New("mmap: invalid size")

// Region is an anonymous read-write mapping. It owns the underlying memory
// and is responsible for releasing it.
type Region struct {
	data   []byte
	size   int
	closed atomic.Bool
	unmap  func([]byte) error
}

// Reserve maps size bytes of zeroed, anonymous memory.
func Reserve(size int) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	data, unmap, err := osMapAnon(size)
	if err != nil {
		return nil, err
	}

	return &Region{
		data:  data,
		size:  size,
		unmap: unmap,
	}, nil
}

// Bytes returns the mapped memory, or nil once the region is closed.
func (r *Region) Bytes() []byte {
	if r.closed.Load() {
		return nil
	}
	return r.data
}

// Size returns the size of the region in bytes.
func (r *Region) Size() int {
	return r.size
}

// Close releases the mapping. It is idempotent.
func (r *Region) Close() error {
	if r == nil || r.closed.Swap(true) {
		return nil
	}
	data := r.data
	r.data = nil
	if r.unmap != nil && data != nil {
		return r.unmap(data)
	}
	return nil
}
