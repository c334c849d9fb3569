package array

import (
	"github.com/hupe1980/framecore/alloc"
	"github.com/hupe1980/framecore/internal/contract"
)

// DefaultCapacity is the capacity used when New is given a non-positive one.
const DefaultCapacity = 16

// Array is a growable array that owns its backing buffer.
//
// Array is not safe for concurrent use.
type Array[T any] struct {
	data       []T // len(data) is the capacity
	size       int
	allocator  alloc.Allocator
	generation uint64
}

// New creates an array with room for capacity elements. A nil allocator
// selects a private heap.
func New[T any](a alloc.Allocator, capacity int) (*Array[T], error) {
	if a == nil {
		a = alloc.NewHeap()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	data, err := alloc.MakeSlice[T](a, capacity)
	if err != nil {
		return nil, err
	}

	return &Array[T]{data: data, allocator: a}, nil
}

// FromSlice creates an array holding a copy of vs.
func FromSlice[T any](a alloc.Allocator, vs []T) (*Array[T], error) {
	arr, err := New[T](a, len(vs))
	if err != nil {
		return nil, err
	}
	if err := arr.AppendSlice(vs); err != nil {
		arr.Free()
		return nil, err
	}
	return arr, nil
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return a.size }

// Cap returns the number of elements the buffer can hold without growing.
func (a *Array[T]) Cap() int { return len(a.data) }

// Generation changes whenever the backing buffer is relocated or released.
func (a *Array[T]) Generation() uint64 { return a.generation }

// AppendSlot appends a zero element and returns its index.
func (a *Array[T]) AppendSlot() (int, error) {
	if err := a.reserve(a.size + 1); err != nil {
		return 0, err
	}
	var zero T
	a.data[a.size] = zero
	a.size++
	return a.size - 1, nil
}

// Append appends v.
func (a *Array[T]) Append(v T) error {
	if err := a.reserve(a.size + 1); err != nil {
		return err
	}
	a.data[a.size] = v
	a.size++
	return nil
}

// AppendSlice appends every element of vs, growing at most once.
func (a *Array[T]) AppendSlice(vs []T) error {
	if len(vs) == 0 {
		return nil
	}
	if err := a.reserve(a.size + len(vs)); err != nil {
		return err
	}
	a.size += copy(a.data[a.size:], vs)
	return nil
}

// RemoveLast drops the last element. The element is not cleared.
func (a *Array[T]) RemoveLast() {
	contract.Assert(a.size > 0, "array: RemoveLast on empty array")
	if a.size > 0 {
		a.size--
	}
}

// Clear sets the length to zero and keeps the buffer.
func (a *Array[T]) Clear() {
	a.size = 0
}

// At returns the element at index i.
func (a *Array[T]) At(i int) T {
	a.check(i)
	return a.data[i]
}

// Set replaces the element at index i.
func (a *Array[T]) Set(i int, v T) {
	a.check(i)
	a.data[i] = v
}

// Ref returns a pointer to the element at index i. The pointer is
// invalidated by the next growth.
func (a *Array[T]) Ref(i int) *T {
	a.check(i)
	return &a.data[i]
}

// Slice returns a view of elements [i, j). The view shares the buffer and
// cannot be appended into it.
func (a *Array[T]) Slice(i, j int) []T {
	contract.Assert(0 <= i && i <= j && j <= a.size, "array: slice [%d:%d] out of range [0:%d]", i, j, a.size)
	return a.data[i:j:j]
}

// Items returns a view of all elements.
func (a *Array[T]) Items() []T {
	return a.data[:a.size:a.size]
}

// Free releases the buffer back to the allocator. The array is empty and
// reusable afterwards.
func (a *Array[T]) Free() {
	alloc.FreeSlice(a.allocator, a.data)
	a.data = nil
	a.size = 0
	a.generation++
}

// IndexOf returns the index of the first element equal to v, or -1.
func IndexOf[T comparable](a *Array[T], v T) int {
	for i, x := range a.Items() {
		if x == v {
			return i
		}
	}
	return -1
}

// IndexFunc returns the index of the first element satisfying f, or -1.
func IndexFunc[T any](a *Array[T], f func(T) bool) int {
	for i, x := range a.Items() {
		if f(x) {
			return i
		}
	}
	return -1
}

func (a *Array[T]) check(i int) {
	contract.Assert(0 <= i && i < a.size, "array: index %d out of range [0:%d]", i, a.size)
}

// reserve makes room for n elements. On failure the array is unchanged.
func (a *Array[T]) reserve(n int) error {
	if n <= len(a.data) {
		return nil
	}

	newCap := max(2*len(a.data), n)
	if len(a.data) == 0 {
		newCap = max(n, DefaultCapacity)
	}
	data, err := alloc.ResizeSlice(a.allocator, a.data, newCap)
	if err != nil {
		return err
	}

	if len(a.data) == 0 || &data[0] != &a.data[0] {
		a.generation++
	}
	a.data = data
	return nil
}
