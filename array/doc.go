// Package array provides a growable array whose backing buffer comes from an
// alloc.Allocator.
//
// Growth doubles the capacity and may relocate the buffer. References taken
// with Ref or Slice are only valid until the next growth; hold indices across
// appends instead, or compare Generation to detect a relocation.
//
//	arr, err := array.New[Vertex](frame.Transient, 64)
//	i, err := arr.AppendSlot()
//	arr.Ref(i).X = 1
package array
