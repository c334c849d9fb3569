package alloc

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/hupe1980/framecore/internal/conv"
	"github.com/hupe1980/framecore/internal/contract"
)

// pointerFree caches the pointer scan per element type.
var pointerFree sync.Map // reflect.Type -> bool

// MakeSlice allocates a zeroed []T of length n from a.
func MakeSlice[T any](a Allocator, n int) ([]T, error) {
	contract.Assert(n >= 0, "alloc: negative slice length %d", n)
	if n <= 0 {
		return nil, nil
	}

	if h, ok := a.(*Heap); ok {
		size, err := byteSize[T](n)
		if err != nil {
			return nil, err
		}
		if err := h.charge(int64(size)); err != nil {
			return nil, err
		}
		return make([]T, n), nil
	}

	size, err := checkRaw[T](n)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return make([]T, n), nil
	}

	var buf []byte
	if aa, ok := a.(AlignedAllocator); ok {
		buf, err = aa.AllocateAligned(size, alignOf[T]())
	} else {
		buf, err = a.Allocate(size)
	}
	if err != nil {
		return nil, err
	}

	return castSlice[T](a, buf, n)
}

// ResizeSlice changes the length of s to n, preserving the first
// min(len(s), n) elements. s must have been produced by MakeSlice or
// ResizeSlice on the same allocator.
func ResizeSlice[T any](a Allocator, s []T, n int) ([]T, error) {
	contract.Assert(n >= 0, "alloc: negative slice length %d", n)

	if cap(s) == 0 {
		return MakeSlice[T](a, n)
	}
	if n == 0 {
		FreeSlice(a, s)
		return nil, nil
	}

	if h, ok := a.(*Heap); ok {
		size, err := byteSize[T](n)
		if err != nil {
			return nil, err
		}
		if err := h.charge(int64(size)); err != nil {
			return nil, err
		}
		ns := make([]T, n)
		copy(ns, s)
		FreeSlice(a, s)
		return ns, nil
	}

	size, err := checkRaw[T](n)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		ns := make([]T, n)
		copy(ns, s)
		return ns, nil
	}

	buf, err := a.Reallocate(bytesOf(s), size)
	if err != nil {
		return nil, err
	}
	return castSlice[T](a, buf, n)
}

// FreeSlice releases s back to a.
func FreeSlice[T any](a Allocator, s []T) {
	if cap(s) == 0 {
		return
	}

	if h, ok := a.(*Heap); ok {
		size, err := byteSize[T](cap(s))
		if err == nil {
			h.release(int64(size), true)
		}
		return
	}

	if b := bytesOf(s); b != nil {
		a.Free(b)
	}
}

func checkRaw[T any](n int) (int, error) {
	if hasPointers(reflect.TypeFor[T]()) {
		return 0, fmt.Errorf("%w: %s", ErrPointerType, reflect.TypeFor[T]())
	}
	return byteSize[T](n)
}

func byteSize[T any](n int) (int, error) {
	var zero T
	size, err := conv.MulInt(n, int(unsafe.Sizeof(zero)))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	return size, nil
}

func alignOf[T any]() int {
	var zero T
	return int(unsafe.Alignof(zero))
}

func castSlice[T any](a Allocator, buf []byte, n int) ([]T, error) {
	if uintptr(unsafe.Pointer(unsafe.SliceData(buf)))%uintptr(alignOf[T]()) != 0 {
		a.Free(buf)
		return nil, fmt.Errorf("%w: %T region not aligned to %d", ErrMisaligned, a, alignOf[T]())
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(buf))), n), nil
}

// bytesOf views the full capacity of s as raw bytes.
func bytesOf[T any](s []T) []byte {
	var zero T
	size := uintptr(cap(s)) * unsafe.Sizeof(zero)
	if size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), size)
}

func hasPointers(t reflect.Type) bool {
	if v, ok := pointerFree.Load(t); ok {
		return !v.(bool)
	}
	has := scanPointers(t)
	pointerFree.Store(t, !has)
	return has
}

func scanPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && scanPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if scanPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
