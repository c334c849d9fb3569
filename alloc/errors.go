package alloc

import "errors"

var (
	// ErrOutOfMemory is returned when an allocator cannot satisfy a request.
	ErrOutOfMemory = errors.New("alloc: out of memory")
	// ErrPointerType is returned when a typed helper is asked to place a
	// pointer-carrying element type in memory the garbage collector cannot scan.
	ErrPointerType = errors.New("alloc: element type contains pointers")
	// ErrMisaligned is returned when an allocator hands back a region that is
	// not aligned for the requested element type.
	ErrMisaligned = errors.New("alloc: misaligned region")
)
