// Package alloc provides the allocator capability set shared by the
// containers in this module, plus its two implementations.
//
// # Allocators
//
//   - Heap delegates to the Go heap. It may relocate on Reallocate and can be
//     bounded by a resource.Controller memory budget.
//   - Arena bumps a cursor over one fixed-capacity buffer. Individual regions
//     are never reclaimed; memory comes back in bulk through SaveState and
//     LoadState (or Scoped), Clear, or by freeing the most recent allocation.
//
// # Checkpoints
//
//	s := a.SaveState()
//	buf, _ := a.Allocate(256) // scratch
//	a.LoadState(s)            // everything since s is released
//
// Checkpoints follow stack discipline and are restored once. Restoring s
// also discards every checkpoint saved after it; restoring a consumed state
// or one taken from another arena is a contract violation.
//
// # Typed helpers
//
// MakeSlice, ResizeSlice and FreeSlice carve typed slices out of an
// allocator. Arena memory may live outside the Go heap, so element types
// placed in anything but a Heap must be pointer-free.
//
// # Contract violations
//
// Freeing a region that is not the top of an arena, restoring a checkpoint out
// of order, or passing a negative size panics with a *contract.Violation.
// Building with the framecore_nocheck tag removes these checks.
package alloc
