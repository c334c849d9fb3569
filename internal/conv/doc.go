// Package conv provides checked integer conversions.
//
// Slot indices and byte counts cross between Go's int and fixed-width types
// (roaring bitmaps index with uint32, memory budgets count in int64). These
// helpers report overflow instead of silently wrapping.
//
// For conversions that are provably safe by construction (loop indices,
// masked ring positions) use a direct cast.
package conv
