// Package mmap reserves anonymous, read-write memory outside the Go heap.
//
// The engine reserves one large block at startup and slices its permanent and
// transient arenas out of it. Keeping that block off-heap means the garbage
// collector never scans or moves it, so offsets handed out by an arena stay
// stable for the life of the process.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE
//   - Windows: VirtualAlloc with MEM_RESERVE|MEM_COMMIT
//   - Other targets (js, wasip1, plan9): a plain heap slice
//
// Memory is demand-paged on Unix and Windows: untouched pages cost no physical
// memory.
//
// # Thread Safety
//
// Close is idempotent and safe to call concurrently. Callers must ensure no
// goroutine touches Bytes() after Close returns.
package mmap
