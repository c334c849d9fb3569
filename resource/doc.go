// Package resource implements a memory budget shared by allocators.
//
// Heap allocators charge every byte they hand out against a Controller, and
// the engine's startup reservation charges the whole permanent + transient
// block. With a limit configured, an allocation that would exceed the budget
// fails fast (TryAcquireMemory) or waits for memory to be released
// (AcquireMemory):
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 256 << 20,
//	})
//
//	if !rc.TryAcquireMemory(4096) {
//	    // over budget - caller decides retry/backoff
//	}
//	defer rc.ReleaseMemory(4096)
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use.
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops that
// always succeed. This allows optional budgeting without nil checks everywhere.
package resource
