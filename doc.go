// Package framecore provides the runtime primitives layer of a real-time
// engine and the context object that ties them together.
//
// The primitives live in subpackages:
//
//   - alloc: heap and arena allocators with checkpoint/restore
//   - array: growable array over an allocator
//   - hashtable: open-addressing table keyed by short strings
//   - jobs: lock-free work queue and worker pool
//
// An Engine is constructed once at startup and threaded through every call
// site that needs memory, scheduling, or logging. It reserves one memory
// block split into a permanent and a transient arena, starts the worker
// pool, and runs the frame loop.
//
// # Quick Start
//
//	eng, err := framecore.New(framecore.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	if err := eng.Start(ctx); err != nil {
//	    return err
//	}
//
//	err = eng.RunFrames(ctx, 600, func(f *framecore.Frame) error {
//	    scratch, err := array.New[Particle](f.Transient, 1024)
//	    if err != nil {
//	        return err
//	    }
//	    // ... fill scratch, submit jobs through f.Queue
//	    return nil
//	})
//
// At the end of every frame the queue is drained and the transient arena is
// rewound, so nothing allocated from Frame.Transient survives the frame.
package framecore
