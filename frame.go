package framecore

import (
	"context"

	"github.com/hupe1980/framecore/alloc"
	"github.com/hupe1980/framecore/jobs"
)

// Frame is handed to a FrameFunc once per frame.
//
// Arenas are not safe for concurrent use: allocate on the frame goroutine
// and give jobs disjoint regions to write into. Everything allocated from
// Transient is released when the frame returns.
type Frame struct {
	Index     uint64
	Permanent *alloc.Arena
	Transient *alloc.Arena
	Queue     *jobs.Queue
	Logger    *Logger

	ctx context.Context
}

// Context returns the context RunFrames was called with.
func (f *Frame) Context() context.Context {
	return f.ctx
}

// FrameFunc is the per-frame callback of RunFrames.
type FrameFunc func(f *Frame) error
