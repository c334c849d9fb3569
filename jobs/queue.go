package jobs

import (
	"context"
	"math/bits"
	"runtime"
	"sync/atomic"

	"github.com/hupe1980/framecore/internal/contract"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sys/cpu"
)

// DefaultCapacity is the ring size used when NewQueue is given a
// non-positive capacity.
const DefaultCapacity = 4096

// minCapacity keeps a published cell's sequence distinct from the next
// round's write position.
const minCapacity = 2

// WorkFunc is a unit of deferred work. threadIndex identifies the executing
// goroutine (0 for the drain caller, 1..n for pool workers).
type WorkFunc func(threadIndex int, q *Queue, data any)

// WorkItem is a queued callback and its argument. The queue never owns Data.
type WorkItem struct {
	Callback WorkFunc
	Data     any
}

// Stats is a snapshot of queue activity. Submitted and Completed are the
// counters the drain barrier compares and resets; Rejected and Executed are
// cumulative.
type Stats struct {
	Capacity  int
	Pending   int    // entries reserved by producers and not yet claimed
	Submitted int64  // accepted since the last drain
	Completed int64  // finished since the last drain
	Rejected  uint64 // TryAddWork calls that found the ring full
	Executed  uint64 // callbacks run over the queue's lifetime
}

type cell struct {
	seq  atomic.Uint64
	item WorkItem
}

// Queue is a bounded MPMC ring of work items.
type Queue struct {
	_     cpu.CacheLinePad
	write atomic.Uint64
	_     cpu.CacheLinePad
	read  atomic.Uint64
	_     cpu.CacheLinePad

	total     atomic.Int64
	completed atomic.Int64
	_         cpu.CacheLinePad

	cells []cell
	mask  uint64

	sem     *semaphore.Weighted
	wakeups atomic.Int64 // released permits not yet taken; at most len(cells)

	rejected atomic.Uint64
	executed atomic.Uint64
}

// NewQueue creates a queue with capacity rounded up to a power of two (at
// least 2).
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	n := max(uint64(1)<<bits.Len64(uint64(capacity-1)), minCapacity)

	q := &Queue{
		cells: make([]cell, n),
		mask:  n - 1,
		sem:   semaphore.NewWeighted(int64(n)),
	}
	for i := range q.cells {
		q.cells[i].seq.Store(uint64(i))
	}

	// Start with every permit held; producers release one per signal.
	q.sem.TryAcquire(int64(n))

	return q
}

// Cap returns the number of slots.
func (q *Queue) Cap() int {
	return len(q.cells)
}

// TryAddWork enqueues fn with data. It returns false without blocking when
// every slot holds an unconsumed entry.
func (q *Queue) TryAddWork(fn WorkFunc, data any) bool {
	contract.Assert(fn != nil, "jobs: nil work callback")

	pos := q.write.Load()
	for {
		c := &q.cells[pos&q.mask]
		seq := c.seq.Load()

		switch diff := int64(seq - pos); {
		case diff == 0:
			if q.write.CompareAndSwap(pos, pos+1) {
				c.item = WorkItem{Callback: fn, Data: data}
				q.total.Add(1)
				c.seq.Store(pos + 1)
				q.signal()
				return true
			}
			pos = q.write.Load()
		case diff < 0:
			q.rejected.Add(1)
			return false
		default:
			pos = q.write.Load()
		}
	}
}

// TryDoNextWorkEntry claims the oldest published entry and runs it on the
// calling goroutine. It returns false when the queue is empty.
func (q *Queue) TryDoNextWorkEntry(threadIndex int) bool {
	pos := q.read.Load()
	for {
		c := &q.cells[pos&q.mask]
		seq := c.seq.Load()

		switch diff := int64(seq - (pos + 1)); {
		case diff == 0:
			if q.read.CompareAndSwap(pos, pos+1) {
				item := c.item
				c.item = WorkItem{}
				c.seq.Store(pos + q.mask + 1)

				item.Callback(threadIndex, q, item.Data)
				q.executed.Add(1)
				q.completed.Add(1)
				return true
			}
			pos = q.read.Load()
		case diff < 0:
			return false
		default:
			pos = q.read.Load()
		}
	}
}

// CompleteAllWork executes queued work on the calling goroutine until every
// submitted item has completed, then resets the submitted and completed
// counters. Only one goroutine may drain at a time.
func (q *Queue) CompleteAllWork(threadIndex int) {
	for q.completed.Load() != q.total.Load() {
		if !q.TryDoNextWorkEntry(threadIndex) {
			runtime.Gosched()
		}
	}

	// completed is lowered first so it never exceeds total.
	done := q.completed.Load()
	q.completed.Add(-done)
	q.total.Add(-done)
}

// Idle reports whether everything submitted since the last drain has
// completed.
func (q *Queue) Idle() bool {
	return q.completed.Load() == q.total.Load()
}

// Stats returns a snapshot of queue activity.
func (q *Queue) Stats() Stats {
	// Positions a producer has reserved but not yet published count as
	// pending.
	w, r := q.write.Load(), q.read.Load()
	pending := 0
	if w > r {
		pending = int(min(w-r, uint64(len(q.cells))))
	}

	return Stats{
		Capacity:  len(q.cells),
		Pending:   pending,
		Submitted: q.total.Load(),
		Completed: q.completed.Load(),
		Rejected:  q.rejected.Load(),
		Executed:  q.executed.Load(),
	}
}

// signal releases one permit to idle workers unless enough are already
// outstanding.
func (q *Queue) signal() {
	limit := int64(len(q.cells))
	for {
		w := q.wakeups.Load()
		if w >= limit {
			return
		}
		if q.wakeups.CompareAndSwap(w, w+1) {
			q.sem.Release(1)
			return
		}
	}
}

// wait blocks until a producer signals or ctx is done.
func (q *Queue) wait(ctx context.Context) error {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	q.wakeups.Add(-1)
	return nil
}
