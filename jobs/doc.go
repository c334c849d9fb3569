// Package jobs implements a bounded lock-free work queue and the fixed pool
// of workers that drains it.
//
// # Queue
//
// Queue is a multi-producer, multi-consumer ring of WorkItems. Each cell
// carries a sequence number, so a producer only writes a cell once its
// previous entry has been consumed and a consumer only reads a cell once its
// entry has been published. Both positions are claimed with compare-and-swap,
// which gives every submitted item exactly one executor and FIFO claim order.
//
// TryAddWork never blocks: when every slot holds an unconsumed entry it
// returns false and the caller decides whether to retry or drop.
//
// # Drain barrier
//
// CompleteAllWork makes the calling goroutine execute queued work itself
// until everything submitted so far has completed, then resets the counters.
// Thread index 0 is reserved for that caller; workers use 1..n.
//
//	q := jobs.NewQueue(4096)
//	pool := jobs.NewPool(q, jobs.WithWorkers(3))
//	_ = pool.Start(ctx)
//	defer pool.Shutdown()
//
//	q.TryAddWork(func(thread int, q *jobs.Queue, data any) {
//	    process(data.(*Chunk))
//	}, chunk)
//	q.CompleteAllWork(0)
//
// # Shutdown
//
// Workers block on a semaphore while idle. Stop cancels the pool context,
// which wakes every blocked worker at once; Shutdown drains the queue first.
package jobs
