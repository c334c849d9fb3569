package jobs

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// MaxWorkers caps the number of pool workers.
const MaxWorkers = 256

var (
	// ErrPoolRunning is returned by Start when the pool is already running.
	ErrPoolRunning = errors.New("jobs: pool already running")
	// ErrPoolStopped is returned by Start after Stop.
	ErrPoolStopped = errors.New("jobs: pool stopped")
)

// DefaultWorkerCount returns the number of logical CPUs minus one (the
// submitting goroutine), clamped to [0, MaxWorkers].
func DefaultWorkerCount() int {
	return min(max(runtime.NumCPU()-1, 0), MaxWorkers)
}

type poolOptions struct {
	workers int
	logger  *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*poolOptions)

// WithWorkers sets the worker count. Negative values select
// DefaultWorkerCount; values above MaxWorkers are clamped.
func WithWorkers(n int) PoolOption {
	return func(o *poolOptions) {
		if n < 0 {
			n = DefaultWorkerCount()
		}
		o.workers = min(n, MaxWorkers)
	}
}

// WithLogger sets the logger for worker lifecycle events.
func WithLogger(l *slog.Logger) PoolOption {
	return func(o *poolOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Pool is a fixed set of worker goroutines draining a Queue.
type Pool struct {
	queue   *Queue
	workers int
	logger  *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	group   *errgroup.Group
	stopped bool
}

// NewPool creates a pool for q. Workers are not started until Start.
func NewPool(q *Queue, opts ...PoolOption) *Pool {
	o := poolOptions{
		workers: DefaultWorkerCount(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Pool{
		queue:   q,
		workers: o.workers,
		logger:  o.logger,
	}
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Queue returns the queue the pool drains.
func (p *Pool) Queue() *Queue {
	return p.queue
}

// Start launches the workers with thread indices 1..n. They run until ctx is
// canceled or Stop is called.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrPoolStopped
	}
	if p.group != nil {
		return ErrPoolRunning
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)

	for i := 1; i <= p.workers; i++ {
		p.group.Go(func() error {
			return p.work(ctx, i)
		})
	}

	p.logger.Debug("worker pool started", "workers", p.workers, "capacity", p.queue.Cap())
	return nil
}

func (p *Pool) work(ctx context.Context, index int) error {
	for {
		if ctx.Err() != nil {
			p.logger.Debug("worker stopped", "thread", index)
			return nil
		}
		if p.queue.TryDoNextWorkEntry(index) {
			continue
		}
		if err := p.queue.wait(ctx); err != nil {
			p.logger.Debug("worker stopped", "thread", index)
			return nil
		}
	}
}

// Stop cancels the workers, waking every idle one, and waits for them to
// exit. Queued work that has not been claimed stays in the queue. Stop is
// idempotent.
func (p *Pool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true

	if p.group == nil {
		return nil
	}

	p.cancel()
	err := p.group.Wait()
	p.logger.Debug("worker pool stopped", "executed", p.queue.Stats().Executed)
	return err
}

// Shutdown drains the queue on the calling goroutine, then stops the pool.
func (p *Pool) Shutdown() error {
	p.queue.CompleteAllWork(0)
	return p.Stop()
}
