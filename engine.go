package framecore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/framecore/alloc"
	"github.com/hupe1980/framecore/jobs"
	"github.com/hupe1980/framecore/resource"
	"golang.org/x/time/rate"
)

// Engine owns the memory block, the work queue, and the worker pool. It
// replaces process-wide allocator and logger singletons: construct it once
// and pass it to whatever needs them.
//
// Submit may be called from any goroutine. Drain and RunFrames must be
// called from a single goroutine, which acts as thread index 0.
type Engine struct {
	cfg       Config
	logger    *Logger
	observer  MetricsObserver
	resources *resource.Controller
	memory    *alloc.Memory
	queue     *jobs.Queue
	pool      *jobs.Pool
	pacer     *rate.Limiter

	frame uint64

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// New validates cfg, reserves memory, and builds the queue and pool. Workers
// are started by Start. New fails immediately when the memory budget cannot
// cover the reservation.
func New(cfg Config, optFns ...Option) (*Engine, error) {
	return newEngine(cfg, optFns, func(rc *resource.Controller) (*alloc.Memory, error) {
		return alloc.ReserveMemory(cfg.PermanentBytes, cfg.TransientBytes, alloc.WithMemoryBudget(rc))
	})
}

// NewContext is like New but waits until ctx is done for a shared budget
// (see WithResourceController) to make room for the reservation.
func NewContext(ctx context.Context, cfg Config, optFns ...Option) (*Engine, error) {
	return newEngine(cfg, optFns, func(rc *resource.Controller) (*alloc.Memory, error) {
		return alloc.ReserveMemoryContext(ctx, cfg.PermanentBytes, cfg.TransientBytes, alloc.WithMemoryBudget(rc))
	})
}

func newEngine(cfg Config, optFns []Option, reserve func(*resource.Controller) (*alloc.Memory, error)) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)

	logger := o.logger
	if logger == nil {
		level, _ := ParseLevel(cfg.LogLevel)
		logger = NewTextLogger(level)
	}

	rc := o.resources
	if rc == nil && cfg.MemoryLimitBytes > 0 {
		rc = resource.NewController(resource.Config{MemoryLimitBytes: cfg.MemoryLimitBytes})
	}

	mem, err := reserve(rc)
	if err != nil {
		return nil, fmt.Errorf("reserve engine memory: %w", err)
	}

	queue := jobs.NewQueue(cfg.QueueCapacity)
	pool := jobs.NewPool(queue,
		jobs.WithWorkers(cfg.Workers),
		jobs.WithLogger(logger.Logger),
	)

	var pacer *rate.Limiter
	if cfg.TargetFPS > 0 {
		pacer = rate.NewLimiter(rate.Limit(cfg.TargetFPS), 1)
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		observer:  o.observer,
		resources: rc,
		memory:    mem,
		queue:     queue,
		pool:      pool,
		pacer:     pacer,
	}

	logger.LogStartup(pool.Workers(), queue.Cap(), cfg.PermanentBytes, cfg.TransientBytes)
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Logger returns the engine logger.
func (e *Engine) Logger() *Logger { return e.logger }

// Memory returns the reserved memory block.
func (e *Engine) Memory() *alloc.Memory { return e.memory }

// Queue returns the work queue.
func (e *Engine) Queue() *jobs.Queue { return e.queue }

// Pool returns the worker pool.
func (e *Engine) Pool() *jobs.Pool { return e.pool }

// Resources returns the memory budget, or nil when unlimited.
func (e *Engine) Resources() *resource.Controller { return e.resources }

// Start launches the worker pool.
func (e *Engine) Start(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.pool.Start(ctx)
}

// Submit enqueues work without blocking. It returns false when the queue is
// full.
func (e *Engine) Submit(fn jobs.WorkFunc, data any) bool {
	if e.queue.TryAddWork(fn, data) {
		return true
	}
	e.observer.OnWorkRejected()
	e.logger.LogWorkRejected(e.queue.Stats().Pending, e.queue.Cap())
	return false
}

// Drain executes queued work on the calling goroutine until everything
// submitted so far has completed.
func (e *Engine) Drain() {
	start := time.Now()
	items := e.queue.Stats().Submitted

	e.queue.CompleteAllWork(0)

	elapsed := time.Since(start)
	e.observer.OnDrain(items, elapsed)
	e.logger.LogDrain(items, elapsed)
}

// RunFrames runs n frames, or until ctx is done when n <= 0. Each frame
// waits for the pacer, calls fn, drains the queue, and rewinds the transient
// arena. The queue is drained even when fn fails, since queued work may
// still reference transient memory.
func (e *Engine) RunFrames(ctx context.Context, n int, fn FrameFunc) error {
	if e.closed.Load() {
		return ErrClosed
	}

	for i := 0; n <= 0 || i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.pacer != nil {
			if err := e.pacer.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				// The next frame would start past the deadline.
				return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
			}
		}
		if err := e.runFrame(ctx, fn); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runFrame(ctx context.Context, fn FrameFunc) error {
	index := e.frame
	e.frame++

	start := time.Now()
	transient := e.memory.Transient
	checkpoint := transient.SaveState()

	err := fn(&Frame{
		Index:     index,
		Permanent: e.memory.Permanent,
		Transient: transient,
		Queue:     e.queue,
		Logger:    e.logger.WithFrame(index),
		ctx:       ctx,
	})
	e.Drain()

	used := max(transient.Used()-checkpoint.Used, 0)
	transient.LoadState(checkpoint)

	elapsed := time.Since(start)
	e.observer.OnFrame(index, elapsed, used)
	e.logger.LogFrame(index, elapsed, used, err)

	if err != nil {
		return fmt.Errorf("frame %d: %w", index, err)
	}
	return nil
}

// Frames returns the number of frames run so far.
func (e *Engine) Frames() uint64 { return e.frame }

// Close drains outstanding work, stops the workers, and releases the memory
// block. Close is idempotent.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		e.closeErr = errors.Join(
			e.pool.Shutdown(),
			e.memory.Close(),
		)
	})
	return e.closeErr
}
