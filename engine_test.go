package framecore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/framecore/alloc"
	"github.com/hupe1980/framecore/array"
	"github.com/hupe1980/framecore/hashtable"
	"github.com/hupe1980/framecore/jobs"
	"github.com/hupe1980/framecore/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PermanentBytes = 1 << 16
	cfg.TransientBytes = 1 << 16
	cfg.QueueCapacity = 64
	cfg.Workers = 2
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(NoopLogger())}, opts...)
	e, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })
	return e
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = -5

	_, err := New(cfg)
	var invalid *ErrInvalidConfig
	assert.ErrorAs(t, err, &invalid)
}

func TestNew_MemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 16})

	_, err := New(testConfig(), WithLogger(NoopLogger()), WithResourceController(rc))
	assert.ErrorIs(t, err, alloc.ErrOutOfMemory)
	assert.Equal(t, int64(0), rc.MemoryUsage())

	cfg := testConfig()
	cfg.MemoryLimitBytes = 1 << 18
	e := newTestEngine(t, cfg)
	require.NotNil(t, e.Resources())
	assert.Equal(t, int64(1<<17), e.Resources().MemoryUsage())
}

func TestNewContext_WaitsForSharedBudget(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 17})

	first, err := NewContext(t.Context(), testConfig(), WithLogger(NoopLogger()), WithResourceController(rc))
	require.NoError(t, err)

	done := make(chan *Engine, 1)
	go func() {
		second, err := NewContext(t.Context(), testConfig(), WithLogger(NoopLogger()), WithResourceController(rc))
		assert.NoError(t, err)
		done <- second
	}()

	select {
	case <-done:
		t.Fatal("second engine reserved memory while the budget was exhausted")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, first.Close())

	select {
	case second := <-done:
		require.NotNil(t, second)
		assert.Equal(t, int64(1<<17), rc.MemoryUsage())
		require.NoError(t, second.Close())
	case <-time.After(5 * time.Second):
		t.Fatal("second engine never got the released budget")
	}
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func TestNewContext_Canceled(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 17})
	first, err := New(testConfig(), WithLogger(NoopLogger()), WithResourceController(rc))
	require.NoError(t, err)
	defer first.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err = NewContext(ctx, testConfig(), WithLogger(NoopLogger()), WithResourceController(rc))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(1<<17), rc.MemoryUsage())
}

func TestEngine_Layout(t *testing.T) {
	e := newTestEngine(t, testConfig())

	assert.Equal(t, 1<<16, e.Memory().Permanent.Cap())
	assert.Equal(t, 1<<16, e.Memory().Transient.Cap())
	assert.Equal(t, 64, e.Queue().Cap())
	assert.Equal(t, 2, e.Pool().Workers())
	assert.Nil(t, e.Resources())
}

func TestEngine_RunFramesRewindsTransient(t *testing.T) {
	obs := &BasicMetricsObserver{}
	e := newTestEngine(t, testConfig(), WithMetricsObserver(obs))
	require.NoError(t, e.Start(t.Context()))

	var offsets []int
	err := e.RunFrames(t.Context(), 5, func(f *Frame) error {
		before := f.Transient.Used()
		buf, err := f.Transient.Allocate(1000)
		if err != nil {
			return err
		}
		offsets = append(offsets, before)
		assert.Len(t, buf, 1000)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0, 0, 0}, offsets)
	assert.Equal(t, 0, e.Memory().Transient.Used())
	assert.Equal(t, uint64(5), e.Frames())

	st := obs.Stats()
	assert.Equal(t, int64(5), st.FrameCount)
	assert.Equal(t, int64(5), st.DrainCount)
	assert.Equal(t, int64(1000), st.MaxTransientBytes)
}

func TestEngine_FrameJobsAndContainers(t *testing.T) {
	e := newTestEngine(t, testConfig())
	require.NoError(t, e.Start(t.Context()))

	names, err := hashtable.New[int32](e.Memory().Permanent, 0)
	require.NoError(t, err)

	err = e.RunFrames(t.Context(), 3, func(f *Frame) error {
		results, err := array.New[int64](f.Transient, 32)
		if err != nil {
			return err
		}
		for range 32 {
			if _, err := results.AppendSlot(); err != nil {
				return err
			}
		}

		out := results.Items()
		for i := range out {
			require.True(t, f.Queue.TryAddWork(func(_ int, _ *jobs.Queue, data any) {
				idx := data.(int)
				out[idx] = int64(idx * idx)
			}, i))
		}

		// Drain inside the frame to read the results before the rewind.
		f.Queue.CompleteAllWork(0)
		var sum int64
		for _, v := range out {
			sum += v
		}

		key := hashtable.MustKey("frame/" + string(rune('a'+f.Index)))
		return names.AddValue(key, int32(sum))
	})
	require.NoError(t, err)

	for i := range 3 {
		v, ok := names.Get(hashtable.MustKey("frame/" + string(rune('a'+i))))
		require.True(t, ok)
		assert.Equal(t, int32(10416), v)
	}
}

func TestEngine_FrameErrorStillDrains(t *testing.T) {
	e := newTestEngine(t, testConfig())

	var ran atomic.Int32
	boom := errors.New("boom")
	err := e.RunFrames(t.Context(), 3, func(f *Frame) error {
		e.Submit(func(int, *jobs.Queue, any) { ran.Add(1) }, nil)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, uint64(1), e.Frames())
	assert.True(t, e.Queue().Idle())
}

func TestEngine_SubmitRejected(t *testing.T) {
	obs := &BasicMetricsObserver{}
	cfg := testConfig()
	cfg.QueueCapacity = 2
	e := newTestEngine(t, cfg, WithMetricsObserver(obs))

	noop := func(int, *jobs.Queue, any) {}
	assert.True(t, e.Submit(noop, nil))
	assert.True(t, e.Submit(noop, nil))
	assert.False(t, e.Submit(noop, nil))
	assert.Equal(t, int64(1), obs.Stats().RejectedSubmissions)

	e.Drain()
	assert.Equal(t, int64(2), obs.Stats().DrainedItems)
	assert.True(t, e.Submit(noop, nil))
}

func TestEngine_RunFramesUntilCanceled(t *testing.T) {
	cfg := testConfig()
	cfg.TargetFPS = 500
	e := newTestEngine(t, cfg)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	err := e.RunFrames(ctx, 0, func(*Frame) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, e.Frames())
	assert.Less(t, e.Frames(), uint64(100), "frames are paced")
}

func TestEngine_Close(t *testing.T) {
	e, err := New(testConfig(), WithLogger(NoopLogger()))
	require.NoError(t, err)
	require.NoError(t, e.Start(t.Context()))

	var ran atomic.Int32
	for range 10 {
		require.True(t, e.Submit(func(int, *jobs.Queue, any) { ran.Add(1) }, nil))
	}

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.Equal(t, int32(10), ran.Load())

	assert.ErrorIs(t, e.Start(t.Context()), ErrClosed)
	assert.ErrorIs(t, e.RunFrames(t.Context(), 1, func(*Frame) error { return nil }), ErrClosed)
}
