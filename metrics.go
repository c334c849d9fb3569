package framecore

import (
	"sync/atomic"
	"time"
)

// MetricsObserver receives engine events. Implement it to integrate with a
// monitoring system; see the metrics package for a Prometheus version.
type MetricsObserver interface {
	// OnFrame is called after each frame with its wall time and the bytes
	// the frame allocated from the transient arena.
	OnFrame(index uint64, duration time.Duration, transientBytes int)

	// OnDrain is called after each drain barrier with the number of items it
	// waited for.
	OnDrain(items int64, duration time.Duration)

	// OnWorkRejected is called when a submission finds the queue full.
	OnWorkRejected()
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnFrame(uint64, time.Duration, int) {}
func (NoopMetricsObserver) OnDrain(int64, time.Duration)       {}
func (NoopMetricsObserver) OnWorkRejected()                    {}

// BasicMetricsObserver provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsObserver struct {
	FrameCount          atomic.Int64
	FrameTotalNanos     atomic.Int64
	MaxTransientBytes   atomic.Int64
	DrainCount          atomic.Int64
	DrainedItems        atomic.Int64
	DrainTotalNanos     atomic.Int64
	RejectedSubmissions atomic.Int64
}

// OnFrame implements MetricsObserver.
func (b *BasicMetricsObserver) OnFrame(_ uint64, duration time.Duration, transientBytes int) {
	b.FrameCount.Add(1)
	b.FrameTotalNanos.Add(duration.Nanoseconds())

	n := int64(transientBytes)
	for {
		cur := b.MaxTransientBytes.Load()
		if n <= cur || b.MaxTransientBytes.CompareAndSwap(cur, n) {
			break
		}
	}
}

// OnDrain implements MetricsObserver.
func (b *BasicMetricsObserver) OnDrain(items int64, duration time.Duration) {
	b.DrainCount.Add(1)
	b.DrainedItems.Add(items)
	b.DrainTotalNanos.Add(duration.Nanoseconds())
}

// OnWorkRejected implements MetricsObserver.
func (b *BasicMetricsObserver) OnWorkRejected() {
	b.RejectedSubmissions.Add(1)
}

// AverageFrameLatency returns the mean frame time.
func (b *BasicMetricsObserver) AverageFrameLatency() time.Duration {
	count := b.FrameCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(b.FrameTotalNanos.Load() / count)
}

// AverageDrainLatency returns the mean drain barrier time.
func (b *BasicMetricsObserver) AverageDrainLatency() time.Duration {
	count := b.DrainCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(b.DrainTotalNanos.Load() / count)
}

// Stats returns a snapshot of the collected metrics.
func (b *BasicMetricsObserver) Stats() MetricsStats {
	return MetricsStats{
		FrameCount:          b.FrameCount.Load(),
		AvgFrameLatency:     b.AverageFrameLatency(),
		MaxTransientBytes:   b.MaxTransientBytes.Load(),
		DrainCount:          b.DrainCount.Load(),
		DrainedItems:        b.DrainedItems.Load(),
		AvgDrainLatency:     b.AverageDrainLatency(),
		RejectedSubmissions: b.RejectedSubmissions.Load(),
	}
}

// MetricsStats is a snapshot of metrics.
type MetricsStats struct {
	FrameCount          int64
	AvgFrameLatency     time.Duration
	MaxTransientBytes   int64
	DrainCount          int64
	DrainedItems        int64
	AvgDrainLatency     time.Duration
	RejectedSubmissions int64
}
