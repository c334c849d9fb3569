package metrics

import (
	"time"

	"github.com/hupe1980/framecore"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "framecore"

var _ framecore.MetricsObserver = (*PrometheusObserver)(nil)

// PrometheusObserver records engine events as Prometheus metrics.
type PrometheusObserver struct {
	frameLatency   prometheus.Histogram
	frames         prometheus.Counter
	transientBytes prometheus.Gauge
	drainLatency   prometheus.Histogram
	drainedItems   prometheus.Counter
	rejected       prometheus.Counter
}

// NewPrometheusObserver creates an observer and registers its metrics with
// reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		frameLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Wall time of each frame, including the drain barrier.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total frames run.",
		}),
		transientBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame_transient_bytes",
			Help:      "Transient arena bytes used by the last frame.",
		}),
		drainLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "drain_duration_seconds",
			Help:      "Time spent in the drain barrier.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		drainedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drained_items_total",
			Help:      "Work items waited for by drain barriers.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_rejected_total",
			Help:      "Submissions rejected because the queue was full.",
		}),
	}

	for _, c := range []prometheus.Collector{
		o.frameLatency, o.frames, o.transientBytes,
		o.drainLatency, o.drainedItems, o.rejected,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnFrame implements framecore.MetricsObserver.
func (o *PrometheusObserver) OnFrame(_ uint64, d time.Duration, transientBytes int) {
	o.frameLatency.Observe(d.Seconds())
	o.frames.Inc()
	o.transientBytes.Set(float64(transientBytes))
}

// OnDrain implements framecore.MetricsObserver.
func (o *PrometheusObserver) OnDrain(items int64, d time.Duration) {
	o.drainLatency.Observe(d.Seconds())
	o.drainedItems.Add(float64(items))
}

// OnWorkRejected implements framecore.MetricsObserver.
func (o *PrometheusObserver) OnWorkRejected() {
	o.rejected.Inc()
}
