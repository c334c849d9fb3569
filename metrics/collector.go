package metrics

import (
	"github.com/hupe1980/framecore/jobs"
	"github.com/hupe1980/framecore/resource"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	queueCapacityDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "queue", "capacity"),
		"Number of slots in the work queue.", nil, nil)
	queuePendingDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "queue", "pending"),
		"Work items reserved by producers and not yet claimed.", nil, nil)
	queueExecutedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "queue", "executed_total"),
		"Work items executed over the queue's lifetime.", nil, nil)
	queueRejectedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "queue", "rejected_total"),
		"Submissions that found the queue full.", nil, nil)
)

// QueueCollector exposes jobs.Queue statistics at scrape time.
type QueueCollector struct {
	queue *jobs.Queue
}

// NewQueueCollector creates a collector for q.
func NewQueueCollector(q *jobs.Queue) *QueueCollector {
	return &QueueCollector{queue: q}
}

// Describe implements prometheus.Collector.
func (c *QueueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- queueCapacityDesc
	ch <- queuePendingDesc
	ch <- queueExecutedDesc
	ch <- queueRejectedDesc
}

// Collect implements prometheus.Collector.
func (c *QueueCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.queue.Stats()
	ch <- prometheus.MustNewConstMetric(queueCapacityDesc, prometheus.GaugeValue, float64(st.Capacity))
	ch <- prometheus.MustNewConstMetric(queuePendingDesc, prometheus.GaugeValue, float64(st.Pending))
	ch <- prometheus.MustNewConstMetric(queueExecutedDesc, prometheus.CounterValue, float64(st.Executed))
	ch <- prometheus.MustNewConstMetric(queueRejectedDesc, prometheus.CounterValue, float64(st.Rejected))
}

// RegisterResources registers gauges for the memory budget tracked by rc.
func RegisterResources(reg prometheus.Registerer, rc *resource.Controller) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "usage_bytes",
			Help:      "Managed memory currently charged to the budget.",
		}, func() float64 { return float64(rc.MemoryUsage()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "peak_bytes",
			Help:      "Highest managed memory usage observed.",
		}, func() float64 { return float64(rc.MemoryPeak()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "limit_bytes",
			Help:      "Memory budget limit (0 when unlimited).",
		}, func() float64 { return float64(rc.MemoryLimit()) }),
	}

	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
