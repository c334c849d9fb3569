// Package metrics exports framecore statistics to Prometheus.
//
// PrometheusObserver implements framecore.MetricsObserver; QueueCollector and
// RegisterResources expose live queue and memory-budget state at scrape time.
//
//	reg := prometheus.NewRegistry()
//	obs, _ := metrics.NewPrometheusObserver(reg)
//	eng, _ := framecore.New(cfg, framecore.WithMetricsObserver(obs))
//	reg.MustRegister(metrics.NewQueueCollector(eng.Queue()))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics
