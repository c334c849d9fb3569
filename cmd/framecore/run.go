package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hupe1980/framecore"
	"github.com/hupe1980/framecore/array"
	"github.com/hupe1980/framecore/hashtable"
	"github.com/hupe1980/framecore/jobs"
	"github.com/hupe1980/framecore/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type runOptions struct {
	frames      int
	jobs        int
	metricsAddr string
}

// RunSummary reports the outcome of a frame loop run.
type RunSummary struct {
	Frames            uint64        `json:"frames"`
	JobsPerFrame      int           `json:"jobs_per_frame"`
	Workers           int           `json:"workers"`
	AvgFrameLatency   time.Duration `json:"avg_frame_latency_ns"`
	MaxTransientBytes int64         `json:"max_transient_bytes"`
	DrainedItems      int64         `json:"drained_items"`
	Rejected          int64         `json:"rejected"`
	Checksum          float64       `json:"checksum"`
}

func newRunCmd(g *globalFlags) *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine frame loop with a synthetic workload",
		Long: `The run command starts an engine and runs frames. Each frame builds a
scratch array and hash table on the transient arena, fans jobs out to the
worker pool that write disjoint result slots, drains the queue, and folds
the results into a table on the permanent arena.

Example:
  framecore run --frames 600 --jobs 256
  framecore run --config engine.yaml --frames 0 --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sum, err := runFrames(ctx, cfg, g.logger(cfg), *o)
			if err != nil {
				return err
			}

			if g.jsonOut {
				return printJSON(cmd.OutOrStdout(), sum)
			}
			// Byte and item counts get thousands separators.
			p := message.NewPrinter(language.English)
			out := cmd.OutOrStdout()
			p.Fprintf(out, "Frames:              %d\n", sum.Frames)
			p.Fprintf(out, "Jobs per frame:      %d\n", sum.JobsPerFrame)
			p.Fprintf(out, "Workers:             %d\n", sum.Workers)
			p.Fprintf(out, "Avg frame latency:   %s\n", sum.AvgFrameLatency)
			p.Fprintf(out, "Max transient bytes: %d\n", sum.MaxTransientBytes)
			p.Fprintf(out, "Drained items:       %d\n", sum.DrainedItems)
			p.Fprintf(out, "Rejected:            %d\n", sum.Rejected)
			p.Fprintf(out, "Checksum:            %.3f\n", sum.Checksum)
			return nil
		},
	}

	cmd.Flags().IntVar(&o.frames, "frames", 60, "Number of frames to run (0 runs until interrupted)")
	cmd.Flags().IntVar(&o.jobs, "jobs", 64, "Jobs submitted per frame")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// frameStats lives in the permanent arena across frames.
type frameStats struct {
	Checksum float64
	Frames   uint64
}

// jobResult is one job's output slot in the transient arena.
type jobResult struct {
	Value float64
	Job   uint32
}

func runFrames(ctx context.Context, cfg framecore.Config, logger *framecore.Logger, o runOptions) (RunSummary, error) {
	if o.jobs < 0 {
		return RunSummary{}, fmt.Errorf("jobs must not be negative")
	}

	basic := &framecore.BasicMetricsObserver{}
	observers := multiObserver{basic}

	var reg *prometheus.Registry
	if o.metricsAddr != "" {
		reg = prometheus.NewRegistry()
		prom, err := metrics.NewPrometheusObserver(reg)
		if err != nil {
			return RunSummary{}, err
		}
		observers = append(observers, prom)
	}

	eng, err := framecore.NewContext(ctx, cfg,
		framecore.WithLogger(logger),
		framecore.WithMetricsObserver(observers),
	)
	if err != nil {
		return RunSummary{}, err
	}
	defer func() { _ = eng.Close() }()

	if reg != nil {
		reg.MustRegister(metrics.NewQueueCollector(eng.Queue()))
		if rc := eng.Resources(); rc != nil {
			if err := metrics.RegisterResources(reg, rc); err != nil {
				return RunSummary{}, err
			}
		}
		shutdown, err := serveMetrics(o.metricsAddr, reg, logger)
		if err != nil {
			return RunSummary{}, err
		}
		defer shutdown()
	}

	if err := eng.Start(ctx); err != nil {
		return RunSummary{}, err
	}

	stats, err := hashtable.New[frameStats](eng.Memory().Permanent, 0)
	if err != nil {
		return RunSummary{}, err
	}
	totals, err := stats.Add(hashtable.MustKey("totals"))
	if err != nil {
		return RunSummary{}, err
	}

	err = eng.RunFrames(ctx, o.frames, func(f *framecore.Frame) error {
		return syntheticFrame(f, o.jobs, totals)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return RunSummary{}, err
	}

	st := basic.Stats()
	return RunSummary{
		Frames:            totals.Frames,
		JobsPerFrame:      o.jobs,
		Workers:           eng.Pool().Workers(),
		AvgFrameLatency:   st.AvgFrameLatency,
		MaxTransientBytes: st.MaxTransientBytes,
		DrainedItems:      st.DrainedItems,
		Rejected:          st.RejectedSubmissions,
		Checksum:          totals.Checksum,
	}, nil
}

func syntheticFrame(f *framecore.Frame, n int, totals *frameStats) error {
	results, err := array.New[jobResult](f.Transient, n)
	if err != nil {
		return err
	}
	index, err := hashtable.New[uint32](f.Transient, 2*n)
	if err != nil {
		return err
	}

	for i := range n {
		slot, err := results.AppendSlot()
		if err != nil {
			return err
		}
		key, err := hashtable.NewKey(fmt.Sprintf("job/%d", i))
		if err != nil {
			return err
		}
		if err := index.AddValue(key, uint32(slot)); err != nil {
			return err
		}
	}

	out := results.Items()
	frame := float64(f.Index)
	for i := range out {
		for !f.Queue.TryAddWork(func(_ int, _ *jobs.Queue, data any) {
			j := data.(int)
			out[j] = jobResult{Value: math.Sqrt(float64(j) + frame), Job: uint32(j)}
		}, i) {
			f.Queue.TryDoNextWorkEntry(0)
		}
	}
	f.Queue.CompleteAllWork(0)

	var sum float64
	for i := range n {
		slot := index.GetValue(hashtable.MustKey(fmt.Sprintf("job/%d", i)))
		if slot == nil {
			return fmt.Errorf("job %d missing from index", i)
		}
		r := results.At(int(*slot))
		if r.Job != uint32(i) {
			return fmt.Errorf("job %d wrote slot of job %d", i, r.Job)
		}
		sum += r.Value
	}

	totals.Checksum += sum
	totals.Frames++
	f.Logger.Debug("synthetic frame", "jobs", n, "sum", sum)
	return nil
}

// multiObserver fans engine events out to several observers.
type multiObserver []framecore.MetricsObserver

func (m multiObserver) OnFrame(index uint64, d time.Duration, transientBytes int) {
	for _, o := range m {
		o.OnFrame(index, d, transientBytes)
	}
}

func (m multiObserver) OnDrain(items int64, d time.Duration) {
	for _, o := range m {
		o.OnDrain(items, d)
	}
}

func (m multiObserver) OnWorkRejected() {
	for _, o := range m {
		o.OnWorkRejected()
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *framecore.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
