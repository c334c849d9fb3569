package main

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/hupe1980/framecore/jobs"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type scenarioOptions struct {
	slots   int
	items   int
	workers int
	timeout time.Duration
}

// ScenarioResult reports the outcome of one queue scenario run.
type ScenarioResult struct {
	Slots            int   `json:"slots"`
	Items            int   `json:"items"`
	Workers          int   `json:"workers"`
	Counter          int64 `json:"counter"`
	DoubleExecutions int   `json:"double_executions"`
	MissedExecutions int   `json:"missed_executions"`
	Submitted        int64 `json:"submitted"`
	Completed        int64 `json:"completed"`
	Retries          int   `json:"retries"`
}

// OK reports whether every item ran exactly once.
func (r ScenarioResult) OK() bool {
	return r.Counter == int64(r.Items) &&
		r.DoubleExecutions == 0 &&
		r.MissedExecutions == 0 &&
		r.Submitted == r.Completed
}

func newScenarioCmd(g *globalFlags) *cobra.Command {
	o := &scenarioOptions{}

	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Run the exactly-once queue scenario",
		Long: `The scenario command submits items to a fresh work queue, lets the
worker pool drain it, and checks that every item ran exactly once.

Example:
  framecore scenario
  framecore scenario --slots 8 --items 8 --workers 4
  framecore scenario --slots 64 --items 100000 --workers 8 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := runScenario(cmd.Context(), *o)
			if err != nil {
				return err
			}

			if g.jsonOut {
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else {
				p := message.NewPrinter(language.English)
				out := cmd.OutOrStdout()
				p.Fprintf(out, "Slots:             %d\n", res.Slots)
				p.Fprintf(out, "Items:             %d\n", res.Items)
				p.Fprintf(out, "Workers:           %d\n", res.Workers)
				p.Fprintf(out, "Counter:           %d\n", res.Counter)
				p.Fprintf(out, "Double executions: %d\n", res.DoubleExecutions)
				p.Fprintf(out, "Missed executions: %d\n", res.MissedExecutions)
				p.Fprintf(out, "Submitted:         %d\n", res.Submitted)
				p.Fprintf(out, "Completed:         %d\n", res.Completed)
				p.Fprintf(out, "Full-queue retries: %d\n", res.Retries)
			}

			if !res.OK() {
				return fmt.Errorf("scenario failed: counter %d of %d, %d double, %d missed",
					res.Counter, res.Items, res.DoubleExecutions, res.MissedExecutions)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&o.slots, "slots", 8, "Work queue capacity (rounded up to a power of two)")
	cmd.Flags().IntVar(&o.items, "items", 8, "Number of items to submit")
	cmd.Flags().IntVar(&o.workers, "workers", 4, "Number of pool workers")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 30*time.Second, "Give up waiting for the workers after this long")
	return cmd
}

func runScenario(ctx context.Context, o scenarioOptions) (ScenarioResult, error) {
	if o.items < 0 || o.workers < 0 {
		return ScenarioResult{}, fmt.Errorf("items and workers must not be negative")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	q := jobs.NewQueue(o.slots)
	pool := jobs.NewPool(q, jobs.WithWorkers(o.workers))
	if err := pool.Start(ctx); err != nil {
		return ScenarioResult{}, err
	}
	defer func() { _ = pool.Stop() }()

	var counter atomic.Int64
	flags := make([]atomic.Int32, o.items)
	work := func(_ int, _ *jobs.Queue, data any) {
		counter.Add(1)
		flags[data.(int)].Add(1)
	}

	res := ScenarioResult{Slots: q.Cap(), Items: o.items, Workers: pool.Workers()}

	for i := range o.items {
		for !q.TryAddWork(work, i) {
			res.Retries++
			if pool.Workers() == 0 {
				q.TryDoNextWorkEntry(0)
			} else {
				runtime.Gosched()
			}
		}
	}

	// Wait for the workers to finish so the counters can be read before the
	// barrier resets them.
	deadline := time.Now().Add(o.timeout)
	for !q.Idle() {
		if pool.Workers() == 0 {
			q.TryDoNextWorkEntry(0)
			continue
		}
		if time.Now().After(deadline) {
			return res, fmt.Errorf("workers did not drain %d items within %s", o.items, o.timeout)
		}
		time.Sleep(time.Millisecond)
	}

	st := q.Stats()
	res.Submitted, res.Completed = st.Submitted, st.Completed
	q.CompleteAllWork(0)

	res.Counter = counter.Load()
	for i := range flags {
		switch n := flags[i].Load(); {
		case n == 0:
			res.MissedExecutions++
		case n > 1:
			res.DoubleExecutions++
		}
	}
	return res, nil
}
