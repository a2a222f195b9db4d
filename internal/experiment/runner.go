// Package experiment runs batches of independent simulations. Each run owns
// its own TaskGraph and Processor, so runs share no state and can execute in
// parallel; the simulation core itself stays single-threaded per run.
package experiment

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/schedsim/internal/events"
	"github.com/aristath/schedsim/internal/graph"
	"github.com/aristath/schedsim/internal/policy"
	"github.com/aristath/schedsim/internal/processor"
	"github.com/aristath/schedsim/internal/sched"
)

// Run describes one independent simulation: a graph, a policy, and a core
// count. Priorities are optional and only consulted by the fixed-priority
// policy.
type Run struct {
	ID         int
	Name       string
	Graph      *graph.TaskGraph
	Policy     policy.Policy
	Cores      int
	Priorities []int
}

// RunResult pairs a Run's identity with its scheduling outcome.
type RunResult struct {
	ID     int
	Name   string
	Policy string
	Cores  int
	Result *sched.Result
}

// Runner executes batches of runs with bounded parallelism, publishing run
// lifecycle events on the bus (which may be nil).
type Runner struct {
	bus         *events.EventBus
	parallelism int
}

// NewRunner creates a batch runner. parallelism <= 0 means one goroutine per
// run.
func NewRunner(bus *events.EventBus, parallelism int) *Runner {
	return &Runner{bus: bus, parallelism: parallelism}
}

// RunAll executes every run and returns results ordered as the input. It
// fails fast on the first configuration error (for example, a bad priority
// vector or core count) and cancels outstanding runs.
func (r *Runner) RunAll(ctx context.Context, runs []Run) ([]RunResult, error) {
	results := make([]RunResult, len(runs))
	var completed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	if r.parallelism > 0 {
		g.SetLimit(r.parallelism)
	}
	for i, run := range runs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.runOne(run)
			if err != nil {
				return fmt.Errorf("run %d (%s): %w", run.ID, run.Name, err)
			}
			results[i] = RunResult{
				ID:     run.ID,
				Name:   run.Name,
				Policy: run.Policy.Name(),
				Cores:  run.Cores,
				Result: res,
			}
			r.publishProgress(len(runs), int(completed.Add(1)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runOne(run Run) (*sched.Result, error) {
	r.publish(events.TopicRun, events.RunStartedEvent{
		ID:        run.ID,
		DAGName:   run.Name,
		Policy:    run.Policy.Name(),
		Cores:     run.Cores,
		Timestamp: time.Now(),
	})

	proc, err := processor.NewHomogeneous(run.Cores)
	if err != nil {
		return nil, err
	}
	s := sched.NewDAGScheduler(run.Graph, proc, run.Policy)
	if run.Priorities != nil {
		if err := s.SetPriorities(run.Priorities); err != nil {
			return nil, err
		}
	}
	res := s.Schedule()

	r.publish(events.TopicRun, events.RunFinishedEvent{
		ID:          run.ID,
		DAGName:     run.Name,
		Policy:      run.Policy.Name(),
		Cores:       run.Cores,
		Makespan:    res.Makespan,
		Schedulable: res.Schedulable,
		Timestamp:   time.Now(),
	})
	return res, nil
}

func (r *Runner) publishProgress(total, completed int) {
	r.publish(events.TopicBatch, events.BatchProgressEvent{
		Total:     total,
		Completed: completed,
		Timestamp: time.Now(),
	})
}

func (r *Runner) publish(topic string, e events.Event) {
	if r.bus != nil {
		r.bus.Publish(topic, e)
	}
}
