package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aristath/schedsim/internal/config"
	"github.com/aristath/schedsim/internal/dagio"
	"github.com/aristath/schedsim/internal/events"
	"github.com/aristath/schedsim/internal/experiment"
	"github.com/aristath/schedsim/internal/persistence"
	"github.com/aristath/schedsim/internal/policy"
	"github.com/aristath/schedsim/internal/processor"
	"github.com/aristath/schedsim/internal/sched"
)

func main() {
	if err := run(); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dagFile    = flag.String("f", "", "path to a single DAG YAML file")
		dagDir     = flag.String("d", "", "path to a directory of DAG YAML files (DAG-set run)")
		cores      = flag.Int("c", 0, "number of processor cores (overrides config)")
		policyName = flag.String("p", "", "ordering policy: edf, fixed_priority, critical_path (overrides config)")
		releases   = flag.String("r", "", "comma-separated release ticks for DAG-set runs, e.g. 0,2,5")
		outputDir  = flag.String("o", "", "output directory for YAML reports (overrides config)")
		configPath = flag.String("config", filepath.Join(".schedsim", "config.json"), "path to config file")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *cores > 0 {
		cfg.Cores = *cores
	}
	if *policyName != "" {
		cfg.Policy = *policyName
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	pol, err := policy.ByName(cfg.Policy)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var store persistence.Store
	if cfg.ResultsDB != "" {
		s, err := persistence.NewSQLiteStore(ctx, cfg.ResultsDB)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	switch {
	case *dagFile != "" && *dagDir != "":
		return fmt.Errorf("use either -f or -d, not both")
	case *dagFile != "":
		return runSingle(ctx, cfg, pol, *dagFile, store)
	case *dagDir != "":
		return runSet(ctx, cfg, pol, *dagDir, *releases, store)
	default:
		return fmt.Errorf("either -f or -d is required")
	}
}

func runSingle(ctx context.Context, cfg *config.SimConfig, pol policy.Policy, dagFile string, store persistence.Store) error {
	g, err := dagio.LoadDAG(dagFile)
	if err != nil {
		return err
	}
	name := filepath.Base(dagFile)

	bus := events.NewEventBus()
	defer bus.Close()
	done := make(chan struct{})
	go logRunEvents(bus.Subscribe(events.TopicRun, 0), done)

	runner := experiment.NewRunner(bus, cfg.Parallelism)
	results, err := runner.RunAll(ctx, []experiment.Run{{
		ID:     0,
		Name:   name,
		Graph:  g,
		Policy: pol,
		Cores:  cfg.Cores,
	}})
	if err != nil {
		return err
	}
	bus.Close()
	<-done

	res := results[0].Result
	path := dagio.ReportPath(cfg.OutputDir, pol.Name())
	if err := dagio.WriteYAML(path, dagio.NewReport(pol.Name(), g, cfg.Cores, res)); err != nil {
		return err
	}
	slog.Info("report written", "path", path, "makespan", res.Makespan, "schedulable", res.Schedulable)

	if store != nil {
		return saveRecord(ctx, store, name, pol.Name(), cfg.Cores, res.Makespan, res.Schedulable,
			res.Log.Processor.AverageUtilization, res.Log.Processor.VarianceUtilization)
	}
	return nil
}

func runSet(ctx context.Context, cfg *config.SimConfig, pol policy.Policy, dagDir, releases string, store persistence.Store) error {
	graphs, err := dagio.LoadDAGSet(dagDir)
	if err != nil {
		return err
	}
	releaseTimes, err := parseReleases(releases, len(graphs))
	if err != nil {
		return err
	}

	entries := make([]sched.DAGEntry, len(graphs))
	for i, g := range graphs {
		entries[i] = sched.DAGEntry{Graph: g, Release: releaseTimes[i]}
	}
	proc, err := processor.NewHomogeneous(cfg.Cores)
	if err != nil {
		return err
	}
	s, err := sched.NewDAGSetScheduler(entries, proc, pol)
	if err != nil {
		return err
	}
	res := s.Schedule()

	path := dagio.ReportPath(cfg.OutputDir, pol.Name()+"-set")
	if err := dagio.WriteYAML(path, dagio.NewSetReport(pol.Name(), entries, cfg.Cores, res)); err != nil {
		return err
	}
	slog.Info("report written", "path", path, "makespan", res.Makespan, "schedulable", res.Schedulable, "dags", len(entries))

	if store != nil {
		return saveRecord(ctx, store, filepath.Base(dagDir), pol.Name(), cfg.Cores, res.Makespan, res.Schedulable,
			res.Log.Processor.AverageUtilization, res.Log.Processor.VarianceUtilization)
	}
	return nil
}

// parseReleases parses a comma-separated release list. An empty list means
// every DAG releases at t=0.
func parseReleases(s string, numDAGs int) ([]int, error) {
	releases := make([]int, numDAGs)
	if s == "" {
		return releases, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != numDAGs {
		return nil, fmt.Errorf("got %d release times for %d DAGs", len(parts), numDAGs)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid release time %q: %w", p, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("release time must not be negative, got %d", v)
		}
		releases[i] = v
	}
	return releases, nil
}

func logRunEvents(ch <-chan events.Event, done chan<- struct{}) {
	defer close(done)
	for e := range ch {
		switch ev := e.(type) {
		case events.RunStartedEvent:
			slog.Info("run started", "run", ev.ID, "dag", ev.DAGName, "policy", ev.Policy, "cores", ev.Cores)
		case events.RunFinishedEvent:
			slog.Info("run finished", "run", ev.ID, "dag", ev.DAGName, "makespan", ev.Makespan, "schedulable", ev.Schedulable)
		}
	}
}

func saveRecord(ctx context.Context, store persistence.Store, name, pol string, cores, makespan int, schedulable bool, avgUtil, varUtil float64) error {
	id, err := store.SaveRun(ctx, &persistence.RunRecord{
		DAGName:             name,
		Policy:              pol,
		Cores:               cores,
		Makespan:            makespan,
		Schedulable:         schedulable,
		AverageUtilization:  avgUtil,
		VarianceUtilization: varUtil,
	})
	if err != nil {
		return err
	}
	slog.Info("run recorded", "id", id)
	return nil
}
