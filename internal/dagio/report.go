package dagio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aristath/schedsim/internal/graph"
	"github.com/aristath/schedsim/internal/runlog"
	"github.com/aristath/schedsim/internal/sched"
)

// GraphInfo summarizes one graph's static metrics for a report header.
type GraphInfo struct {
	CriticalPathLength int     `yaml:"critical_path_length"`
	Volume             int     `yaml:"volume"`
	EndToEndDeadline   int     `yaml:"end_to_end_deadline"`
	Utilization        float64 `yaml:"utilization"`
}

// ProcessorInfo summarizes the platform used for a run.
type ProcessorInfo struct {
	NumberOfCores int `yaml:"number_of_cores"`
}

// Report is the serialized record of one finished single-DAG run.
type Report struct {
	Policy      string         `yaml:"policy"`
	Makespan    int            `yaml:"makespan"`
	Schedulable bool           `yaml:"schedulable"`
	FinishOrder []int          `yaml:"finish_order"`
	Graph       GraphInfo      `yaml:"graph"`
	Processor   ProcessorInfo  `yaml:"processor"`
	Log         *runlog.RunLog `yaml:"log"`
}

// SetReport is the serialized record of one finished DAG-set run.
type SetReport struct {
	Policy      string         `yaml:"policy"`
	Makespan    int            `yaml:"makespan"`
	Schedulable bool           `yaml:"schedulable"`
	Graphs      []GraphInfo    `yaml:"graphs"`
	Processor   ProcessorInfo  `yaml:"processor"`
	Log         *runlog.RunLog `yaml:"log"`
}

func graphInfo(g *graph.TaskGraph) GraphInfo {
	return GraphInfo{
		CriticalPathLength: g.CriticalPathLength(),
		Volume:             g.Volume(),
		EndToEndDeadline:   g.EndToEndDeadline(),
		Utilization:        g.Utilization(),
	}
}

// NewReport assembles a single-DAG run report.
func NewReport(policyName string, g *graph.TaskGraph, numCores int, res *sched.Result) *Report {
	return &Report{
		Policy:      policyName,
		Makespan:    res.Makespan,
		Schedulable: res.Schedulable,
		FinishOrder: res.FinishOrder,
		Graph:       graphInfo(g),
		Processor:   ProcessorInfo{NumberOfCores: numCores},
		Log:         res.Log,
	}
}

// NewSetReport assembles a DAG-set run report.
func NewSetReport(policyName string, entries []sched.DAGEntry, numCores int, res *sched.SetResult) *SetReport {
	infos := make([]GraphInfo, len(entries))
	for i, e := range entries {
		infos[i] = graphInfo(e.Graph)
	}
	return &SetReport{
		Policy:      policyName,
		Makespan:    res.Makespan,
		Schedulable: res.Schedulable,
		Graphs:      infos,
		Processor:   ProcessorInfo{NumberOfCores: numCores},
		Log:         res.Log,
	}
}

// WriteYAML marshals any report value to YAML at the given path, creating
// parent directories as needed.
func WriteYAML(path string, report any) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReportPath builds a timestamped report filename under dir for the named
// scheduler, e.g. 2026-08-25-14-03-59-edf.yaml.
func ReportPath(dir, name string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", time.Now().Format("2006-01-02-15-04-05"), name))
}
