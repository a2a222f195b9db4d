// Package runlog accumulates the observable output of a simulation run:
// per-node allocation events, per-core busy time, and per-DAG timing. A log
// lives exactly as long as its run, is mutated only by the scheduler that
// owns it, and becomes read-only when the run completes. Serialization is
// somebody else's job; these types just carry the numbers.
package runlog

// NodeEvent records one node's allocation: which core ran it and when. Events
// are appended in allocation order. Finish stays -1 until the node completes.
type NodeEvent struct {
	DAGID  int `yaml:"dag_id"`
	Node   int `yaml:"node"`
	Core   int `yaml:"core"`
	Start  int `yaml:"start"`
	Finish int `yaml:"finish"`
}

// CoreLog is one core's accumulated busy time and, after Finalize, its
// utilization over the whole run.
type CoreLog struct {
	CoreID      int     `yaml:"core_id"`
	TotalBusy   int     `yaml:"total_busy"`
	Utilization float64 `yaml:"utilization"`
}

// ProcessorLog aggregates per-core utilization over a finished run.
type ProcessorLog struct {
	Cores               []CoreLog `yaml:"cores"`
	AverageUtilization  float64   `yaml:"average_utilization"`
	VarianceUtilization float64   `yaml:"variance_utilization"`
}

// NewProcessorLog creates a log for numCores cores, all at zero busy time.
func NewProcessorLog(numCores int) *ProcessorLog {
	l := &ProcessorLog{Cores: make([]CoreLog, numCores)}
	for i := range l.Cores {
		l.Cores[i].CoreID = i
	}
	return l
}

// RecordBusy credits one tick of processing time to the given core.
func (l *ProcessorLog) RecordBusy(coreID int) {
	l.Cores[coreID].TotalBusy++
}

// Finalize computes per-core utilization against the finished schedule's
// makespan, plus the mean and population variance across cores. Call exactly
// once, after the run completes.
func (l *ProcessorLog) Finalize(makespan int) {
	if makespan <= 0 {
		return
	}
	sum := 0.0
	for i := range l.Cores {
		l.Cores[i].Utilization = float64(l.Cores[i].TotalBusy) / float64(makespan)
		sum += l.Cores[i].Utilization
	}
	mean := sum / float64(len(l.Cores))
	variance := 0.0
	for i := range l.Cores {
		d := l.Cores[i].Utilization - mean
		variance += d * d
	}
	l.AverageUtilization = mean
	l.VarianceUtilization = variance / float64(len(l.Cores))
}

// DAGLog records one DAG's lifecycle in a DAG-set run. Start is the tick of
// its first node allocation, Finish the tick its last node completed.
type DAGLog struct {
	DAGID        int `yaml:"dag_id"`
	Release      int `yaml:"release"`
	Start        int `yaml:"start"`
	Finish       int `yaml:"finish"`
	ResponseTime int `yaml:"response_time"`
}

// RunLog is the complete record of one run. DAGs is empty for single-DAG
// runs.
type RunLog struct {
	Events    []NodeEvent   `yaml:"events"`
	Processor *ProcessorLog `yaml:"processor"`
	DAGs      []DAGLog      `yaml:"dags,omitempty"`
}
