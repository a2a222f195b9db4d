package sched

import (
	"cmp"

	"github.com/aristath/schedsim/internal/runlog"
)

// nodeState partitions a DAG's nodes during a run. Every node is in exactly
// one state at any instant.
type nodeState int

const (
	stateWaiting nodeState = iota // predecessors not all finished
	stateReady                    // eligible, not yet allocated
	stateRunning                  // allocated to exactly one core
	stateFinished                 // completed
)

// NodeRef identifies a node across a DAG set.
type NodeRef struct {
	DAGID int
	Node  int
}

// Result is the outcome of a single-DAG run.
type Result struct {
	// Makespan is the total elapsed ticks from t=0 to the last finish.
	Makespan int
	// FinishOrder lists node indices in the order they completed.
	FinishOrder []int
	// Schedulable reports whether the makespan met the graph's end-to-end
	// deadline.
	Schedulable bool
	// Log is the run's event record, read-only once returned.
	Log *runlog.RunLog
}

// SetResult is the outcome of a DAG-set run.
type SetResult struct {
	Makespan    int
	FinishOrder []NodeRef
	// DAGs carries per-DAG release/start/finish/response times, indexed by
	// DAG id.
	DAGs []runlog.DAGLog
	// Schedulable reports whether every DAG finished by its absolute
	// deadline (release + end-to-end deadline).
	Schedulable bool
	Log         *runlog.RunLog
}

// pendingNode is a node that has satisfied its precedence constraints but may
// not enter the ready set before the given tick (communication latency or DAG
// release). Ordered by eligibility time with (dagID, node) tie-breaks so heap
// pops are deterministic.
type pendingNode struct {
	time  int
	dagID int
	node  int
}

func (a *pendingNode) Cmp(b *pendingNode) int {
	if a.time != b.time {
		return cmp.Compare(a.time, b.time)
	}
	if a.dagID != b.dagID {
		return cmp.Compare(a.dagID, b.dagID)
	}
	return cmp.Compare(a.node, b.node)
}
