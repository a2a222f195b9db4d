package sched

import (
	"errors"
	"fmt"

	"github.com/addrummond/heap"
	"github.com/gammazero/deque"

	"github.com/aristath/schedsim/internal/graph"
	"github.com/aristath/schedsim/internal/policy"
	"github.com/aristath/schedsim/internal/processor"
	"github.com/aristath/schedsim/internal/runlog"
)

// Configuration errors for DAG-set runs.
var (
	ErrEmptyDAGSet     = errors.New("DAG set must contain at least one entry")
	ErrNegativeRelease = errors.New("release time must not be negative")
	ErrUnknownDAG      = errors.New("unknown DAG id")
)

// DAGEntry pairs a task graph with the tick at which it is released. None of
// the DAG's nodes may enter the ready set before that tick, regardless of
// their own precedence status.
type DAGEntry struct {
	Graph   *graph.TaskGraph
	Release int
}

// DAGSetScheduler drives several independently released DAGs on one shared
// Processor under one global clock. Ready nodes from different DAGs compete
// in a single merged queue; the policy sees the owning DAG id and the
// absolute deadline (release + end-to-end deadline) of each entry.
type DAGSetScheduler struct {
	entries    []DAGEntry
	proc       processor.Processor
	pol        policy.Policy
	priorities [][]int
	ranks      [][]int
}

// NewDAGSetScheduler creates a scheduler over the given entries. DAG ids are
// the entry positions.
func NewDAGSetScheduler(entries []DAGEntry, proc processor.Processor, pol policy.Policy) (*DAGSetScheduler, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyDAGSet
	}
	s := &DAGSetScheduler{
		entries:    append([]DAGEntry(nil), entries...),
		proc:       proc,
		pol:        pol,
		priorities: make([][]int, len(entries)),
		ranks:      make([][]int, len(entries)),
	}
	for d, e := range s.entries {
		if e.Release < 0 {
			return nil, fmt.Errorf("DAG %d: %w (got %d)", d, ErrNegativeRelease, e.Release)
		}
		s.priorities[d] = make([]int, e.Graph.NumNodes())
		s.ranks[d] = policy.DownwardRank(e.Graph)
	}
	return s, nil
}

// SetPriorities supplies fixed per-node priorities for one DAG of the set.
func (s *DAGSetScheduler) SetPriorities(dagID int, priorities []int) error {
	if dagID < 0 || dagID >= len(s.entries) {
		return fmt.Errorf("%w: %d", ErrUnknownDAG, dagID)
	}
	if len(priorities) != s.entries[dagID].Graph.NumNodes() {
		return fmt.Errorf("DAG %d: priorities length %d does not match node count %d",
			dagID, len(priorities), s.entries[dagID].Graph.NumNodes())
	}
	s.priorities[dagID] = append([]int(nil), priorities...)
	return nil
}

func (s *DAGSetScheduler) entry(dagID, node int) policy.Entry {
	e := s.entries[dagID]
	return policy.Entry{
		DAGID:         dagID,
		Node:          node,
		ExecutionTime: e.Graph.Node(node).ExecutionTime,
		// Deadlines are compared across DAGs, so they must be absolute.
		Deadline: e.Release + e.Graph.EndToEndDeadline(),
		Priority: s.priorities[dagID][node],
		Rank:     s.ranks[dagID][node],
	}
}

// Schedule runs the shared-processor simulation until every node of every
// DAG has finished. It returns the global makespan, per-DAG timing, and the
// cross-DAG finish order.
func (s *DAGSetScheduler) Schedule() *SetResult {
	numDAGs := len(s.entries)
	state := make([][]nodeState, numDAGs)
	predsLeft := make([][]int, numDAGs)
	readyAt := make([][]int, numDAGs)
	finish := make([][]int, numDAGs)
	eventIdx := make([][]int, numDAGs)
	remaining := make([]int, numDAGs)

	log := &runlog.RunLog{
		Processor: runlog.NewProcessorLog(s.proc.NumCores()),
		DAGs:      make([]runlog.DAGLog, numDAGs),
	}

	var pending heap.Heap[pendingNode, heap.Min]
	total := 0
	for d, e := range s.entries {
		n := e.Graph.NumNodes()
		total += n
		remaining[d] = n
		state[d] = make([]nodeState, n)
		predsLeft[d] = make([]int, n)
		readyAt[d] = make([]int, n)
		finish[d] = make([]int, n)
		eventIdx[d] = make([]int, n)
		for i := 0; i < n; i++ {
			predsLeft[d][i] = len(e.Graph.Predecessors(i))
			// A DAG's nodes cannot become eligible before its release.
			readyAt[d][i] = e.Release
			finish[d][i] = -1
			eventIdx[d][i] = -1
			if predsLeft[d][i] == 0 {
				heap.PushOrderable(&pending, pendingNode{time: e.Release, dagID: d, node: i})
			}
		}
		log.DAGs[d] = runlog.DAGLog{DAGID: d, Release: e.Release, Start: -1, Finish: -1}
	}

	var ready deque.Deque[policy.Entry]
	var scratch []policy.Entry
	finishOrder := make([]NodeRef, 0, total)

	finished := 0
	t := 0
	for finished < total {
		for {
			p, ok := heap.Peek(&pending)
			if !ok || p.time > t {
				break
			}
			p, _ = heap.PopOrderable(&pending)
			state[p.dagID][p.node] = stateReady
			ready.PushBack(s.entry(p.dagID, p.node))
		}

		scratch = orderReady(&ready, s.pol, scratch)

		for ready.Len() > 0 {
			coreID, ok := s.proc.IdleCoreIndex()
			if !ok {
				break
			}
			e := ready.PopFront()
			if !s.proc.AllocateSpecificCore(coreID, packNode(e.DAGID, e.Node), e.ExecutionTime) {
				panic(fmt.Sprintf("sched: core %d reported idle but refused DAG %d node %d at t=%d", coreID, e.DAGID, e.Node, t))
			}
			state[e.DAGID][e.Node] = stateRunning
			if log.DAGs[e.DAGID].Start < 0 {
				log.DAGs[e.DAGID].Start = t
			}
			eventIdx[e.DAGID][e.Node] = len(log.Events)
			log.Events = append(log.Events, runlog.NodeEvent{DAGID: e.DAGID, Node: e.Node, Core: coreID, Start: t, Finish: -1})
		}

		for coreID, r := range s.proc.Process() {
			switch r.Kind {
			case processor.Idle:
			case processor.Continue:
				log.Processor.RecordBusy(coreID)
			case processor.Done:
				log.Processor.RecordBusy(coreID)
				d, node := unpackNode(r.Node)
				finish[d][node] = t + 1
				log.Events[eventIdx[d][node]].Finish = t + 1
				state[d][node] = stateFinished
				finished++
				remaining[d]--
				finishOrder = append(finishOrder, NodeRef{DAGID: d, Node: node})
				if remaining[d] == 0 {
					log.DAGs[d].Finish = t + 1
					log.DAGs[d].ResponseTime = t + 1 - s.entries[d].Release
				}
				for _, e := range s.entries[d].Graph.Successors(node) {
					predsLeft[d][e.To]--
					if rt := finish[d][node] + e.Weight; rt > readyAt[d][e.To] {
						readyAt[d][e.To] = rt
					}
					if predsLeft[d][e.To] == 0 {
						heap.PushOrderable(&pending, pendingNode{time: readyAt[d][e.To], dagID: d, node: e.To})
					}
				}
			}
		}
		t++
	}

	log.Processor.Finalize(t)
	schedulable := true
	for d := range s.entries {
		if log.DAGs[d].Finish > s.entries[d].Release+s.entries[d].Graph.EndToEndDeadline() {
			schedulable = false
		}
	}
	return &SetResult{
		Makespan:    t,
		FinishOrder: finishOrder,
		DAGs:        append([]runlog.DAGLog(nil), log.DAGs...),
		Schedulable: schedulable,
		Log:         log,
	}
}

// Cores carry a single int of work identity, so DAG-set runs pack the DAG id
// and node index into one word. Node counts are far below the shift limit.
const nodePackShift = 32

func packNode(dagID, node int) int {
	return dagID<<nodePackShift | node
}

func unpackNode(packed int) (dagID, node int) {
	return packed >> nodePackShift, packed & (1<<nodePackShift - 1)
}
