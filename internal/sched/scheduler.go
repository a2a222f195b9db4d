// Package sched contains the discrete-time scheduling engine: a single-DAG
// scheduler and a DAG-set scheduler sharing the same tick loop shape. Both
// are strictly deterministic: stable policy ordering plus lowest-index
// tie-breaks at the ready queue, the pending heap, and idle-core selection
// mean a fixed input always produces the identical schedule.
package sched

import (
	"fmt"

	"github.com/addrummond/heap"
	"github.com/gammazero/deque"

	"github.com/aristath/schedsim/internal/graph"
	"github.com/aristath/schedsim/internal/policy"
	"github.com/aristath/schedsim/internal/processor"
	"github.com/aristath/schedsim/internal/runlog"
)

// DAGScheduler drives one TaskGraph to completion on one Processor. It owns
// the processor and the graph for the duration of the run; neither may be
// shared with another scheduler instance.
type DAGScheduler struct {
	g          *graph.TaskGraph
	proc       processor.Processor
	pol        policy.Policy
	priorities []int
	ranks      []int
}

// NewDAGScheduler creates a scheduler for the given graph, processor, and
// ordering policy. Downward ranks are precomputed here; fixed priorities
// default to zero until SetPriorities is called.
func NewDAGScheduler(g *graph.TaskGraph, proc processor.Processor, pol policy.Policy) *DAGScheduler {
	return &DAGScheduler{
		g:          g,
		proc:       proc,
		pol:        pol,
		priorities: make([]int, g.NumNodes()),
		ranks:      policy.DownwardRank(g),
	}
}

// SetPriorities supplies externally computed per-node priorities (lower runs
// first) for use with the fixed-priority policy.
func (s *DAGScheduler) SetPriorities(priorities []int) error {
	if len(priorities) != s.g.NumNodes() {
		return fmt.Errorf("priorities length %d does not match node count %d", len(priorities), s.g.NumNodes())
	}
	s.priorities = append([]int(nil), priorities...)
	return nil
}

func (s *DAGScheduler) entry(node int) policy.Entry {
	n := s.g.Node(node)
	deadline := n.Deadline
	if deadline == 0 {
		deadline = s.g.EndToEndDeadline()
	}
	return policy.Entry{
		DAGID:         0,
		Node:          node,
		ExecutionTime: n.ExecutionTime,
		Deadline:      deadline,
		Priority:      s.priorities[node],
		Rank:          s.ranks[node],
	}
}

// Schedule runs the simulation loop until every node has finished and
// returns the makespan, the finish order, and the run log. Repeated calls
// re-run the identical simulation from t=0. Attempting to allocate onto a
// busy core is a scheduler bug and panics rather than producing a bad
// schedule.
func (s *DAGScheduler) Schedule() *Result {
	n := s.g.NumNodes()
	state := make([]nodeState, n)
	predsLeft := make([]int, n)
	readyAt := make([]int, n)
	finish := make([]int, n)
	eventIdx := make([]int, n)
	for i := 0; i < n; i++ {
		predsLeft[i] = len(s.g.Predecessors(i))
		finish[i] = -1
		eventIdx[i] = -1
	}

	var pending heap.Heap[pendingNode, heap.Min]
	var ready deque.Deque[policy.Entry]
	var scratch []policy.Entry
	log := &runlog.RunLog{Processor: runlog.NewProcessorLog(s.proc.NumCores())}
	finishOrder := make([]int, 0, n)

	for i := 0; i < n; i++ {
		if predsLeft[i] == 0 {
			heap.PushOrderable(&pending, pendingNode{time: 0, node: i})
		}
	}

	finished := 0
	t := 0
	for finished < n {
		// 1. Promote nodes whose precedence and latency constraints are met.
		for {
			p, ok := heap.Peek(&pending)
			if !ok || p.time > t {
				break
			}
			p, _ = heap.PopOrderable(&pending)
			state[p.node] = stateReady
			ready.PushBack(s.entry(p.node))
		}

		// 2. Order the ready queue by policy.
		scratch = orderReady(&ready, s.pol, scratch)

		// 3. Allocate heads to idle cores, lowest core index first.
		for ready.Len() > 0 {
			coreID, ok := s.proc.IdleCoreIndex()
			if !ok {
				break
			}
			e := ready.PopFront()
			if !s.proc.AllocateSpecificCore(coreID, e.Node, e.ExecutionTime) {
				panic(fmt.Sprintf("sched: core %d reported idle but refused node %d at t=%d", coreID, e.Node, t))
			}
			state[e.Node] = stateRunning
			eventIdx[e.Node] = len(log.Events)
			log.Events = append(log.Events, runlog.NodeEvent{Node: e.Node, Core: coreID, Start: t, Finish: -1})
		}

		// 4. Advance the processor one tick and retire completed nodes.
		for coreID, r := range s.proc.Process() {
			switch r.Kind {
			case processor.Idle:
			case processor.Continue:
				log.Processor.RecordBusy(coreID)
			case processor.Done:
				log.Processor.RecordBusy(coreID)
				node := r.Node
				finish[node] = t + 1
				log.Events[eventIdx[node]].Finish = t + 1
				state[node] = stateFinished
				finished++
				finishOrder = append(finishOrder, node)
				for _, e := range s.g.Successors(node) {
					predsLeft[e.To]--
					if rt := finish[node] + e.Weight; rt > readyAt[e.To] {
						readyAt[e.To] = rt
					}
					if predsLeft[e.To] == 0 {
						heap.PushOrderable(&pending, pendingNode{time: readyAt[e.To], node: e.To})
					}
				}
			}
		}
		t++
	}

	log.Processor.Finalize(t)
	return &Result{
		Makespan:    t,
		FinishOrder: finishOrder,
		Schedulable: t <= s.g.EndToEndDeadline(),
		Log:         log,
	}
}

// orderReady drains the queue, applies the policy's stable order, and
// refills the queue front-to-back. The scratch slice is reused across ticks.
func orderReady(ready *deque.Deque[policy.Entry], pol policy.Policy, scratch []policy.Entry) []policy.Entry {
	n := ready.Len()
	if n < 2 {
		return scratch
	}
	scratch = scratch[:0]
	for i := 0; i < n; i++ {
		scratch = append(scratch, ready.PopFront())
	}
	policy.Order(scratch, pol)
	for _, e := range scratch {
		ready.PushBack(e)
	}
	return scratch
}
