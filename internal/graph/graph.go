package graph

import (
	"errors"
	"fmt"

	"github.com/gammazero/toposort"
)

// Construction errors. Build wraps these with context about the offending
// node or edge, so callers should test with errors.Is.
var (
	ErrEmptyGraph               = errors.New("graph has no nodes")
	ErrCycle                    = errors.New("graph contains a cycle")
	ErrNonPositiveExecutionTime = errors.New("execution time must be positive")
	ErrNegativeEdgeWeight       = errors.New("edge weight must not be negative")
	ErrNegativeDeadline         = errors.New("node deadline must not be negative")
	ErrUnknownNode              = errors.New("edge references unknown node")
	ErrDuplicateEdge            = errors.New("duplicate edge")
	ErrInvalidDeadline          = errors.New("end-to-end deadline must be positive")
)

// Builder accumulates nodes and edges before validation. A Builder is cheap
// and single-use: call Build once to obtain an immutable TaskGraph.
type Builder struct {
	nodes []Node
	edges []Edge
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddNode appends a node with the given execution time and returns its index.
func (b *Builder) AddNode(executionTime int) int {
	return b.AddNodeWithDeadline(executionTime, 0)
}

// AddNodeWithDeadline appends a node with an individual deadline and returns
// its index. A zero deadline means the node has none.
func (b *Builder) AddNodeWithDeadline(executionTime, deadline int) int {
	index := len(b.nodes)
	b.nodes = append(b.nodes, Node{
		Index:         index,
		ExecutionTime: executionTime,
		Deadline:      deadline,
	})
	return index
}

// AddEdge appends a directed precedence edge from -> to with the given
// communication weight. Validation happens in Build.
func (b *Builder) AddEdge(from, to, weight int) {
	b.edges = append(b.edges, Edge{From: from, To: to, Weight: weight})
}

// TaskGraph is an immutable, validated DAG of task nodes together with the
// derived metrics the schedulers and the reporting layer need. A TaskGraph is
// owned exclusively by the scheduler driving it and is never mutated after
// Build.
type TaskGraph struct {
	nodes []Node
	edges []Edge

	succ [][]Edge // outgoing edges per node
	pred [][]Edge // incoming edges per node
	topo []int    // topological order of node indices

	deadline           int
	volume             int
	criticalPathLength int
}

// Build validates the accumulated nodes and edges and freezes them into a
// TaskGraph. It fails if the graph is empty or cyclic, if any execution time
// is non-positive, if any edge weight or node deadline is negative, if any
// edge references a missing node, or if the end-to-end deadline is not
// positive.
func (b *Builder) Build(opts BuildOptions) (*TaskGraph, error) {
	if len(b.nodes) == 0 {
		return nil, ErrEmptyGraph
	}
	if opts.EndToEndDeadline <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDeadline, opts.EndToEndDeadline)
	}
	for _, n := range b.nodes {
		if n.ExecutionTime <= 0 {
			return nil, fmt.Errorf("node %d: %w (got %d)", n.Index, ErrNonPositiveExecutionTime, n.ExecutionTime)
		}
		if n.Deadline < 0 {
			return nil, fmt.Errorf("node %d: %w (got %d)", n.Index, ErrNegativeDeadline, n.Deadline)
		}
	}
	seen := make(map[[2]int]bool, len(b.edges))
	for _, e := range b.edges {
		if e.From < 0 || e.From >= len(b.nodes) || e.To < 0 || e.To >= len(b.nodes) {
			return nil, fmt.Errorf("edge %d->%d: %w", e.From, e.To, ErrUnknownNode)
		}
		if e.Weight < 0 {
			return nil, fmt.Errorf("edge %d->%d: %w (got %d)", e.From, e.To, ErrNegativeEdgeWeight, e.Weight)
		}
		key := [2]int{e.From, e.To}
		if seen[key] {
			return nil, fmt.Errorf("edge %d->%d: %w", e.From, e.To, ErrDuplicateEdge)
		}
		seen[key] = true
	}

	order, err := topologicalOrder(len(b.nodes), b.edges)
	if err != nil {
		return nil, err
	}

	g := &TaskGraph{
		nodes:    append([]Node(nil), b.nodes...),
		edges:    append([]Edge(nil), b.edges...),
		succ:     make([][]Edge, len(b.nodes)),
		pred:     make([][]Edge, len(b.nodes)),
		topo:     order,
		deadline: opts.EndToEndDeadline,
	}
	for _, e := range g.edges {
		g.succ[e.From] = append(g.succ[e.From], e)
		g.pred[e.To] = append(g.pred[e.To], e)
	}
	for _, n := range g.nodes {
		g.volume += n.ExecutionTime
	}
	g.criticalPathLength = g.longestPath()
	return g, nil
}

// topologicalOrder runs toposort over the edge set, reporting ErrCycle on
// failure. Nodes without predecessors are anchored to a nil source so that
// isolated nodes survive the sort (same trick the edge list needs for
// disconnected graphs).
func topologicalOrder(numNodes int, edges []Edge) ([]int, error) {
	hasPred := make([]bool, numNodes)
	for _, e := range edges {
		hasPred[e.To] = true
	}
	tedges := make([]toposort.Edge, 0, len(edges)+numNodes)
	for i := 0; i < numNodes; i++ {
		if !hasPred[i] {
			tedges = append(tedges, toposort.Edge{nil, i})
		}
	}
	for _, e := range edges {
		tedges = append(tedges, toposort.Edge{e.From, e.To})
	}
	sorted, err := toposort.Toposort(tedges)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}
	order := make([]int, 0, numNodes)
	for _, v := range sorted {
		if v != nil {
			order = append(order, v.(int))
		}
	}
	if len(order) != numNodes {
		// A graph where every node sits on a cycle yields no roots at all.
		return nil, fmt.Errorf("%w: %d of %d nodes unsortable", ErrCycle, numNodes-len(order), numNodes)
	}
	return order, nil
}

// longestPath computes the critical path length: the maximum over all sinks
// of node execution time plus edge weights along any path, via one forward
// pass in topological order.
func (g *TaskGraph) longestPath() int {
	dist := make([]int, len(g.nodes))
	longest := 0
	for _, i := range g.topo {
		d := 0
		for _, e := range g.pred[i] {
			if v := dist[e.From] + e.Weight; v > d {
				d = v
			}
		}
		dist[i] = d + g.nodes[i].ExecutionTime
		if dist[i] > longest {
			longest = dist[i]
		}
	}
	return longest
}

// NumNodes returns the number of nodes in the graph.
func (g *TaskGraph) NumNodes() int { return len(g.nodes) }

// Node returns the node at the given index.
func (g *TaskGraph) Node(index int) Node { return g.nodes[index] }

// Edges returns all edges. The returned slice must not be modified.
func (g *TaskGraph) Edges() []Edge { return g.edges }

// Successors returns the outgoing edges of a node.
func (g *TaskGraph) Successors(index int) []Edge { return g.succ[index] }

// Predecessors returns the incoming edges of a node.
func (g *TaskGraph) Predecessors(index int) []Edge { return g.pred[index] }

// TopologicalOrder returns a valid topological order of the node indices.
func (g *TaskGraph) TopologicalOrder() []int { return g.topo }

// Sources returns the indices of nodes without predecessors, ascending.
func (g *TaskGraph) Sources() []int {
	var srcs []int
	for i := range g.nodes {
		if len(g.pred[i]) == 0 {
			srcs = append(srcs, i)
		}
	}
	return srcs
}

// Sinks returns the indices of nodes without successors, ascending.
func (g *TaskGraph) Sinks() []int {
	var sinks []int
	for i := range g.nodes {
		if len(g.succ[i]) == 0 {
			sinks = append(sinks, i)
		}
	}
	return sinks
}

// EndToEndDeadline returns the deadline for the whole graph, in ticks.
func (g *TaskGraph) EndToEndDeadline() int { return g.deadline }

// Volume returns the sum of all node execution times.
func (g *TaskGraph) Volume() int { return g.volume }

// CriticalPathLength returns the longest weighted path through the graph,
// counting node execution times and edge weights. It is a lower bound on any
// schedule's makespan.
func (g *TaskGraph) CriticalPathLength() int { return g.criticalPathLength }

// Utilization returns volume divided by the end-to-end deadline.
func (g *TaskGraph) Utilization() float64 {
	return float64(g.volume) / float64(g.deadline)
}
