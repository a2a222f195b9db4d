package graph

// Node is one unit of computation in a task graph. Nodes are identified by
// their index into the graph's node table; the index is assigned by the
// builder and stable for the life of the graph.
type Node struct {
	Index         int
	ExecutionTime int // Ticks required to complete, always > 0
	Deadline      int // Optional per-node deadline, 0 = unset
}

// Edge is a directed precedence constraint: From must finish before To may
// start. Weight models communication latency in ticks and is never negative.
type Edge struct {
	From   int
	To     int
	Weight int
}

// BuildOptions carries the externally supplied parameters required to freeze
// a builder into a TaskGraph.
type BuildOptions struct {
	// EndToEndDeadline is the deadline for the whole graph, in ticks.
	// Must be positive.
	EndToEndDeadline int
}
