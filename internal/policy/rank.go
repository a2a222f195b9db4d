package policy

import "github.com/aristath/schedsim/internal/graph"

// DownwardRank computes, for every node, the longest weighted path from that
// node to any sink, counting the node's own execution time and edge weights.
// A node's rank is a lower bound on the time left in the schedule once it
// starts, which is why list scheduling runs high-rank nodes first. Computed
// in one reverse pass over the topological order.
func DownwardRank(g *graph.TaskGraph) []int {
	rank := make([]int, g.NumNodes())
	topo := g.TopologicalOrder()
	for i := len(topo) - 1; i >= 0; i-- {
		n := topo[i]
		longest := 0
		for _, e := range g.Successors(n) {
			if v := e.Weight + rank[e.To]; v > longest {
				longest = v
			}
		}
		rank[n] = g.Node(n).ExecutionTime + longest
	}
	return rank
}
