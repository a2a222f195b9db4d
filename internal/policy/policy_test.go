package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/schedsim/internal/graph"
)

func TestEDFOrder(t *testing.T) {
	entries := []Entry{
		{Node: 0, Deadline: 20},
		{Node: 1, Deadline: 5},
		{Node: 2}, // no deadline known, sorts last
		{Node: 3, Deadline: 5},
	}
	Order(entries, EDF{})

	got := make([]int, len(entries))
	for i, e := range entries {
		got[i] = e.Node
	}
	// Equal deadlines (1 and 3) break ties by node index.
	assert.Equal(t, []int{1, 3, 0, 2}, got)
}

func TestFixedPriorityOrder(t *testing.T) {
	entries := []Entry{
		{Node: 0, Priority: 2},
		{Node: 1, Priority: 0},
		{Node: 2, Priority: 1},
		{Node: 3, Priority: 1},
	}
	Order(entries, FixedPriority{})

	got := make([]int, len(entries))
	for i, e := range entries {
		got[i] = e.Node
	}
	assert.Equal(t, []int{1, 2, 3, 0}, got)
}

func TestCriticalPathOrder(t *testing.T) {
	entries := []Entry{
		{Node: 0, Rank: 3},
		{Node: 1, Rank: 9},
		{Node: 2, Rank: 3},
	}
	Order(entries, CriticalPath{})

	got := make([]int, len(entries))
	for i, e := range entries {
		got[i] = e.Node
	}
	assert.Equal(t, []int{1, 0, 2}, got)
}

func TestOrderBreaksCrossDAGTiesByDAGID(t *testing.T) {
	entries := []Entry{
		{DAGID: 1, Node: 0, Deadline: 10},
		{DAGID: 0, Node: 5, Deadline: 10},
	}
	Order(entries, EDF{})

	assert.Equal(t, 0, entries[0].DAGID)
	assert.Equal(t, 1, entries[1].DAGID)
}

func TestDownwardRank(t *testing.T) {
	// Diamond: 0 -> {1,2} -> 3, execution times 2,3,3,2.
	b := graph.NewBuilder()
	n0 := b.AddNode(2)
	n1 := b.AddNode(3)
	n2 := b.AddNode(3)
	n3 := b.AddNode(2)
	b.AddEdge(n0, n1, 0)
	b.AddEdge(n0, n2, 0)
	b.AddEdge(n1, n3, 0)
	b.AddEdge(n2, n3, 0)
	g, err := b.Build(graph.BuildOptions{EndToEndDeadline: 10})
	require.NoError(t, err)

	assert.Equal(t, []int{7, 5, 5, 2}, DownwardRank(g))
}

func TestDownwardRankIncludesEdgeWeights(t *testing.T) {
	b := graph.NewBuilder()
	n0 := b.AddNode(1)
	n1 := b.AddNode(1)
	b.AddEdge(n0, n1, 3)
	g, err := b.Build(graph.BuildOptions{EndToEndDeadline: 10})
	require.NoError(t, err)

	assert.Equal(t, []int{5, 1}, DownwardRank(g))
}

func TestByName(t *testing.T) {
	for _, name := range []string{"edf", "fixed_priority", "critical_path"} {
		p, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}
	_, err := ByName("round_robin")
	assert.Error(t, err)
}
