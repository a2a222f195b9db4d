package dagio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aristath/schedsim/internal/graph"
	"github.com/aristath/schedsim/internal/policy"
	"github.com/aristath/schedsim/internal/processor"
	"github.com/aristath/schedsim/internal/sched"
)

func writeDAGFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const diamondYAML = `end_to_end_deadline: 10
nodes:
  - id: 0
    execution_time: 2
  - id: 1
    execution_time: 3
  - id: 2
    execution_time: 3
  - id: 3
    execution_time: 2
links:
  - source: 0
    target: 1
  - source: 0
    target: 2
  - source: 1
    target: 3
  - source: 2
    target: 3
`

func TestLoadDAG(t *testing.T) {
	path := writeDAGFile(t, t.TempDir(), "diamond.yaml", diamondYAML)

	g, err := LoadDAG(path)
	require.NoError(t, err)

	assert.Equal(t, 4, g.NumNodes())
	assert.Equal(t, 10, g.Volume())
	assert.Equal(t, 7, g.CriticalPathLength())
	assert.Equal(t, 10, g.EndToEndDeadline())
}

func TestLoadDAGSparseIDs(t *testing.T) {
	// Ids 10, 5, 20 map to dense indices 0 (id 5), 1 (id 10), 2 (id 20).
	path := writeDAGFile(t, t.TempDir(), "sparse.yaml", `end_to_end_deadline: 9
nodes:
  - id: 10
    execution_time: 2
  - id: 5
    execution_time: 1
  - id: 20
    execution_time: 3
links:
  - source: 5
    target: 10
    communication_time: 1
  - source: 10
    target: 20
`)

	g, err := LoadDAG(path)
	require.NoError(t, err)

	assert.Equal(t, 1, g.Node(0).ExecutionTime)
	assert.Equal(t, 2, g.Node(1).ExecutionTime)
	assert.Equal(t, 3, g.Node(2).ExecutionTime)

	succ := g.Successors(0)
	require.Len(t, succ, 1)
	assert.Equal(t, 1, succ[0].To)
	assert.Equal(t, 1, succ[0].Weight)
}

func TestLoadDAGErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"no nodes", "end_to_end_deadline: 5\nnodes: []\n"},
		{"duplicate id", `end_to_end_deadline: 5
nodes:
  - id: 1
    execution_time: 1
  - id: 1
    execution_time: 2
`},
		{"unknown link target", `end_to_end_deadline: 5
nodes:
  - id: 0
    execution_time: 1
links:
  - source: 0
    target: 99
`},
		{"cycle", `end_to_end_deadline: 5
nodes:
  - id: 0
    execution_time: 1
  - id: 1
    execution_time: 1
links:
  - source: 0
    target: 1
  - source: 1
    target: 0
`},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDAGFile(t, dir, tt.name+".yaml", tt.content)
			_, err := LoadDAG(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadDAG(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDAGSetOrdersByFilename(t *testing.T) {
	dir := t.TempDir()
	single := func(exec int) string {
		data, err := yaml.Marshal(dagFile{
			EndToEndDeadline: 10,
			Nodes:            []nodeSpec{{ID: 0, ExecutionTime: exec}},
		})
		require.NoError(t, err)
		return string(data)
	}
	writeDAGFile(t, dir, "b.yaml", single(2))
	writeDAGFile(t, dir, "a.yaml", single(1))
	writeDAGFile(t, dir, "c.yml", single(3))
	writeDAGFile(t, dir, "ignored.txt", "not a dag")

	graphs, err := LoadDAGSet(dir)
	require.NoError(t, err)
	require.Len(t, graphs, 3)

	assert.Equal(t, 1, graphs[0].Node(0).ExecutionTime)
	assert.Equal(t, 2, graphs[1].Node(0).ExecutionTime)
	assert.Equal(t, 3, graphs[2].Node(0).ExecutionTime)
}

func TestLoadDAGSetEmptyDir(t *testing.T) {
	_, err := LoadDAGSet(t.TempDir())
	assert.Error(t, err)
}

func TestReportRoundTrip(t *testing.T) {
	b := graph.NewBuilder()
	n0 := b.AddNode(1)
	n1 := b.AddNode(2)
	b.AddEdge(n0, n1, 0)
	g, err := b.Build(graph.BuildOptions{EndToEndDeadline: 5})
	require.NoError(t, err)

	proc, err := processor.NewHomogeneous(1)
	require.NoError(t, err)
	res := sched.NewDAGScheduler(g, proc, policy.EDF{}).Schedule()

	path := filepath.Join(t.TempDir(), "reports", "run.yaml")
	require.NoError(t, WriteYAML(path, NewReport("edf", g, 1, res)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Report
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "edf", got.Policy)
	assert.Equal(t, 3, got.Makespan)
	assert.True(t, got.Schedulable)
	assert.Equal(t, []int{0, 1}, got.FinishOrder)
	assert.Equal(t, 3, got.Graph.Volume)
	assert.Equal(t, 1, got.Processor.NumberOfCores)
	require.NotNil(t, got.Log)
	require.Len(t, got.Log.Events, 2)
}

func TestReportPathUsesDirAndName(t *testing.T) {
	p := ReportPath("outputs", "edf")
	assert.Equal(t, "outputs", filepath.Dir(p))
	assert.Contains(t, filepath.Base(p), "-edf.yaml")
}
