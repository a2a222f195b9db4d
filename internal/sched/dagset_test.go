package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/schedsim/internal/graph"
	"github.com/aristath/schedsim/internal/policy"
)

func singleNode(t *testing.T, exec, deadline int) *graph.TaskGraph {
	t.Helper()
	b := graph.NewBuilder()
	b.AddNode(exec)
	g, err := b.Build(graph.BuildOptions{EndToEndDeadline: deadline})
	require.NoError(t, err)
	return g
}

func TestNewDAGSetSchedulerValidation(t *testing.T) {
	proc := mustProcessor(t, 1)

	_, err := NewDAGSetScheduler(nil, proc, policy.EDF{})
	require.ErrorIs(t, err, ErrEmptyDAGSet)

	_, err = NewDAGSetScheduler([]DAGEntry{
		{Graph: singleNode(t, 1, 5), Release: -1},
	}, proc, policy.EDF{})
	require.ErrorIs(t, err, ErrNegativeRelease)
}

func TestSetSchedulerPrioritiesValidation(t *testing.T) {
	s, err := NewDAGSetScheduler([]DAGEntry{
		{Graph: singleNode(t, 1, 5)},
	}, mustProcessor(t, 1), policy.FixedPriority{})
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetPriorities(3, []int{0}), ErrUnknownDAG)
	assert.Error(t, s.SetPriorities(0, []int{0, 1}))
	assert.NoError(t, s.SetPriorities(0, []int{4}))
}

func TestDAGSetContentionOnOneCore(t *testing.T) {
	// DAG 0 (volume 4, released at 0) occupies the single core until t=4;
	// DAG 1 (volume 2, released at 2) must wait despite being ready.
	d0 := singleNode(t, 4, 10)
	d1 := singleNode(t, 2, 10)

	s, err := NewDAGSetScheduler([]DAGEntry{
		{Graph: d0, Release: 0},
		{Graph: d1, Release: 2},
	}, mustProcessor(t, 1), policy.EDF{})
	require.NoError(t, err)

	res := s.Schedule()

	assert.Equal(t, 6, res.Makespan)
	assert.True(t, res.Schedulable)
	assert.Equal(t, []NodeRef{{DAGID: 0, Node: 0}, {DAGID: 1, Node: 0}}, res.FinishOrder)

	require.Len(t, res.DAGs, 2)
	assert.Equal(t, 0, res.DAGs[0].Start)
	assert.Equal(t, 4, res.DAGs[0].Finish)
	assert.Equal(t, 4, res.DAGs[0].ResponseTime)

	assert.Equal(t, 2, res.DAGs[1].Release)
	assert.Equal(t, 4, res.DAGs[1].Start, "DAG 1 starts only when the core frees up")
	assert.Equal(t, 6, res.DAGs[1].Finish)
	assert.Equal(t, 4, res.DAGs[1].ResponseTime)
}

func TestDAGSetReleaseRespectedWithIdleCores(t *testing.T) {
	// Two cores and one DAG released at t=3: nothing may run before the
	// release even though a core sits idle.
	s, err := NewDAGSetScheduler([]DAGEntry{
		{Graph: singleNode(t, 2, 10), Release: 3},
	}, mustProcessor(t, 2), policy.EDF{})
	require.NoError(t, err)

	res := s.Schedule()

	require.Len(t, res.Log.Events, 1)
	assert.Equal(t, 3, res.Log.Events[0].Start)
	assert.Equal(t, 5, res.Log.Events[0].Finish)
	assert.Equal(t, 5, res.Makespan)
	assert.Equal(t, 2, res.DAGs[0].ResponseTime)
}

func TestDAGSetEDFPrefersTighterAbsoluteDeadline(t *testing.T) {
	// Both DAGs release at 0 and compete for one core. DAG 1's absolute
	// deadline (0+3) beats DAG 0's (0+9), so it runs first despite the
	// lower DAG id of its rival.
	s, err := NewDAGSetScheduler([]DAGEntry{
		{Graph: singleNode(t, 2, 9)},
		{Graph: singleNode(t, 2, 3)},
	}, mustProcessor(t, 1), policy.EDF{})
	require.NoError(t, err)

	res := s.Schedule()

	assert.Equal(t, []NodeRef{{DAGID: 1, Node: 0}, {DAGID: 0, Node: 0}}, res.FinishOrder)
	assert.Equal(t, 4, res.Makespan)
	assert.True(t, res.Schedulable)
}

func TestDAGSetNotSchedulableWhenOneDAGMissesDeadline(t *testing.T) {
	s, err := NewDAGSetScheduler([]DAGEntry{
		{Graph: singleNode(t, 4, 4)},
		{Graph: singleNode(t, 2, 3)},
	}, mustProcessor(t, 1), policy.EDF{})
	require.NoError(t, err)

	res := s.Schedule()

	// DAG 1 runs first (deadline 3) and meets it; DAG 0 finishes at 6,
	// past its absolute deadline of 4.
	assert.Equal(t, 2, res.DAGs[1].Finish)
	assert.Equal(t, 6, res.DAGs[0].Finish)
	assert.False(t, res.Schedulable)
}

func TestDAGSetParallelDAGsOnSeparateCores(t *testing.T) {
	s, err := NewDAGSetScheduler([]DAGEntry{
		{Graph: singleNode(t, 3, 10)},
		{Graph: singleNode(t, 3, 10)},
	}, mustProcessor(t, 2), policy.EDF{})
	require.NoError(t, err)

	res := s.Schedule()

	assert.Equal(t, 3, res.Makespan)
	assert.Equal(t, 0, res.DAGs[0].Start)
	assert.Equal(t, 0, res.DAGs[1].Start)
	assert.NotEqual(t, res.Log.Events[0].Core, res.Log.Events[1].Core)
}

func TestDAGSetDeterminism(t *testing.T) {
	entries := []DAGEntry{
		{Graph: diamond(t, 20), Release: 0},
		{Graph: chain(t, 20, 2, 1, 2), Release: 1},
	}

	run := func() *SetResult {
		s, err := NewDAGSetScheduler(entries, mustProcessor(t, 2), policy.CriticalPath{})
		require.NoError(t, err)
		return s.Schedule()
	}
	first := run()
	second := run()

	assert.Equal(t, first.Makespan, second.Makespan)
	assert.Equal(t, first.FinishOrder, second.FinishOrder)
	assert.Equal(t, first.Log.Events, second.Log.Events)
}

func TestPackNodeRoundTrip(t *testing.T) {
	for _, tc := range []NodeRef{
		{DAGID: 0, Node: 0},
		{DAGID: 3, Node: 41},
		{DAGID: 250, Node: 1<<20 - 1},
	} {
		d, n := unpackNode(packNode(tc.DAGID, tc.Node))
		assert.Equal(t, tc.DAGID, d)
		assert.Equal(t, tc.Node, n)
	}
}
