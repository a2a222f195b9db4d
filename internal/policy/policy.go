// Package policy holds the ordering strategies that decide which ready node
// runs next. The scheduling loop itself is policy-free: it hands the ready
// set to a Policy each tick and allocates in the returned order. Swapping
// algorithms (global EDF, model-based fixed priorities, list scheduling)
// means swapping the Policy, never touching the loop.
package policy

import (
	"cmp"
	"fmt"
	"slices"
)

// Entry is one ready node as seen by a policy. The scheduler fills every
// field before ordering, so a policy can key on whichever it understands.
type Entry struct {
	DAGID         int
	Node          int
	ExecutionTime int
	// Deadline is the absolute deadline in ticks: the node's own deadline for
	// single-DAG runs, or release time plus end-to-end deadline for DAG-set
	// runs. Zero means none is known.
	Deadline int
	// Priority is an externally assigned fixed priority; lower runs first.
	Priority int
	// Rank is the longest weighted path from this node to any sink,
	// including the node itself; higher runs first.
	Rank int
}

// Policy produces a strict weak ordering over ready entries. Less reports
// whether a should run before b. Policies must be pure: same entries, same
// answer.
type Policy interface {
	Name() string
	Less(a, b Entry) bool
}

// Order sorts entries in place into the policy's order. The sort is stable
// and falls back to ascending (DAG id, node index) when the policy considers
// two entries equal, which makes every schedule reproducible by construction.
func Order(entries []Entry, p Policy) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch {
		case p.Less(a, b):
			return -1
		case p.Less(b, a):
			return 1
		}
		if a.DAGID != b.DAGID {
			return cmp.Compare(a.DAGID, b.DAGID)
		}
		return cmp.Compare(a.Node, b.Node)
	})
}

// EDF orders ready nodes by ascending absolute deadline: earliest deadline
// first. Entries without a deadline sort after entries with one.
type EDF struct{}

func (EDF) Name() string { return "edf" }

func (EDF) Less(a, b Entry) bool {
	if (a.Deadline == 0) != (b.Deadline == 0) {
		return a.Deadline != 0
	}
	return a.Deadline < b.Deadline
}

// FixedPriority orders ready nodes by ascending assigned priority. This is
// the contract model-based algorithms use: a prioritization pass (e.g. a CPC
// model) assigns each node a priority offline, and the runtime order is
// purely that assignment.
type FixedPriority struct{}

func (FixedPriority) Name() string { return "fixed_priority" }

func (FixedPriority) Less(a, b Entry) bool {
	return a.Priority < b.Priority
}

// CriticalPath orders ready nodes by descending downward rank, so the node
// heading the longest remaining chain runs first. This is classic list
// scheduling and the default when no model supplies priorities.
type CriticalPath struct{}

func (CriticalPath) Name() string { return "critical_path" }

func (CriticalPath) Less(a, b Entry) bool {
	return a.Rank > b.Rank
}

// ByName resolves a policy identifier as supplied by configuration or the
// command line.
func ByName(name string) (Policy, error) {
	switch name {
	case "edf":
		return EDF{}, nil
	case "fixed_priority":
		return FixedPriority{}, nil
	case "critical_path":
		return CriticalPath{}, nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want edf, fixed_priority, or critical_path)", name)
	}
}
