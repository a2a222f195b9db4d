// Package processor models the execution platform: a fixed set of cores that
// advance in lockstep, one simulated tick at a time. The scheduler owns the
// processor exclusively; nothing here is safe for concurrent use and nothing
// here needs to be.
package processor

import (
	"errors"
	"fmt"
)

// ErrNoCores is returned when a processor is configured with zero cores.
var ErrNoCores = errors.New("number of cores must be positive")

// ResultKind tags a ProcessResult.
type ResultKind int

const (
	// Idle means the core had no work this tick.
	Idle ResultKind = iota
	// Continue means the core worked on its node but has not finished it.
	Continue
	// Done means the core finished its node this tick and is now idle.
	Done
)

// ProcessResult is what one core reports for one tick. Node is only
// meaningful when Kind is Done. Callers must handle all three kinds.
type ProcessResult struct {
	Kind ResultKind
	Node int
}

// Core is a single execution slot: either idle or processing one node with a
// positive remaining time.
type Core struct {
	processing bool
	node       int
	remaining  int
}

// Idle reports whether the core can accept work.
func (c *Core) Idle() bool { return !c.processing }

// Allocate assigns a node to the core for executionTime ticks. It returns
// false and leaves the core untouched if the core is busy; callers are
// expected to have checked Idle first.
func (c *Core) Allocate(node, executionTime int) bool {
	if c.processing {
		return false
	}
	c.processing = true
	c.node = node
	c.remaining = executionTime
	return true
}

// ProcessTick advances the core by one tick. An idle core reports Idle. A
// busy core decrements its remaining time, reporting Done exactly on the tick
// the remaining time reaches zero and Continue otherwise.
func (c *Core) ProcessTick() ProcessResult {
	if !c.processing {
		return ProcessResult{Kind: Idle}
	}
	c.remaining--
	if c.remaining == 0 {
		c.processing = false
		return ProcessResult{Kind: Done, Node: c.node}
	}
	return ProcessResult{Kind: Continue}
}

// Suspend forcibly returns the core to idle. It yields the evicted node and
// its remaining time so that a preemptive policy can resume the node later
// with progress intact. ok is false if the core was already idle.
func (c *Core) Suspend() (node, remaining int, ok bool) {
	if !c.processing {
		return 0, 0, false
	}
	node, remaining = c.node, c.remaining
	c.processing = false
	c.remaining = 0
	return node, remaining, true
}

// Processor is the capability set a scheduler needs from an execution
// platform: allocate work, advance time, find idle capacity, and preempt.
type Processor interface {
	NumCores() int
	// AllocateSpecificCore places a node on the identified core, returning
	// false if that core is busy.
	AllocateSpecificCore(coreID, node, executionTime int) bool
	// AllocateAnyIdleCore places a node on the lowest-index idle core,
	// returning false if every core is busy.
	AllocateAnyIdleCore(node, executionTime int) bool
	// IdleCoreIndex returns the lowest-index idle core. The lowest-index rule
	// is a determinism requirement, not a convenience.
	IdleCoreIndex() (int, bool)
	// Process advances every core exactly one tick, in core-id order, and
	// returns one result per core for this simulated instant.
	Process() []ProcessResult
	// Suspend evicts the node running on the identified core, if any.
	Suspend(coreID int) (node, remaining int, ok bool)
}

// HomogeneousProcessor is a Processor whose cores are identical and
// interchangeable. Core ids are the indices into its core table and are
// fixed at construction.
type HomogeneousProcessor struct {
	cores   []Core
	results []ProcessResult // reused across ticks
}

var _ Processor = (*HomogeneousProcessor)(nil)

// NewHomogeneous creates a processor with numCores identical cores.
func NewHomogeneous(numCores int) (*HomogeneousProcessor, error) {
	if numCores <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNoCores, numCores)
	}
	return &HomogeneousProcessor{
		cores:   make([]Core, numCores),
		results: make([]ProcessResult, numCores),
	}, nil
}

// NumCores returns the number of cores.
func (p *HomogeneousProcessor) NumCores() int { return len(p.cores) }

// AllocateSpecificCore places a node on the identified core.
func (p *HomogeneousProcessor) AllocateSpecificCore(coreID, node, executionTime int) bool {
	return p.cores[coreID].Allocate(node, executionTime)
}

// AllocateAnyIdleCore places a node on the lowest-index idle core.
func (p *HomogeneousProcessor) AllocateAnyIdleCore(node, executionTime int) bool {
	coreID, ok := p.IdleCoreIndex()
	if !ok {
		return false
	}
	return p.cores[coreID].Allocate(node, executionTime)
}

// IdleCoreIndex returns the lowest-index idle core.
func (p *HomogeneousProcessor) IdleCoreIndex() (int, bool) {
	for i := range p.cores {
		if p.cores[i].Idle() {
			return i, true
		}
	}
	return 0, false
}

// Process advances all cores one tick in core-id order. The returned slice is
// reused on the next call; callers must consume it before advancing again.
func (p *HomogeneousProcessor) Process() []ProcessResult {
	for i := range p.cores {
		p.results[i] = p.cores[i].ProcessTick()
	}
	return p.results
}

// Suspend evicts the node running on the identified core.
func (p *HomogeneousProcessor) Suspend(coreID int) (node, remaining int, ok bool) {
	return p.cores[coreID].Suspend()
}
