package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	RunID() int
}

// Topic constants
const (
	TopicRun   = "run"
	TopicBatch = "batch"
)

// Event type constants
const (
	EventTypeRunStarted    = "run.started"
	EventTypeRunFinished   = "run.finished"
	EventTypeBatchProgress = "batch.progress"
)

// RunStartedEvent is published when a simulation run begins.
type RunStartedEvent struct {
	ID        int
	DAGName   string
	Policy    string
	Cores     int
	Timestamp time.Time
}

func (e RunStartedEvent) EventType() string { return EventTypeRunStarted }
func (e RunStartedEvent) RunID() int        { return e.ID }

// RunFinishedEvent is published when a simulation run completes.
type RunFinishedEvent struct {
	ID          int
	DAGName     string
	Policy      string
	Cores       int
	Makespan    int
	Schedulable bool
	Timestamp   time.Time
}

func (e RunFinishedEvent) EventType() string { return EventTypeRunFinished }
func (e RunFinishedEvent) RunID() int        { return e.ID }

// BatchProgressEvent is published as a batch of runs advances.
type BatchProgressEvent struct {
	Total     int
	Completed int
	Timestamp time.Time
}

func (e BatchProgressEvent) EventType() string { return EventTypeBatchProgress }
func (e BatchProgressEvent) RunID() int        { return -1 }
