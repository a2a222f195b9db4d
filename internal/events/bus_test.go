package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesTopicEvents(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	runCh := bus.Subscribe(TopicRun, 4)
	batchCh := bus.Subscribe(TopicBatch, 4)

	bus.Publish(TopicRun, RunStartedEvent{ID: 1, DAGName: "diamond.yaml"})

	select {
	case e := <-runCh:
		assert.Equal(t, EventTypeRunStarted, e.EventType())
		assert.Equal(t, 1, e.RunID())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for run event")
	}

	select {
	case e := <-batchCh:
		t.Fatalf("batch subscriber received foreign event %v", e)
	default:
	}
}

func TestSubscribeAllReceivesEveryTopic(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	all := bus.SubscribeAll(4)
	bus.Publish(TopicRun, RunFinishedEvent{ID: 2, Makespan: 7, Schedulable: true})
	bus.Publish(TopicBatch, BatchProgressEvent{Total: 3, Completed: 1})

	got := []string{(<-all).EventType(), (<-all).EventType()}
	assert.Equal(t, []string{EventTypeRunFinished, EventTypeBatchProgress}, got)
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := bus.Subscribe(TopicRun, 1)
	bus.Publish(TopicRun, RunStartedEvent{ID: 1})
	bus.Publish(TopicRun, RunStartedEvent{ID: 2})

	e := <-ch
	assert.Equal(t, 1, e.RunID())
	select {
	case e := <-ch:
		t.Fatalf("second event should have been dropped, got %v", e)
	default:
	}
}

func TestCloseIsIdempotentAndClosesChannels(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe(TopicRun, 1)

	bus.Close()
	bus.Close()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after close is a no-op, not a panic.
	bus.Publish(TopicRun, RunStartedEvent{ID: 9})
}

func TestSubscribeAfterCloseReturnsClosedChannel(t *testing.T) {
	bus := NewEventBus()
	bus.Close()

	ch := bus.Subscribe(TopicRun, 1)
	_, open := <-ch
	require.False(t, open)

	all := bus.SubscribeAll(1)
	_, open = <-all
	require.False(t, open)
}
