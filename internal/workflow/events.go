package workflow

import "time"

// EventType names a lifecycle event emitted during a run.
type EventType string

const (
	EventAgentStarted   EventType = "agent_started"
	EventAgentCompleted EventType = "agent_completed"
	EventAgentFailed    EventType = "agent_failed"
)

// Event is one lifecycle notification. Events for a run are emitted in
// execution order through the run's EventReporter channel, so consumers
// observe them in the order the orchestrator produced them.
type Event struct {
	Type      EventType `json:"event"`
	StageID   StageID   `json:"agent_id"`
	StageName string    `json:"agent_name"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// EventReporter delivers run events through a buffered channel.
// Emission is non-blocking: a slow consumer loses events rather than
// stalling the run.
type EventReporter struct {
	ch chan Event
}

// NewEventReporter creates an EventReporter with a buffered channel of size 64.
func NewEventReporter() *EventReporter {
	return &EventReporter{
		ch: make(chan Event, 64),
	}
}

// Emit sends an event in a non-blocking fashion. If the channel is
// full, the event is silently dropped.
func (er *EventReporter) Emit(event Event) {
	if er == nil {
		return
	}
	select {
	case er.ch <- event:
	default:
		// Drop the event if the channel is full.
	}
}

// Events returns a read-only channel for consuming run events.
func (er *EventReporter) Events() <-chan Event {
	return er.ch
}

// Close closes the event channel. Call after the run has returned.
func (er *EventReporter) Close() {
	close(er.ch)
}
