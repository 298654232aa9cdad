package service

import (
	"log/slog"
	"sync"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// TaskEvent is the JSON-shaped notification delivered to observers of a
// task. Event-specific fields are omitted when empty.
type TaskEvent struct {
	Event     string              `json:"event"`
	TaskID    string              `json:"task_id"`
	URL       string              `json:"url,omitempty"`
	AgentID   workflow.StageID    `json:"agent_id,omitempty"`
	AgentName string              `json:"agent_name,omitempty"`
	Duration  float64             `json:"duration,omitempty"`
	Error     string              `json:"error,omitempty"`
	Result    *GenerationResponse `json:"result,omitempty"`
}

// Subscriber is one observer of a task's event stream. Events are
// consumed from Events; Done is closed when the subscriber is removed
// from the hub.
type Subscriber struct {
	events chan TaskEvent
	done   chan struct{}
	once   sync.Once
}

// Events returns the subscriber's event channel.
func (s *Subscriber) Events() <-chan TaskEvent { return s.events }

// Done is closed when the subscriber has been unregistered.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// Hub tracks per-task subscriber sets and fans events out to them.
// Delivery is best effort: a subscriber with a full buffer loses the
// event rather than blocking the run that emitted it.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscriber]struct{}
	log  *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		subs: make(map[string]map[*Subscriber]struct{}),
		log:  log,
	}
}

// Subscribe registers a new observer for the given task id and returns
// its handle.
func (h *Hub) Subscribe(taskID string) *Subscriber {
	sub := &Subscriber{
		events: make(chan TaskEvent, 64),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[taskID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subs[taskID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Unsubscribe removes an observer. Safe to call more than once.
func (h *Hub) Unsubscribe(taskID string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[taskID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, taskID)
		}
	}
	sub.close()
}

// Notify delivers an event to every observer of the task. An observer
// that cannot keep up is skipped and the drop is logged, never
// propagated to the emitting run.
func (h *Hub) Notify(taskID string, event TaskEvent) {
	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.subs[taskID]))
	for sub := range h.subs[taskID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.events <- event:
		default:
			h.log.Warn("dropping event for slow subscriber", "task_id", taskID, "event", event.Event)
		}
	}
}
