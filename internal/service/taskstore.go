package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// ErrTaskNotFound is returned by lookups for unknown task ids.
var ErrTaskNotFound = errors.New("task not found")

// Task is the caller-visible handle for one cloning request. Tasks live
// for the lifetime of the process; they are never deleted automatically.
type Task struct {
	ID        string              `json:"task_id"`
	URL       string              `json:"url"`
	Status    workflow.Status     `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	Result    *GenerationResponse `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// ListTasksRequest filters and paginates a task listing.
type ListTasksRequest struct {
	Status    string `json:"status,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
	PageSize  int    `json:"pageSize,omitempty"`
}

// ListTasksResponse is one page of task results.
type ListTasksResponse struct {
	Tasks         []Task `json:"tasks"`
	TotalSize     int    `json:"totalSize"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// TaskStore is a concurrency-safe in-memory store for tasks. Tasks are
// stored in a map keyed by ID with a separate slice maintaining
// insertion order for deterministic pagination.
type TaskStore struct {
	mu       sync.RWMutex
	tasks    map[string]*Task
	orderIDs []string // insertion-order task IDs
}

// NewTaskStore returns an initialized TaskStore ready for use.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:    make(map[string]*Task),
		orderIDs: make([]string, 0),
	}
}

// Create stores a new task. It returns an error if a task with the same
// ID already exists.
func (s *TaskStore) Create(task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task %q already exists", task.ID)
	}
	s.tasks[task.ID] = &task
	s.orderIDs = append(s.orderIDs, task.ID)
	return nil
}

// Get returns a copy of the task with the given ID. The returned copy
// is safe to mutate without affecting the store.
func (s *TaskStore) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	return copyTask(t), nil
}

// Update applies the mutation function fn to the task identified by id
// under a write lock. The function receives the stored task pointer, so
// all mutations are applied in place.
func (s *TaskStore) Update(id string, fn func(*Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	fn(t)
	return nil
}

// List returns tasks matching the filter with pagination support.
// PageToken is the ID of the last task from the previous page; results
// start after it in insertion order. PageSize <= 0 returns everything.
func (s *TaskStore) List(filter ListTasksRequest) (*ListTasksResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	startIdx := 0
	if filter.PageToken != "" {
		found := false
		for i, id := range s.orderIDs {
			if id == filter.PageToken {
				startIdx = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("invalid page token %q", filter.PageToken)
		}
	}

	matches := func(t *Task) bool {
		return filter.Status == "" || string(t.Status) == filter.Status
	}

	var matched []Task
	for i := startIdx; i < len(s.orderIDs); i++ {
		t := s.tasks[s.orderIDs[i]]
		if !matches(t) {
			continue
		}
		matched = append(matched, *copyTask(t))
	}

	totalBefore := 0
	for i := 0; i < startIdx; i++ {
		if matches(s.tasks[s.orderIDs[i]]) {
			totalBefore++
		}
	}

	totalSize := totalBefore + len(matched)

	var nextPageToken string
	if filter.PageSize > 0 && len(matched) > filter.PageSize {
		nextPageToken = matched[filter.PageSize-1].ID
		matched = matched[:filter.PageSize]
	}

	if matched == nil {
		matched = []Task{}
	}

	return &ListTasksResponse{
		Tasks:         matched,
		TotalSize:     totalSize,
		NextPageToken: nextPageToken,
	}, nil
}

// copyTask returns an independent copy of src, including its result.
func copyTask(src *Task) *Task {
	dst := *src
	if src.Result != nil {
		result := *src.Result
		if src.Result.ValidationReport != nil {
			report := *src.Result.ValidationReport
			result.ValidationReport = &report
		}
		dst.Result = &result
	}
	return &dst
}
