package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// Event names on the service surface.
const (
	EventTaskStarted   = "task_started"
	EventTaskCompleted = "task_completed"
	EventTaskFailed    = "task_failed"
)

// Service owns task identity and lifecycle: it runs the orchestrator
// per task in the background, fans lifecycle events out to subscribers,
// and persists the final artifact into the run's output directory.
type Service struct {
	orch  *workflow.Orchestrator
	store *TaskStore
	hub   *Hub
	log   *slog.Logger
	sem   *semaphore.Weighted

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// New creates a Service around the given orchestrator. maxConcurrent
// bounds the number of runs in flight; values < 1 default to 4.
func New(orch *workflow.Orchestrator, maxConcurrent int, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if maxConcurrent < 1 {
		maxConcurrent = 4
	}
	return &Service{
		orch:    orch,
		store:   NewTaskStore(),
		hub:     NewHub(log),
		log:     log,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Clone starts a new cloning task for the URL and returns its id
// immediately; the run proceeds in the background.
func (s *Service) Clone(url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("service: url is required")
	}

	taskID := uuid.NewString()
	task := Task{
		ID:        taskID,
		URL:       url,
		Status:    workflow.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.store.Create(task); err != nil {
		return "", fmt.Errorf("service: create task: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[taskID] = cancel
	s.mu.Unlock()

	go s.runTask(ctx, taskID, url)

	return taskID, nil
}

// Cancel requests cancellation of a running task. The orchestrator
// checks the flag between stages, so the current stage finishes (or
// times out) before the run aborts. Returns false for unknown or
// already-finished tasks.
func (s *Service) Cancel(taskID string) bool {
	s.mu.Lock()
	cancel, ok := s.cancels[taskID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// runTask drives one background run. Every failure mode, panics
// included, ends with the task marked failed and subscribers notified;
// nothing escapes to crash the process.
func (s *Service) runTask(ctx context.Context, taskID, url string) {
	defer func() {
		s.mu.Lock()
		if cancel, ok := s.cancels[taskID]; ok {
			cancel()
			delete(s.cancels, taskID)
		}
		s.mu.Unlock()

		if r := recover(); r != nil {
			msg := fmt.Sprintf("internal error: %v", r)
			s.log.Error("task panicked", "task_id", taskID, "panic", r)
			_ = s.store.Update(taskID, func(t *Task) {
				t.Status = workflow.StatusFailed
				t.Error = msg
			})
			s.hub.Notify(taskID, TaskEvent{Event: EventTaskFailed, TaskID: taskID, Error: msg})
		}
	}()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.failTask(taskID, fmt.Sprintf("canceled while queued: %v", err))
		return
	}
	defer s.sem.Release(1)

	_ = s.store.Update(taskID, func(t *Task) { t.Status = workflow.StatusRunning })
	s.hub.Notify(taskID, TaskEvent{Event: EventTaskStarted, TaskID: taskID, URL: url})

	resp := s.generate(ctx, taskID, url)

	status := workflow.StatusCompleted
	event := EventTaskCompleted
	if resp.Status != "success" {
		status = workflow.StatusFailed
		event = EventTaskFailed
	}
	_ = s.store.Update(taskID, func(t *Task) {
		t.Status = status
		t.Result = resp
		t.Error = resp.Error
	})
	s.hub.Notify(taskID, TaskEvent{Event: event, TaskID: taskID, Result: resp})
}

// Generate runs the pipeline synchronously and returns the response
// without creating a task. Used by the one-shot CLI path.
func (s *Service) Generate(ctx context.Context, url string) *GenerationResponse {
	return s.generate(ctx, "", url)
}

func (s *Service) generate(ctx context.Context, taskID, url string) *GenerationResponse {
	reporter := workflow.NewEventReporter()

	var wg sync.WaitGroup
	if taskID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range reporter.Events() {
				s.hub.Notify(taskID, TaskEvent{
					Event:     string(ev.Type),
					TaskID:    taskID,
					AgentID:   ev.StageID,
					AgentName: ev.StageName,
					Duration:  ev.Duration,
					Error:     ev.Error,
				})
			}
		}()
	}

	state := s.orch.Run(ctx, url, reporter)
	reporter.Close()
	wg.Wait()

	resp := responseFromState(state)
	if resp.Status == "success" {
		if err := s.persist(state.OutputPath, resp); err != nil {
			s.log.Warn("persist artifacts", "task_id", taskID, "error", err)
		}
	}
	return resp
}

// persist writes the generated page into the run directory.
func (s *Service) persist(outputPath string, resp *GenerationResponse) error {
	if outputPath == "" {
		return nil
	}
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return fmt.Errorf("service: create output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputPath, "index.html"), []byte(resp.HTML), 0o644); err != nil {
		return fmt.Errorf("service: write index.html: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputPath, "styles.css"), []byte(resp.CSS), 0o644); err != nil {
		return fmt.Errorf("service: write styles.css: %w", err)
	}
	return nil
}

func (s *Service) failTask(taskID, msg string) {
	_ = s.store.Update(taskID, func(t *Task) {
		t.Status = workflow.StatusFailed
		t.Error = msg
	})
	s.hub.Notify(taskID, TaskEvent{Event: EventTaskFailed, TaskID: taskID, Error: msg})
}

// GetTaskStatus returns the task record for the given id.
func (s *Service) GetTaskStatus(taskID string) (*Task, error) {
	return s.store.Get(taskID)
}

// GetTaskResult returns the final response for a task, or nil when the
// task has not reached a terminal state yet.
func (s *Service) GetTaskResult(taskID string) (*GenerationResponse, error) {
	task, err := s.store.Get(taskID)
	if err != nil {
		return nil, err
	}
	if !task.Status.IsTerminal() {
		return nil, nil
	}
	return task.Result, nil
}

// ListTasks returns tasks matching the filter.
func (s *Service) ListTasks(filter ListTasksRequest) (*ListTasksResponse, error) {
	return s.store.List(filter)
}

// Subscribe registers an observer for a task's event stream.
func (s *Service) Subscribe(taskID string) *Subscriber {
	return s.hub.Subscribe(taskID)
}

// Unsubscribe removes a previously registered observer.
func (s *Service) Unsubscribe(taskID string, sub *Subscriber) {
	s.hub.Unsubscribe(taskID, sub)
}

// RegisteredStages describes the configured pipeline for the /agents
// introspection endpoint.
func (s *Service) RegisteredStages() []StageInfo {
	descriptors := s.orch.Descriptors()
	infos := make([]StageInfo, 0, len(descriptors))
	for _, d := range descriptors {
		infos = append(infos, StageInfo{
			ID:         string(d.ID),
			Type:       string(d.Type),
			Name:       d.Name,
			MaxRetries: d.MaxRetries,
			Timeout:    d.Timeout.String(),
		})
	}
	return infos
}

// StageInfo is the public description of one configured stage.
type StageInfo struct {
	ID         string `json:"agent_id"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	MaxRetries int    `json:"max_retries"`
	Timeout    string `json:"timeout"`
}
