package workflow

import "time"

// Status is the lifecycle state shared by stages, runs, and tasks.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StageRunState is the per-run execution record for one stage.
// RetryCount counts re-entries, so total attempts = RetryCount + 1 and
// never exceed MaxRetries + 1.
type StageRunState struct {
	ID         StageID   `json:"agent_id"`
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time,omitempty"`
	RetryCount int       `json:"retry_count"`
	Result     Artifact  `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// WorkflowError is one entry in the run's append-only error log.
type WorkflowError struct {
	StageID   StageID   `json:"agent_id"`
	StageName string    `json:"agent_name"`
	Message   string    `json:"error"`
	Time      time.Time `json:"time"`
}

// WorkflowState is the aggregate record threaded through one run. It is
// mutated in place by stage handlers and returned as the final value of
// Run; it is never shared across runs.
type WorkflowState struct {
	URL            string                     `json:"url"`
	CurrentStageID StageID                    `json:"current_agent_id"`
	Stages         map[StageID]*StageRunState `json:"agents"`
	Results        map[StageID]Artifact       `json:"results"`
	Errors         []WorkflowError            `json:"errors"`
	QualityScore   float64                    `json:"quality_score"`
	Status         Status                     `json:"status"`
	OutputPath     string                     `json:"output_path"`
}

// NewWorkflowState returns a running state for the given URL with empty
// stage and result maps.
func NewWorkflowState(url, outputPath string) *WorkflowState {
	return &WorkflowState{
		URL:        url,
		Status:     StatusRunning,
		OutputPath: outputPath,
		Stages:     make(map[StageID]*StageRunState),
		Results:    make(map[StageID]Artifact),
	}
}

// RecordError appends an entry to the run's error log.
func (s *WorkflowState) RecordError(id StageID, name, msg string) {
	s.Errors = append(s.Errors, WorkflowError{
		StageID:   id,
		StageName: name,
		Message:   msg,
		Time:      time.Now(),
	})
}

// LastError returns the most recent error entry, or nil when the log is
// empty.
func (s *WorkflowState) LastError() *WorkflowError {
	if len(s.Errors) == 0 {
		return nil
	}
	return &s.Errors[len(s.Errors)-1]
}
