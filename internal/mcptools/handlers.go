package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DebjyotiRay/orchids-challenge/internal/service"
)

// CloneService adapts the generation service for MCP tool handlers.
type CloneService struct {
	svc *service.Service
}

// NewCloneService creates a CloneService wrapping the given service.
func NewCloneService(svc *service.Service) *CloneService {
	return &CloneService{svc: svc}
}

// CloneWebsiteInput is the clone_website tool input.
type CloneWebsiteInput struct {
	URL string `json:"url" jsonschema:"the URL of the website to clone"`
}

// CloneWebsiteOutput is the clone_website tool output.
type CloneWebsiteOutput struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

// CloneWebsite starts a cloning task and returns its id. The run
// proceeds in the background; poll get_task_status for progress.
func (s *CloneService) CloneWebsite(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CloneWebsiteInput,
) (*mcp.CallToolResult, CloneWebsiteOutput, error) {
	if input.URL == "" {
		return nil, CloneWebsiteOutput{}, fmt.Errorf("url is required")
	}

	taskID, err := s.svc.Clone(input.URL)
	if err != nil {
		return nil, CloneWebsiteOutput{}, err
	}

	return nil, CloneWebsiteOutput{TaskID: taskID, Status: "pending"}, nil
}

// TaskStatusInput is the get_task_status tool input.
type TaskStatusInput struct {
	TaskID string `json:"taskId" jsonschema:"the task id returned by clone_website"`
}

// TaskStatusOutput is the get_task_status tool output.
type TaskStatusOutput struct {
	TaskID    string `json:"taskId"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	Error     string `json:"error,omitempty"`
}

// GetTaskStatus returns the current status of a cloning task.
func (s *CloneService) GetTaskStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input TaskStatusInput,
) (*mcp.CallToolResult, TaskStatusOutput, error) {
	task, err := s.svc.GetTaskStatus(input.TaskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return nil, TaskStatusOutput{TaskID: input.TaskID, Status: "not_found"}, nil
		}
		return nil, TaskStatusOutput{}, err
	}

	return nil, TaskStatusOutput{
		TaskID:    task.ID,
		URL:       task.URL,
		Status:    string(task.Status),
		CreatedAt: task.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Error:     task.Error,
	}, nil
}

// TaskResultInput is the get_task_result tool input.
type TaskResultInput struct {
	TaskID string `json:"taskId" jsonschema:"the task id returned by clone_website"`
}

// TaskResultOutput is the get_task_result tool output.
type TaskResultOutput struct {
	Status       string  `json:"status"`
	QualityScore float64 `json:"qualityScore"`
	Message      string  `json:"message"`
	HTMLPath     string  `json:"htmlPath,omitempty"`
	CSSPath      string  `json:"cssPath,omitempty"`
	OutputPath   string  `json:"outputPath,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// GetTaskResult returns the final generation response for a finished
// task. Unfinished tasks report status "not_finished".
func (s *CloneService) GetTaskResult(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input TaskResultInput,
) (*mcp.CallToolResult, TaskResultOutput, error) {
	result, err := s.svc.GetTaskResult(input.TaskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return nil, TaskResultOutput{Status: "not_found"}, nil
		}
		return nil, TaskResultOutput{}, err
	}
	if result == nil {
		return nil, TaskResultOutput{Status: "not_finished"}, nil
	}

	return nil, TaskResultOutput{
		Status:       result.Status,
		QualityScore: result.QualityScore,
		Message:      result.Message,
		HTMLPath:     result.HTMLPath,
		CSSPath:      result.CSSPath,
		OutputPath:   result.OutputPath,
		Error:        result.Error,
	}, nil
}
