package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

type processFunc func(context.Context, *workflow.StageInput) (workflow.Artifact, error)

func (f processFunc) Process(ctx context.Context, in *workflow.StageInput) (workflow.Artifact, error) {
	return f(ctx, in)
}

func svcDescriptor(typ workflow.StageType, ordinal int, fn processFunc) workflow.StageDescriptor {
	return workflow.StageDescriptor{
		ID:         workflow.MakeStageID(typ, ordinal),
		Type:       typ,
		Name:       string(typ),
		MaxRetries: 1,
		Timeout:    5 * time.Second,
		Stage:      fn,
	}
}

// passingPipeline is a two-stage pipeline that always clears the gate.
// When block is non-nil, runs for "blocker" URLs park in the first stage
// until the channel closes, which lets tests hold the concurrency
// permit while they arrange observers.
func passingPipeline(block <-chan struct{}) []workflow.StageDescriptor {
	synth := svcDescriptor(workflow.StageSynthesizer, 1, func(ctx context.Context, in *workflow.StageInput) (workflow.Artifact, error) {
		if block != nil && strings.Contains(in.URL, "blocker") {
			select {
			case <-block:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return &workflow.SynthesisResult{HTML: "<html></html>", CSS: "body{margin:0}", OutputPath: in.OutputDir}, nil
	})
	gate := svcDescriptor(workflow.StageValidation, 2, func(context.Context, *workflow.StageInput) (workflow.Artifact, error) {
		return &workflow.ValidationResult{
			QualityScore: 95,
			Passed:       true,
			Report:       workflow.ValidationReport{Status: "PASS"},
		}, nil
	})
	return []workflow.StageDescriptor{synth, gate}
}

func newTestService(t *testing.T, descriptors []workflow.StageDescriptor, maxConcurrent int) *Service {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	orch, err := workflow.NewOrchestrator(descriptors, t.TempDir(), log)
	require.NoError(t, err)
	return New(orch, maxConcurrent, log)
}

func collectUntilTerminal(t *testing.T, sub *Subscriber) []TaskEvent {
	t.Helper()
	var events []TaskEvent
	for {
		select {
		case ev := <-sub.Events():
			events = append(events, ev)
			if ev.Event == EventTaskCompleted || ev.Event == EventTaskFailed {
				return events
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for terminal event, got %d events", len(events))
		}
	}
}

func waitForStatus(t *testing.T, svc *Service, taskID string, want workflow.Status) *Task {
	t.Helper()
	var task *Task
	require.Eventually(t, func() bool {
		var err error
		task, err = svc.GetTaskStatus(taskID)
		return err == nil && task.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return task
}

func TestService_SubscriberSeesFullEventStream(t *testing.T) {
	block := make(chan struct{})
	svc := newTestService(t, passingPipeline(block), 1)

	// The blocker holds the single permit, so the real task cannot emit
	// anything until after the subscriber is registered.
	_, err := svc.Clone("https://blocker.test")
	require.NoError(t, err)

	taskID, err := svc.Clone("https://real.test")
	require.NoError(t, err)

	sub := svc.Subscribe(taskID)
	defer svc.Unsubscribe(taskID, sub)
	close(block)

	events := collectUntilTerminal(t, sub)
	require.Len(t, events, 6)

	assert.Equal(t, EventTaskStarted, events[0].Event)
	assert.Equal(t, "https://real.test", events[0].URL)
	assert.Equal(t, string(workflow.EventAgentStarted), events[1].Event)
	assert.Equal(t, workflow.MakeStageID(workflow.StageSynthesizer, 1), events[1].AgentID)
	assert.Equal(t, string(workflow.EventAgentCompleted), events[2].Event)
	assert.Equal(t, string(workflow.EventAgentStarted), events[3].Event)
	assert.Equal(t, workflow.MakeStageID(workflow.StageValidation, 2), events[3].AgentID)
	assert.Equal(t, string(workflow.EventAgentCompleted), events[4].Event)
	assert.Equal(t, EventTaskCompleted, events[5].Event)

	require.NotNil(t, events[5].Result)
	assert.Equal(t, "success", events[5].Result.Status)

	for _, ev := range events {
		assert.Equal(t, taskID, ev.TaskID)
	}
}

func TestService_TaskLifecycle(t *testing.T) {
	svc := newTestService(t, passingPipeline(nil), 2)

	taskID, err := svc.Clone("https://acme.test")
	require.NoError(t, err)

	task := waitForStatus(t, svc, taskID, workflow.StatusCompleted)
	assert.Equal(t, "https://acme.test", task.URL)
	require.NotNil(t, task.Result)
	assert.Equal(t, float64(95), task.Result.QualityScore)

	result, err := svc.GetTaskResult(taskID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, "<html></html>", result.HTML)
	require.NotNil(t, result.ValidationReport)
	assert.Equal(t, "PASS", result.ValidationReport.Status)
}

func TestService_ResultUnavailableBeforeTerminal(t *testing.T) {
	block := make(chan struct{})
	svc := newTestService(t, passingPipeline(block), 1)

	taskID, err := svc.Clone("https://blocker.test")
	require.NoError(t, err)

	result, err := svc.GetTaskResult(taskID)
	require.NoError(t, err)
	assert.Nil(t, result, "result is withheld until the task finishes")

	close(block)
	waitForStatus(t, svc, taskID, workflow.StatusCompleted)
}

func TestService_FailedRunMarksTaskFailed(t *testing.T) {
	boom := svcDescriptor(workflow.StageScraper, 1, func(context.Context, *workflow.StageInput) (workflow.Artifact, error) {
		return nil, errors.New("host unreachable")
	})
	boom.MaxRetries = 0
	svc := newTestService(t, []workflow.StageDescriptor{boom}, 1)

	taskID, err := svc.Clone("https://down.test")
	require.NoError(t, err)

	task := waitForStatus(t, svc, taskID, workflow.StatusFailed)
	assert.Contains(t, task.Error, "host unreachable")

	result, err := svc.GetTaskResult(taskID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "error", result.Status)
	assert.Contains(t, result.Message, "host unreachable")
}

func TestService_CancelQueuedTask(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	svc := newTestService(t, passingPipeline(block), 1)

	_, err := svc.Clone("https://blocker.test")
	require.NoError(t, err)

	taskID, err := svc.Clone("https://queued.test")
	require.NoError(t, err)

	assert.True(t, svc.Cancel(taskID))

	task := waitForStatus(t, svc, taskID, workflow.StatusFailed)
	assert.Contains(t, task.Error, "canceled while queued")
}

func TestService_CancelUnknownTask(t *testing.T) {
	svc := newTestService(t, passingPipeline(nil), 1)
	assert.False(t, svc.Cancel("ghost"))
}

func TestService_CancelFinishedTaskReturnsFalse(t *testing.T) {
	svc := newTestService(t, passingPipeline(nil), 1)

	taskID, err := svc.Clone("https://acme.test")
	require.NoError(t, err)
	waitForStatus(t, svc, taskID, workflow.StatusCompleted)

	require.Eventually(t, func() bool {
		return !svc.Cancel(taskID)
	}, time.Second, 10*time.Millisecond, "cancel func should be released after the run")
}

func TestService_CloneRequiresURL(t *testing.T) {
	svc := newTestService(t, passingPipeline(nil), 1)
	_, err := svc.Clone("")
	require.Error(t, err)
}

func TestService_GenerateSynchronousPersistsArtifacts(t *testing.T) {
	svc := newTestService(t, passingPipeline(nil), 1)

	resp := svc.Generate(context.Background(), "https://acme.test")
	require.NotNil(t, resp)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, float64(95), resp.QualityScore)
	require.NotEmpty(t, resp.OutputPath)

	html, err := os.ReadFile(filepath.Join(resp.OutputPath, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(html))

	css, err := os.ReadFile(filepath.Join(resp.OutputPath, "styles.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{margin:0}", string(css))
}

func TestService_ListTasks(t *testing.T) {
	svc := newTestService(t, passingPipeline(nil), 2)

	first, err := svc.Clone("https://one.test")
	require.NoError(t, err)
	second, err := svc.Clone("https://two.test")
	require.NoError(t, err)

	resp, err := svc.ListTasks(ListTasksRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Tasks, 2)
	assert.Equal(t, first, resp.Tasks[0].ID)
	assert.Equal(t, second, resp.Tasks[1].ID)

	waitForStatus(t, svc, first, workflow.StatusCompleted)
	waitForStatus(t, svc, second, workflow.StatusCompleted)
}

func TestService_RegisteredStages(t *testing.T) {
	svc := newTestService(t, passingPipeline(nil), 1)

	infos := svc.RegisteredStages()
	require.Len(t, infos, 2)
	assert.Equal(t, "component_synthesizer_1", infos[0].ID)
	assert.Equal(t, "component_synthesizer", infos[0].Type)
	assert.Equal(t, 1, infos[0].MaxRetries)
	assert.Equal(t, "validation_2", infos[1].ID)
}
