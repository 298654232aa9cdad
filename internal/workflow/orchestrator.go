package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Orchestrator builds the stage graph once and executes it per run.
// The descriptor list is immutable after construction, so a single
// Orchestrator is safe to share across concurrent runs; all mutable
// state lives in the per-run WorkflowState.
type Orchestrator struct {
	descriptors []StageDescriptor
	byID        map[StageID]*StageDescriptor
	outputDir   string
	log         *slog.Logger

	gateID  StageID // validation stage, empty when not configured
	synthID StageID // component synthesizer stage, empty when not configured
}

// NewOrchestrator creates an orchestrator over the given ordered stage
// descriptors. The output directory is created if missing; each run
// gets its own subdirectory under it.
func NewOrchestrator(descriptors []StageDescriptor, outputDir string, log *slog.Logger) (*Orchestrator, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("orchestrator: no stages configured")
	}
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("orchestrator: create output dir %s: %w", outputDir, err)
	}

	o := &Orchestrator{
		descriptors: descriptors,
		byID:        make(map[StageID]*StageDescriptor, len(descriptors)),
		outputDir:   outputDir,
		log:         log,
	}
	for i := range descriptors {
		d := &descriptors[i]
		if _, dup := o.byID[d.ID]; dup {
			return nil, fmt.Errorf("orchestrator: duplicate stage id %s", d.ID)
		}
		o.byID[d.ID] = d
		switch d.Type {
		case StageValidation:
			o.gateID = d.ID
		case StageSynthesizer:
			o.synthID = d.ID
		}
	}
	return o, nil
}

// Descriptors returns the configured stage descriptors in order.
func (o *Orchestrator) Descriptors() []StageDescriptor {
	return o.descriptors
}

// Run executes the workflow for a URL and returns the final state
// unconditionally; callers must inspect state.Status, never assume
// success. Events are emitted through reporter when non-nil.
func (o *Orchestrator) Run(ctx context.Context, url string, reporter *EventReporter) *WorkflowState {
	runID := uuid.NewString()
	outputPath := filepath.Join(o.outputDir, runID)

	state := NewWorkflowState(url, outputPath)

	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		state.Status = StatusFailed
		state.RecordError("orchestrator", "Orchestrator", fmt.Sprintf("create run dir: %v", err))
		return state
	}

	o.log.Info("workflow started", "url", url, "output_path", outputPath)

	graph := o.buildGraph(reporter)
	if err := graph.run(ctx, state); err != nil {
		o.log.Warn("workflow aborted", "url", url, "error", err)
		state.Status = StatusFailed
		state.RecordError("orchestrator", "Orchestrator", err.Error())
		return state
	}

	// A traversal that ends without the router settling the status
	// derives it from the per-stage outcomes.
	if state.Status == StatusRunning {
		state.Status = StatusCompleted
		for _, st := range state.Stages {
			if st.Status == StatusFailed {
				state.Status = StatusFailed
				break
			}
		}
	}

	o.log.Info("workflow finished", "url", url, "status", state.Status, "quality_score", state.QualityScore)
	return state
}

// buildGraph assembles the directed graph: one node per configured
// stage, linear edges in configuration order, and a single conditional
// edge out of the validation node when both it and the synthesizer are
// present.
func (o *Orchestrator) buildGraph(reporter *EventReporter) *stageGraph {
	order := make([]StageID, len(o.descriptors))
	for i, d := range o.descriptors {
		order[i] = d.ID
	}

	g := newStageGraph(order)
	for i := range o.descriptors {
		d := &o.descriptors[i]
		g.handlers[d.ID] = o.stageHandler(d, reporter)
	}

	if o.gateID != "" && o.synthID != "" {
		g.conditional[o.gateID] = conditionalEdge{
			router:      o.validationRouter,
			retryTarget: o.synthID,
		}
	}

	g.retryable = func(state *WorkflowState, id StageID) bool {
		d, ok := o.byID[id]
		if !ok {
			return false
		}
		st := state.Stages[id]
		return st != nil && st.RetryCount < d.MaxRetries
	}

	return g
}

// stageHandler wraps one stage as a graph node: it maintains the
// per-stage run state, assembles the stage input from upstream results,
// invokes the stage with its timeout, and emits lifecycle events.
func (o *Orchestrator) stageHandler(d *StageDescriptor, reporter *EventReporter) nodeFunc {
	return func(ctx context.Context, state *WorkflowState) error {
		state.CurrentStageID = d.ID

		st, seen := state.Stages[d.ID]
		if !seen {
			st = &StageRunState{
				ID:        d.ID,
				Name:      d.Name,
				Status:    StatusRunning,
				StartTime: time.Now(),
			}
			state.Stages[d.ID] = st
		} else {
			st.Status = StatusRunning
			st.StartTime = time.Now()
			st.RetryCount++
		}

		reporter.Emit(Event{
			Type:      EventAgentStarted,
			StageID:   d.ID,
			StageName: d.Name,
			StartTime: st.StartTime,
		})

		in := o.assembleInput(d, state)

		o.log.Debug("stage running", "stage", d.ID, "retry_count", st.RetryCount)
		result, err := invokeStage(ctx, d, in)
		if err != nil {
			st.Status = StatusFailed
			st.EndTime = time.Now()
			st.Error = err.Error()
			// An earlier attempt may have completed; its artifact is no
			// longer valid once the stage's final status is failed.
			st.Result = nil
			delete(state.Results, d.ID)
			state.RecordError(d.ID, d.Name, err.Error())

			if st.RetryCount >= d.MaxRetries {
				state.Status = StatusFailed
			}

			reporter.Emit(Event{
				Type:      EventAgentFailed,
				StageID:   d.ID,
				StageName: d.Name,
				Error:     err.Error(),
			})
			return fmt.Errorf("stage %s: %w", d.ID, err)
		}

		st.Status = StatusCompleted
		st.EndTime = time.Now()
		st.Result = result
		st.Error = ""
		state.Results[d.ID] = result

		switch res := result.(type) {
		case *ValidationResult:
			state.QualityScore = res.QualityScore
			if res.Passed {
				state.Status = StatusCompleted
			}
		case *SynthesisResult:
			if res.OutputPath != "" {
				state.OutputPath = res.OutputPath
			}
		}

		reporter.Emit(Event{
			Type:      EventAgentCompleted,
			StageID:   d.ID,
			StageName: d.Name,
			StartTime: st.StartTime,
			EndTime:   st.EndTime,
			Duration:  st.EndTime.Sub(st.StartTime).Seconds(),
		})
		return nil
	}
}

// assembleInput selects exactly the upstream artifacts the stage's type
// is declared to depend on, plus the run's URL and, for stages that
// persist artifacts, the run output directory.
func (o *Orchestrator) assembleInput(d *StageDescriptor, state *WorkflowState) *StageInput {
	in := &StageInput{URL: state.URL}

	if d.Type == StageSynthesizer || d.Type == StageValidation || d.Type == StageScraper {
		in.OutputDir = state.OutputPath
	}

	for _, depType := range stageDeps[d.Type] {
		for _, dep := range o.descriptors {
			if dep.Type != depType {
				continue
			}
			res, ok := state.Results[dep.ID]
			if !ok {
				continue
			}
			switch a := res.(type) {
			case *ScrapeResult:
				in.Scrape = a
			case *ParseResult:
				in.Structure = a
			case *DesignSystem:
				in.Design = a
			case *LayoutPlan:
				in.Layout = a
			case *SynthesisResult:
				in.Synthesis = a
			}
		}
	}
	return in
}

// invokeStage runs the stage capability on its own goroutine under the
// declared timeout. The goroutine boundary isolates the traversal loop
// from stages that ignore ctx; a panic inside a stage surfaces as an
// ordinary error.
func invokeStage(parent context.Context, d *StageDescriptor, in *StageInput) (Artifact, error) {
	ctx := parent
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, d.Timeout)
		defer cancel()
	}

	type outcome struct {
		result Artifact
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("stage panicked: %v", r)}
			}
		}()
		result, err := d.Stage.Process(ctx, in)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		if parent.Err() != nil {
			return nil, parent.Err()
		}
		return nil, fmt.Errorf("timed out after %s: %w", d.Timeout, ctx.Err())
	}
}
