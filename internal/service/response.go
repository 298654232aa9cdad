package service

import (
	"fmt"
	"path/filepath"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// GenerationResponse is the public result of one cloning run.
type GenerationResponse struct {
	Status           string                     `json:"status"` // success | error
	QualityScore     float64                    `json:"quality_score"`
	Message          string                     `json:"message"`
	HTML             string                     `json:"html,omitempty"`
	CSS              string                     `json:"css,omitempty"`
	OutputPath       string                     `json:"output_path,omitempty"`
	HTMLPath         string                     `json:"html_path,omitempty"`
	CSSPath          string                     `json:"css_path,omitempty"`
	Error            string                     `json:"error,omitempty"`
	ValidationReport *workflow.ValidationReport `json:"validation_report,omitempty"`
}

// responseFromState translates the final workflow state into the public
// response shape. A failed run carries the last failing stage's error;
// a successful one carries the generated page and validation report.
func responseFromState(state *workflow.WorkflowState) *GenerationResponse {
	if state.Status != workflow.StatusCompleted {
		msg := "website generation failed"
		var raw string
		if last := state.LastError(); last != nil {
			msg = fmt.Sprintf("error in %s: %s", last.StageName, last.Message)
			raw = last.Message
		}
		return &GenerationResponse{
			Status:       "error",
			QualityScore: state.QualityScore,
			Message:      msg,
			Error:        raw,
		}
	}

	resp := &GenerationResponse{
		Status:       "success",
		QualityScore: state.QualityScore,
		Message:      "website generation completed successfully",
		OutputPath:   state.OutputPath,
	}

	for _, res := range state.Results {
		switch a := res.(type) {
		case *workflow.SynthesisResult:
			resp.HTML = a.HTML
			resp.CSS = a.CSS
		case *workflow.ValidationResult:
			report := a.Report
			resp.ValidationReport = &report
		}
	}

	if state.OutputPath != "" {
		resp.HTMLPath = filepath.Join(state.OutputPath, "index.html")
		resp.CSSPath = filepath.Join(state.OutputPath, "styles.css")
	}
	return resp
}
