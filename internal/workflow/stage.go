package workflow

import (
	"context"
	"fmt"
	"time"
)

// StageType identifies a kind of pipeline stage.
type StageType string

const (
	StageScraper     StageType = "scraper"
	StageParser      StageType = "semantic_parser"
	StageStyle       StageType = "style_transfer"
	StageLayout      StageType = "layout_generator"
	StageSynthesizer StageType = "component_synthesizer"
	StageValidation  StageType = "validation"
)

// StageID is an opaque identifier for one configured stage instance,
// assigned at registry-build time. The wire format keeps the
// "<type>_<ordinal>" shape (e.g. "component_synthesizer_5") for
// compatibility with existing event consumers, but nothing in the
// orchestrator depends on that structure.
type StageID string

// Stage is the capability contract every pipeline stage implements.
// Process must be idempotent with respect to its declared inputs and
// must honor ctx cancellation; the orchestrator, not the stage, decides
// whether a failure is retried.
type Stage interface {
	Process(ctx context.Context, in *StageInput) (Artifact, error)
}

// StageDescriptor pairs a stage instance with its identity and
// execution policy. Descriptors are created once at service
// initialization and shared read-only across concurrent runs.
type StageDescriptor struct {
	ID         StageID
	Type       StageType
	Name       string
	MaxRetries int
	Timeout    time.Duration
	Stage      Stage
}

// StageInput carries everything a stage is allowed to read: the run's
// URL and output directory plus the upstream artifacts selected by the
// orchestrator's dependency table. Fields for artifacts the stage does
// not depend on are left nil.
type StageInput struct {
	URL       string
	OutputDir string

	Scrape    *ScrapeResult
	Structure *ParseResult
	Design    *DesignSystem
	Layout    *LayoutPlan
	Synthesis *SynthesisResult
}

// stageDeps is the static dependency table: which upstream stage types
// each stage type reads. The scraper has no upstream inputs.
var stageDeps = map[StageType][]StageType{
	StageScraper:     nil,
	StageParser:      {StageScraper},
	StageStyle:       {StageScraper, StageParser},
	StageLayout:      {StageParser, StageStyle},
	StageSynthesizer: {StageScraper, StageParser, StageStyle, StageLayout},
	StageValidation:  {StageSynthesizer},
}

// MakeStageID builds the wire-compatible stage identifier for a stage
// type at the given one-based position in the configured order.
func MakeStageID(t StageType, ordinal int) StageID {
	return StageID(fmt.Sprintf("%s_%d", t, ordinal))
}
