package workflow

// Artifact is the tagged union of stage outputs. Each concrete result
// type reports the stage type that produces it, so results can be
// stored in one map and routed to downstream inputs without reflection.
type Artifact interface {
	StageType() StageType
}

// Heading is one document heading extracted during scraping.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// ScrapeResult is the scraper stage output: the raw page plus the
// cheap-to-extract metadata downstream heuristics feed on.
type ScrapeResult struct {
	HTML           string            `json:"html"`
	Title          string            `json:"title"`
	ScreenshotPath string            `json:"screenshot_path,omitempty"`
	MetaInfo       map[string]string `json:"meta_info"`
	Headings       []Heading         `json:"headings"`
}

func (*ScrapeResult) StageType() StageType { return StageScraper }

// ComponentRef describes one detected page component.
type ComponentRef struct {
	Tag     string `json:"tag"`
	Role    string `json:"role"`
	Classes string `json:"classes,omitempty"`
	Text    string `json:"text,omitempty"`
}

// StructureNode is one node of the simplified document tree.
type StructureNode struct {
	Tag      string          `json:"tag"`
	Role     string          `json:"role,omitempty"`
	Children []StructureNode `json:"children,omitempty"`
}

// ParseResult is the semantic parser output: document structure, the
// component mapping, and the inferred overall layout type.
type ParseResult struct {
	DocumentStructure StructureNode             `json:"document_structure"`
	ComponentMapping  map[string][]ComponentRef `json:"component_mapping"`
	LayoutType        string                    `json:"layout_type"`
}

func (*ParseResult) StageType() StageType { return StageParser }

// Typography captures the font choices derived from the source page.
type Typography struct {
	BodyFamily    string `json:"body_family"`
	HeadingFamily string `json:"heading_family"`
	BaseSizePx    int    `json:"base_size_px"`
}

// DesignSystem is the style transfer output.
type DesignSystem struct {
	Colors       []string          `json:"colors"`
	Typography   Typography        `json:"typography"`
	SpacingScale []int             `json:"spacing_scale"`
	CSSVariables map[string]string `json:"css_variables"`
}

func (*DesignSystem) StageType() StageType { return StageStyle }

// Breakpoint describes one responsive breakpoint.
type Breakpoint struct {
	Name     string `json:"name"`
	MinWidth string `json:"min_width"`
	Columns  int    `json:"columns"`
}

// LayoutPlan is the layout generator output: a grid specification and
// the responsive breakpoints the synthesizer renders media queries for.
type LayoutPlan struct {
	GridColumns int          `json:"grid_columns"`
	GutterPx    int          `json:"gutter_px"`
	MaxWidthPx  int          `json:"max_width_px"`
	Breakpoints []Breakpoint `json:"breakpoints"`
}

func (*LayoutPlan) StageType() StageType { return StageLayout }

// SynthesisResult is the component synthesizer output: the generated
// page text and the run directory it belongs to.
type SynthesisResult struct {
	HTML       string `json:"html_output"`
	CSS        string `json:"css_output"`
	OutputPath string `json:"output_path"`
}

func (*SynthesisResult) StageType() StageType { return StageSynthesizer }

// CheckResult is the score for one validation axis.
type CheckResult struct {
	Score  float64  `json:"score"`
	Passed bool     `json:"passed"`
	Issues []string `json:"issues,omitempty"`
}

// ValidationReport is the structured report attached to the validation
// artifact and surfaced in the generation response.
type ValidationReport struct {
	Status          string                 `json:"status"`
	Metrics         map[string]CheckResult `json:"metrics"`
	Issues          []string               `json:"issues"`
	Recommendations []string               `json:"recommendations"`
}

// ValidationResult is the quality gate output. Passed drives the
// orchestrator's retry loop; QualityScore is copied onto the run state.
type ValidationResult struct {
	QualityScore float64          `json:"quality_score"`
	Passed       bool             `json:"passed"`
	Report       ValidationReport `json:"validation_report"`
}

func (*ValidationResult) StageType() StageType { return StageValidation }
