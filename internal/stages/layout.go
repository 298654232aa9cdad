package stages

import (
	"context"
	"fmt"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// LayoutGenerator turns the parsed structure and design system into a
// grid specification with responsive breakpoints.
type LayoutGenerator struct {
	columns map[string]int
}

// NewLayoutGenerator creates a LayoutGenerator with the standard
// 4/8/12 column split across mobile, tablet, and desktop.
func NewLayoutGenerator() *LayoutGenerator {
	return &LayoutGenerator{
		columns: map[string]int{
			"mobile":  4,
			"tablet":  8,
			"desktop": 12,
		},
	}
}

func (g *LayoutGenerator) Process(_ context.Context, in *workflow.StageInput) (workflow.Artifact, error) {
	if in.Structure == nil {
		return nil, fmt.Errorf("layout: parse result is required")
	}

	plan := &workflow.LayoutPlan{
		GridColumns: g.columns["desktop"],
		GutterPx:    24,
		MaxWidthPx:  1200,
		Breakpoints: []workflow.Breakpoint{
			{Name: "mobile", MinWidth: "0px", Columns: g.columns["mobile"]},
			{Name: "tablet", MinWidth: "768px", Columns: g.columns["tablet"]},
			{Name: "desktop", MinWidth: "1200px", Columns: g.columns["desktop"]},
		},
	}

	// Single-column pages keep a narrower reading measure.
	if in.Structure.LayoutType == "single-column" {
		plan.GridColumns = 1
		plan.MaxWidthPx = 760
	}

	return plan, nil
}
