package stages

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

func synthInput() *workflow.StageInput {
	return &workflow.StageInput{
		URL:       "https://acme.test",
		OutputDir: "/tmp/out",
		Scrape: &workflow.ScrapeResult{
			Title:    "Acme & Co",
			MetaInfo: map[string]string{"description": "Acme landing page"},
			Headings: []workflow.Heading{{Level: 1, Text: "Ship faster"}},
		},
		Structure: &workflow.ParseResult{
			LayoutType: "grid",
			ComponentMapping: map[string][]workflow.ComponentRef{
				"navigation": {{Tag: "nav", Role: "navigation"}},
				"hero":       {{Tag: "section", Role: "hero"}},
				"card": {
					{Tag: "article", Role: "card", Text: "Feature one"},
					{Tag: "article", Role: "card", Text: "Feature two"},
				},
				"form":   {{Tag: "form", Role: "form"}},
				"footer": {{Tag: "footer", Role: "footer"}},
			},
		},
		Design: &workflow.DesignSystem{
			Colors:     []string{"#111111", "#ffffff", "#3b82f6"},
			Typography: workflow.Typography{BodyFamily: "Inter, sans-serif", HeadingFamily: "Georgia, serif", BaseSizePx: 16},
			CSSVariables: map[string]string{
				"--color-1":        "#111111",
				"--font-body":      "Inter, sans-serif",
				"--font-size-base": "16px",
			},
		},
		Layout: &workflow.LayoutPlan{
			GridColumns: 12,
			GutterPx:    24,
			MaxWidthPx:  1200,
			Breakpoints: []workflow.Breakpoint{
				{Name: "mobile", MinWidth: "0px", Columns: 4},
				{Name: "tablet", MinWidth: "768px", Columns: 8},
				{Name: "desktop", MinWidth: "1200px", Columns: 12},
			},
		},
	}
}

func synthesize(t *testing.T, in *workflow.StageInput) *workflow.SynthesisResult {
	t.Helper()
	out, err := NewSynthesizer().Process(context.Background(), in)
	require.NoError(t, err)
	result, ok := out.(*workflow.SynthesisResult)
	require.True(t, ok)
	return result
}

func TestSynthesizer_RendersDetectedComponents(t *testing.T) {
	result := synthesize(t, synthInput())

	assert.Contains(t, result.HTML, "<!DOCTYPE html>")
	assert.Contains(t, result.HTML, `<html lang="en">`)
	assert.Contains(t, result.HTML, "<title>Acme &amp; Co</title>")
	assert.Contains(t, result.HTML, `content="Acme landing page"`)
	assert.Contains(t, result.HTML, `class="site-nav"`)
	assert.Contains(t, result.HTML, "<h1>Ship faster</h1>")
	assert.Contains(t, result.HTML, "Feature one")
	assert.Contains(t, result.HTML, `class="form-section"`)
	assert.Contains(t, result.HTML, `class="site-footer"`)
	assert.Equal(t, "/tmp/out", result.OutputPath)
}

func TestSynthesizer_CapsCardsAtSix(t *testing.T) {
	in := synthInput()
	cards := make([]workflow.ComponentRef, 10)
	for i := range cards {
		cards[i] = workflow.ComponentRef{Tag: "article", Role: "card", Text: "card"}
	}
	in.Structure.ComponentMapping["card"] = cards

	result := synthesize(t, in)
	assert.Equal(t, 6, strings.Count(result.HTML, `<article class="card">`))
}

func TestSynthesizer_SkipsAbsentComponents(t *testing.T) {
	in := synthInput()
	in.Structure.ComponentMapping = map[string][]workflow.ComponentRef{}

	result := synthesize(t, in)
	assert.NotContains(t, result.HTML, "site-nav")
	assert.NotContains(t, result.HTML, "card-grid")
	assert.NotContains(t, result.HTML, "site-footer")
	assert.Contains(t, result.HTML, "<h1>Ship faster</h1>", "first heading still renders without a hero")
}

func TestSynthesizer_StylesheetReflectsDesignAndLayout(t *testing.T) {
	result := synthesize(t, synthInput())

	assert.Contains(t, result.CSS, "--color-1: #111111;")
	assert.Contains(t, result.CSS, "font-family: Inter, sans-serif;")
	assert.Contains(t, result.CSS, "max-width: 1200px;")
	assert.Contains(t, result.CSS, "grid-template-columns: repeat(3, 1fr);", "12 grid columns map to 3 card tracks")
	assert.Contains(t, result.CSS, "@media (min-width: 768px)")
	assert.Contains(t, result.CSS, "@media (min-width: 1200px)")
	assert.NotContains(t, result.CSS, "@media (min-width: 0px)")
}

func TestSynthesizer_RequiresUpstreamArtifacts(t *testing.T) {
	for _, tc := range []struct {
		name string
		mod  func(*workflow.StageInput)
	}{
		{"missing structure", func(in *workflow.StageInput) { in.Structure = nil }},
		{"missing design", func(in *workflow.StageInput) { in.Design = nil }},
		{"missing layout", func(in *workflow.StageInput) { in.Layout = nil }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := synthInput()
			tc.mod(in)
			_, err := NewSynthesizer().Process(context.Background(), in)
			require.Error(t, err)
		})
	}
}
