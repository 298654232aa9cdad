package stages

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// StyleExtractor derives a design system from the scraped page:
// a color palette, typography, a spacing scale, and CSS variables the
// synthesizer bakes into the generated stylesheet.
type StyleExtractor struct {
	minColors int
	maxColors int
}

// NewStyleExtractor creates a StyleExtractor with the default palette bounds.
func NewStyleExtractor() *StyleExtractor {
	return &StyleExtractor{minColors: 5, maxColors: 10}
}

var (
	hexColorRe = regexp.MustCompile(`#(?:[0-9a-fA-F]{3}){1,2}\b`)
	rgbColorRe = regexp.MustCompile(`rgba?\([^)]*\)`)
	fontRe     = regexp.MustCompile(`font-family\s*:\s*([^;}"]+)`)
)

func (e *StyleExtractor) Process(_ context.Context, in *workflow.StageInput) (workflow.Artifact, error) {
	if in.Scrape == nil {
		return nil, fmt.Errorf("style: scrape result is required")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in.Scrape.HTML))
	if err != nil {
		return nil, fmt.Errorf("style: parse html: %w", err)
	}

	// All style text on the page: <style> blocks plus inline style attrs.
	var styleText strings.Builder
	doc.Find("style").Each(func(_ int, sel *goquery.Selection) {
		styleText.WriteString(sel.Text())
		styleText.WriteByte('\n')
	})
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		if style, ok := sel.Attr("style"); ok {
			styleText.WriteString(style)
			styleText.WriteByte('\n')
		}
	})

	colors := e.extractColors(styleText.String())
	typography := extractTypography(styleText.String())

	ds := &workflow.DesignSystem{
		Colors:       colors,
		Typography:   typography,
		SpacingScale: []int{4, 8, 16, 24, 32, 48, 64},
		CSSVariables: make(map[string]string),
	}

	for i, c := range colors {
		ds.CSSVariables[fmt.Sprintf("--color-%d", i+1)] = c
	}
	ds.CSSVariables["--font-body"] = typography.BodyFamily
	ds.CSSVariables["--font-heading"] = typography.HeadingFamily
	ds.CSSVariables["--font-size-base"] = fmt.Sprintf("%dpx", typography.BaseSizePx)

	return ds, nil
}

// extractColors collects colors by frequency and keeps the palette
// within the configured bounds, padding with a neutral fallback set
// when the page yields too few.
func (e *StyleExtractor) extractColors(styleText string) []string {
	counts := make(map[string]int)
	for _, m := range hexColorRe.FindAllString(styleText, -1) {
		counts[strings.ToLower(m)]++
	}
	for _, m := range rgbColorRe.FindAllString(styleText, -1) {
		counts[strings.ToLower(strings.ReplaceAll(m, " ", ""))]++
	}

	colors := make([]string, 0, len(counts))
	for c := range counts {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		if counts[colors[i]] != counts[colors[j]] {
			return counts[colors[i]] > counts[colors[j]]
		}
		return colors[i] < colors[j]
	})

	if len(colors) > e.maxColors {
		colors = colors[:e.maxColors]
	}
	for _, fallback := range []string{"#1a1a1a", "#ffffff", "#3b82f6", "#6b7280", "#f3f4f6"} {
		if len(colors) >= e.minColors {
			break
		}
		if !contains(colors, fallback) {
			colors = append(colors, fallback)
		}
	}
	return colors
}

func extractTypography(styleText string) workflow.Typography {
	t := workflow.Typography{
		BodyFamily:    "system-ui, sans-serif",
		HeadingFamily: "system-ui, sans-serif",
		BaseSizePx:    16,
	}
	matches := fontRe.FindAllStringSubmatch(styleText, -1)
	if len(matches) > 0 {
		t.BodyFamily = strings.TrimSpace(matches[0][1])
		t.HeadingFamily = t.BodyFamily
	}
	if len(matches) > 1 {
		t.HeadingFamily = strings.TrimSpace(matches[1][1])
	}
	return t
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
