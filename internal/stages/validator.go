package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// Validator is the quality gate: it scores the generated HTML/CSS
// across accessibility, SEO, performance, and best-practice axes and
// reports whether the result clears the pass threshold. Scoring is
// deterministic for a given input, so re-running the gate on identical
// synthesis output yields the same verdict.
type Validator struct {
	passThreshold float64
}

// NewValidator creates a Validator with the given pass threshold
// (0–100). Values <= 0 fall back to the default of 90.
func NewValidator(passThreshold float64) *Validator {
	if passThreshold <= 0 {
		passThreshold = 90
	}
	return &Validator{passThreshold: passThreshold}
}

func (v *Validator) Process(_ context.Context, in *workflow.StageInput) (workflow.Artifact, error) {
	if in.Synthesis == nil {
		return nil, fmt.Errorf("validator: synthesis result is required")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in.Synthesis.HTML))
	if err != nil {
		return nil, fmt.Errorf("validator: parse generated html: %w", err)
	}

	metrics := map[string]workflow.CheckResult{
		"accessibility":  checkAccessibility(doc),
		"seo":            checkSEO(doc),
		"performance":    checkPerformance(in.Synthesis),
		"best_practices": checkBestPractices(in.Synthesis, doc),
	}

	// Weighted composite; accessibility and SEO carry the most weight.
	score := 0.30*metrics["accessibility"].Score +
		0.30*metrics["seo"].Score +
		0.20*metrics["performance"].Score +
		0.20*metrics["best_practices"].Score

	passed := score >= v.passThreshold

	report := workflow.ValidationReport{
		Status:  "PASS",
		Metrics: metrics,
	}
	if !passed {
		report.Status = "FAIL"
	}
	for name, m := range metrics {
		report.Issues = append(report.Issues, m.Issues...)
		if !m.Passed {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("improve %s score (%.0f)", name, m.Score))
		}
	}

	return &workflow.ValidationResult{
		QualityScore: score,
		Passed:       passed,
		Report:       report,
	}, nil
}

func checkAccessibility(doc *goquery.Document) workflow.CheckResult {
	res := workflow.CheckResult{Score: 100}

	missingAlt := 0
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if _, ok := sel.Attr("alt"); !ok {
			missingAlt++
		}
	})
	if missingAlt > 0 {
		res.Score -= float64(10 * missingAlt)
		res.Issues = append(res.Issues, fmt.Sprintf("%d images missing alt text", missingAlt))
	}

	if _, ok := doc.Find("html").Attr("lang"); !ok {
		res.Score -= 10
		res.Issues = append(res.Issues, "html element missing lang attribute")
	}

	// Heading levels must not skip (h1 -> h3 is a violation).
	prev := 0
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		level := int(goquery.NodeName(sel)[1] - '0')
		if prev > 0 && level > prev+1 {
			res.Score -= 5
			res.Issues = append(res.Issues, fmt.Sprintf("heading level jumps from h%d to h%d", prev, level))
		}
		prev = level
	})

	if res.Score < 0 {
		res.Score = 0
	}
	res.Passed = res.Score >= 90
	return res
}

func checkSEO(doc *goquery.Document) workflow.CheckResult {
	res := workflow.CheckResult{Score: 100}

	if strings.TrimSpace(doc.Find("title").Text()) == "" {
		res.Score -= 30
		res.Issues = append(res.Issues, "missing page title")
	}
	if doc.Find(`meta[name="description"]`).Length() == 0 {
		res.Score -= 15
		res.Issues = append(res.Issues, "missing meta description")
	}
	if doc.Find("h1").Length() == 0 {
		res.Score -= 20
		res.Issues = append(res.Issues, "missing h1 heading")
	}
	if doc.Find("h1").Length() > 1 {
		res.Score -= 10
		res.Issues = append(res.Issues, "multiple h1 headings")
	}

	if res.Score < 0 {
		res.Score = 0
	}
	res.Passed = res.Score >= 90
	return res
}

func checkPerformance(syn *workflow.SynthesisResult) workflow.CheckResult {
	res := workflow.CheckResult{Score: 100}

	const maxHTMLBytes = 200 << 10
	if len(syn.HTML) > maxHTMLBytes {
		res.Score -= 20
		res.Issues = append(res.Issues, "generated html exceeds 200KiB")
	}
	if len(syn.CSS) > maxHTMLBytes {
		res.Score -= 20
		res.Issues = append(res.Issues, "generated css exceeds 200KiB")
	}

	res.Passed = res.Score >= 90
	return res
}

func checkBestPractices(syn *workflow.SynthesisResult, doc *goquery.Document) workflow.CheckResult {
	res := workflow.CheckResult{Score: 100}

	if !strings.HasPrefix(strings.TrimSpace(strings.ToLower(syn.HTML)), "<!doctype html>") {
		res.Score -= 15
		res.Issues = append(res.Issues, "missing doctype declaration")
	}
	if doc.Find(`meta[name="viewport"]`).Length() == 0 {
		res.Score -= 15
		res.Issues = append(res.Issues, "missing viewport meta tag")
	}
	if inline := doc.Find("[style]").Length(); inline > 5 {
		res.Score -= 10
		res.Issues = append(res.Issues, fmt.Sprintf("%d elements with inline styles", inline))
	}

	res.Passed = res.Score >= 85
	return res
}
