package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

const wellFormedPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="description" content="A tidy page">
<title>Tidy</title>
</head>
<body>
<h1>Tidy</h1>
<h2>Section</h2>
<img src="x.png" alt="x">
</body>
</html>`

func validate(t *testing.T, html, css string, threshold float64) *workflow.ValidationResult {
	t.Helper()
	out, err := NewValidator(threshold).Process(context.Background(), &workflow.StageInput{
		Synthesis: &workflow.SynthesisResult{HTML: html, CSS: css},
	})
	require.NoError(t, err)
	result, ok := out.(*workflow.ValidationResult)
	require.True(t, ok)
	return result
}

func TestValidator_WellFormedPagePasses(t *testing.T) {
	result := validate(t, wellFormedPage, "body{margin:0}", 90)

	assert.Equal(t, float64(100), result.QualityScore)
	assert.True(t, result.Passed)
	assert.Equal(t, "PASS", result.Report.Status)
	assert.Empty(t, result.Report.Issues)
	assert.Empty(t, result.Report.Recommendations)
}

func TestValidator_BarePageFails(t *testing.T) {
	result := validate(t, "<html><body><p>hi</p></body></html>", "", 90)

	assert.False(t, result.Passed)
	assert.Equal(t, "FAIL", result.Report.Status)
	assert.Contains(t, result.Report.Issues, "missing page title")
	assert.Contains(t, result.Report.Issues, "missing h1 heading")
	assert.Contains(t, result.Report.Issues, "missing doctype declaration")
	assert.Contains(t, result.Report.Issues, "html element missing lang attribute")
	assert.NotEmpty(t, result.Report.Recommendations)
}

func TestValidator_ScoreIsDeterministic(t *testing.T) {
	first := validate(t, wellFormedPage, "", 90)
	second := validate(t, wellFormedPage, "", 90)
	assert.Equal(t, first.QualityScore, second.QualityScore)
	assert.Equal(t, first.Passed, second.Passed)
}

func TestValidator_AccessibilityPenalties(t *testing.T) {
	page := `<!DOCTYPE html>
<html lang="en">
<head><meta name="viewport" content=""><meta name="description" content="d"><title>t</title></head>
<body><h1>a</h1><h3>skips</h3><img src="x.png"><img src="y.png"></body>
</html>`
	result := validate(t, page, "", 90)

	// Two missing alts (-20) and one heading jump (-5) on the
	// accessibility axis, weighted at 0.30.
	assert.InDelta(t, 92.5, result.QualityScore, 0.001)
	assert.Contains(t, result.Report.Issues, "2 images missing alt text")
	assert.Contains(t, result.Report.Issues, "heading level jumps from h1 to h3")
}

func TestValidator_ThresholdControlsVerdict(t *testing.T) {
	page := `<!DOCTYPE html>
<html lang="en">
<head><meta name="viewport" content=""><title>t</title></head>
<body><h1>a</h1></body>
</html>`
	// Missing meta description: SEO 85, composite 95.5.
	strict := validate(t, page, "", 96)
	lenient := validate(t, page, "", 90)

	assert.False(t, strict.Passed)
	assert.True(t, lenient.Passed)
	assert.Equal(t, strict.QualityScore, lenient.QualityScore)
}

func TestValidator_DefaultsThreshold(t *testing.T) {
	v := NewValidator(0)
	assert.Equal(t, float64(90), v.passThreshold)
}

func TestValidator_RequiresSynthesisResult(t *testing.T) {
	_, err := NewValidator(90).Process(context.Background(), &workflow.StageInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "synthesis result is required")
}
