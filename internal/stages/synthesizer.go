package stages

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// Synthesizer emits the approximated page: HTML assembled from the
// detected components and a stylesheet derived from the design system
// and layout plan.
type Synthesizer struct{}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

func (s *Synthesizer) Process(_ context.Context, in *workflow.StageInput) (workflow.Artifact, error) {
	if in.Structure == nil || in.Design == nil || in.Layout == nil {
		return nil, fmt.Errorf("synthesizer: structure, design, and layout results are required")
	}

	title := "Cloned Page"
	description := ""
	if in.Scrape != nil {
		if in.Scrape.Title != "" {
			title = in.Scrape.Title
		}
		description = in.Scrape.MetaInfo["description"]
	}

	htmlOut := s.renderHTML(title, description, in)
	cssOut := s.renderCSS(in.Design, in.Layout)

	return &workflow.SynthesisResult{
		HTML:       htmlOut,
		CSS:        cssOut,
		OutputPath: in.OutputDir,
	}, nil
}

func (s *Synthesizer) renderHTML(title, description string, in *workflow.StageInput) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	if description != "" {
		fmt.Fprintf(&b, "<meta name=\"description\" content=%q>\n", description)
	}
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("<link rel=\"stylesheet\" href=\"styles.css\">\n</head>\n<body>\n")

	components := in.Structure.ComponentMapping

	if navs := components["navigation"]; len(navs) > 0 {
		b.WriteString("<header class=\"site-header\">\n<nav class=\"site-nav\">\n")
		fmt.Fprintf(&b, "<span class=\"brand\">%s</span>\n", html.EscapeString(title))
		b.WriteString("</nav>\n</header>\n")
	}

	b.WriteString("<main class=\"container\">\n")
	if heroes := components["hero"]; len(heroes) > 0 {
		b.WriteString("<section class=\"hero\">\n")
		fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(firstHeading(in, title)))
		b.WriteString("</section>\n")
	} else if in.Scrape != nil && len(in.Scrape.Headings) > 0 {
		fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(in.Scrape.Headings[0].Text))
	}

	if cards := components["card"]; len(cards) > 0 {
		b.WriteString("<section class=\"card-grid\">\n")
		for i, card := range cards {
			if i >= 6 {
				break
			}
			b.WriteString("<article class=\"card\">\n")
			if card.Text != "" {
				fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(card.Text))
			}
			b.WriteString("</article>\n")
		}
		b.WriteString("</section>\n")
	}

	if forms := components["form"]; len(forms) > 0 {
		b.WriteString("<section class=\"form-section\">\n<form>\n")
		b.WriteString("<input type=\"text\" placeholder=\"Enter value\">\n")
		b.WriteString("<button type=\"submit\" class=\"btn\">Submit</button>\n")
		b.WriteString("</form>\n</section>\n")
	}
	b.WriteString("</main>\n")

	if footers := components["footer"]; len(footers) > 0 {
		b.WriteString("<footer class=\"site-footer\">\n")
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(title))
		b.WriteString("</footer>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func (s *Synthesizer) renderCSS(design *workflow.DesignSystem, layout *workflow.LayoutPlan) string {
	var b strings.Builder

	b.WriteString(":root {\n")
	keys := make([]string, 0, len(design.CSSVariables))
	for k := range design.CSSVariables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %s;\n", k, design.CSSVariables[k])
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "body {\n  font-family: %s;\n  font-size: var(--font-size-base);\n", design.Typography.BodyFamily)
	if len(design.Colors) >= 2 {
		fmt.Fprintf(&b, "  color: %s;\n  background: %s;\n", design.Colors[0], design.Colors[1])
	}
	b.WriteString("  margin: 0;\n}\n\n")

	fmt.Fprintf(&b, "h1, h2, h3 {\n  font-family: %s;\n}\n\n", design.Typography.HeadingFamily)

	fmt.Fprintf(&b, ".container {\n  max-width: %dpx;\n  margin: 0 auto;\n  padding: 0 %dpx;\n}\n\n",
		layout.MaxWidthPx, layout.GutterPx)
	fmt.Fprintf(&b, ".card-grid {\n  display: grid;\n  grid-template-columns: repeat(%d, 1fr);\n  gap: %dpx;\n}\n\n",
		gridCardColumns(layout.GridColumns), layout.GutterPx)

	b.WriteString(".site-header {\n  padding: 16px 24px;\n}\n\n")
	b.WriteString(".hero {\n  padding: 64px 0;\n  text-align: center;\n}\n\n")
	b.WriteString(".card {\n  padding: 24px;\n  border-radius: 8px;\n  border: 1px solid var(--color-4, #e5e7eb);\n}\n\n")
	if len(design.Colors) >= 3 {
		fmt.Fprintf(&b, ".btn {\n  background: %s;\n  color: #fff;\n  border: 0;\n  padding: 8px 16px;\n  border-radius: 6px;\n}\n\n", design.Colors[2])
	}

	// Media queries from the responsive breakpoints, narrowest first.
	for _, bp := range layout.Breakpoints {
		if bp.MinWidth == "0px" {
			continue
		}
		fmt.Fprintf(&b, "@media (min-width: %s) {\n  .card-grid {\n    grid-template-columns: repeat(%d, 1fr);\n  }\n}\n\n",
			bp.MinWidth, gridCardColumns(bp.Columns))
	}

	return b.String()
}

// gridCardColumns maps layout grid columns to a card track count.
func gridCardColumns(columns int) int {
	switch {
	case columns >= 12:
		return 3
	case columns >= 8:
		return 2
	default:
		return 1
	}
}

func firstHeading(in *workflow.StageInput, fallback string) string {
	if in.Scrape != nil {
		for _, h := range in.Scrape.Headings {
			if h.Level == 1 {
				return h.Text
			}
		}
		if len(in.Scrape.Headings) > 0 {
			return in.Scrape.Headings[0].Text
		}
	}
	return fallback
}
