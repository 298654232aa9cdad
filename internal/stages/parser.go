package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// Parser derives the semantic structure of the scraped page: a
// simplified document tree, a mapping of detected component roles, and
// the inferred overall layout type.
type Parser struct {
	maxDepth int
}

// NewParser creates a Parser. The document tree is truncated at a fixed
// depth; deeper nesting adds noise without improving synthesis.
func NewParser() *Parser {
	return &Parser{maxDepth: 4}
}

func (p *Parser) Process(_ context.Context, in *workflow.StageInput) (workflow.Artifact, error) {
	if in.Scrape == nil {
		return nil, fmt.Errorf("parser: scrape result is required")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in.Scrape.HTML))
	if err != nil {
		return nil, fmt.Errorf("parser: parse html: %w", err)
	}

	result := &workflow.ParseResult{
		ComponentMapping: detectComponents(doc),
	}

	body := doc.Find("body").First()
	result.DocumentStructure = buildStructure(body, p.maxDepth)
	result.LayoutType = inferLayoutType(doc, result.ComponentMapping)

	return result, nil
}

// componentSelectors maps a component role to the selectors that
// identify it. Order does not matter; every match is recorded.
var componentSelectors = map[string]string{
	"navigation": "nav, [role=navigation], header ul",
	"hero":       "[class*=hero], [class*=banner], [class*=jumbotron]",
	"card":       "[class*=card], [class*=tile], article",
	"form":       "form",
	"button":     "button, a[class*=btn], input[type=submit]",
	"footer":     "footer, [role=contentinfo]",
	"image":      "img, picture",
}

func detectComponents(doc *goquery.Document) map[string][]workflow.ComponentRef {
	mapping := make(map[string][]workflow.ComponentRef)
	for role, selector := range componentSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			ref := workflow.ComponentRef{
				Tag:  goquery.NodeName(sel),
				Role: role,
			}
			if class, ok := sel.Attr("class"); ok {
				ref.Classes = class
			}
			if text := strings.TrimSpace(sel.Text()); text != "" {
				ref.Text = truncate(text, 120)
			}
			mapping[role] = append(mapping[role], ref)
		})
	}
	return mapping
}

// buildStructure walks the element tree down to maxDepth, keeping only
// structural tags.
func buildStructure(sel *goquery.Selection, maxDepth int) workflow.StructureNode {
	node := workflow.StructureNode{Tag: goquery.NodeName(sel)}
	node.Role = roleForTag(node.Tag)

	if maxDepth == 0 {
		return node
	}

	sel.Children().Each(func(_ int, child *goquery.Selection) {
		tag := goquery.NodeName(child)
		if !structuralTags[tag] {
			return
		}
		node.Children = append(node.Children, buildStructure(child, maxDepth-1))
	})
	return node
}

var structuralTags = map[string]bool{
	"header": true, "nav": true, "main": true, "section": true,
	"article": true, "aside": true, "footer": true, "div": true,
	"form": true, "ul": true, "table": true,
}

func roleForTag(tag string) string {
	switch tag {
	case "header":
		return "header"
	case "nav":
		return "navigation"
	case "main":
		return "content"
	case "footer":
		return "footer"
	default:
		return ""
	}
}

// inferLayoutType guesses the page's dominant layout from class usage
// and component density.
func inferLayoutType(doc *goquery.Document, components map[string][]workflow.ComponentRef) string {
	grid := doc.Find("[class*=grid], [class*=col-], [class*=row]").Length()
	flex := doc.Find("[class*=flex]").Length()

	switch {
	case grid > flex && grid > 2:
		return "grid"
	case flex > 2:
		return "flex"
	case len(components["card"]) >= 3:
		return "grid"
	default:
		return "single-column"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
