package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/chromedp/chromedp"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// fetchFunc retrieves a rendered page. Split out so tests can run the
// scraper without a browser.
type fetchFunc func(ctx context.Context, url string) (html string, screenshot []byte, err error)

// Scraper fetches the target page with a headless browser and extracts
// the metadata downstream heuristics feed on. Navigation is retried
// with exponential backoff since transient network errors dominate the
// failure mode here.
type Scraper struct {
	captureScreenshot bool
	maxFetchRetries   uint64
	fetch             fetchFunc
}

// NewScraper creates a Scraper backed by chromedp.
func NewScraper(captureScreenshot bool) *Scraper {
	s := &Scraper{
		captureScreenshot: captureScreenshot,
		maxFetchRetries:   2,
	}
	s.fetch = s.fetchWithBrowser
	return s
}

func (s *Scraper) Process(ctx context.Context, in *workflow.StageInput) (workflow.Artifact, error) {
	if in.URL == "" {
		return nil, fmt.Errorf("scraper: url is required")
	}

	var html string
	var shot []byte

	op := func() error {
		var err error
		html, shot, err = s.fetch(ctx, in.URL)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxFetchRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("scraper: fetch %s: %w", in.URL, err)
	}

	result, err := extractPageInfo(html)
	if err != nil {
		return nil, fmt.Errorf("scraper: parse %s: %w", in.URL, err)
	}

	if len(shot) > 0 && in.OutputDir != "" {
		path := filepath.Join(in.OutputDir, "screenshot.png")
		if err := os.WriteFile(path, shot, 0o644); err == nil {
			result.ScreenshotPath = path
		}
	}

	return result, nil
}

// fetchWithBrowser drives a headless Chrome instance. Each call gets
// its own allocator so overlapping runs never share browser state.
func (s *Scraper) fetchWithBrowser(ctx context.Context, url string) (string, []byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var html string
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}

	var shot []byte
	if s.captureScreenshot {
		actions = append(actions, chromedp.CaptureScreenshot(&shot))
	}

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", nil, err
	}
	return html, shot, nil
}

// extractPageInfo pulls the title, meta tags, and heading outline out
// of the raw HTML.
func extractPageInfo(html string) (*workflow.ScrapeResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	result := &workflow.ScrapeResult{
		HTML:     html,
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		MetaInfo: make(map[string]string),
	}

	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		name, ok := sel.Attr("name")
		if !ok {
			name, ok = sel.Attr("property")
		}
		content, hasContent := sel.Attr("content")
		if ok && hasContent && name != "" {
			result.MetaInfo[name] = content
		}
	})

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		level, err := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(sel), "h"))
		if err != nil {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		result.Headings = append(result.Headings, workflow.Heading{Level: level, Text: text})
	})

	return result, nil
}
