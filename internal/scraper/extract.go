package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const (
	extractorUserAgent = "TruthGuard/1.0"
	extractTimeout     = 30 * time.Second

	// maxExtractChars caps extracted body text.
	maxExtractChars = 10000
)

// contentSelectors is the fallback chain tried when locating the article
// body. Site-agnostic: the first selector yielding substantial paragraph
// text wins.
var contentSelectors = []string{
	"article",
	".article-body",
	".story-body",
	".post-content",
	".entry-content",
	"[data-testid='article-body']",
	".article-content",
	".story-content",
	".main-content",
}

// Extractor downloads article pages and extracts plain-text body content.
type Extractor struct {
	userAgent string
}

// NewExtractor creates an Extractor with respectful rate limiting.
func NewExtractor() *Extractor {
	return &Extractor{userAgent: extractorUserAgent}
}

// newCollector creates a fresh Colly collector per call to avoid state
// leakage, rate-limited to 2 parallel requests per domain.
func (e *Extractor) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(e.userAgent),
		colly.AllowURLRevisit(),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(extractTimeout)

	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 2,
		Delay:       1 * time.Second,
		RandomDelay: 500 * time.Millisecond,
	})

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	return c
}

// Extract downloads the page at articleURL and returns its plain-text body.
// On any failure (network, parse, non-article page) it returns an empty
// string, never an error: callers treat empty text as "extraction failed"
// and apply their own fallback.
func (e *Extractor) Extract(ctx context.Context, articleURL string) string {
	if strings.TrimSpace(articleURL) == "" {
		return ""
	}

	c := e.newCollector()

	var raw []byte
	c.OnResponse(func(r *colly.Response) {
		raw = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		slog.Debug("extractor: download failed", "url", articleURL, "err", err)
	})

	// colly has no native context plumbing for synchronous visits; honor
	// cancellation before the blocking call.
	if ctx.Err() != nil {
		return ""
	}

	if err := c.Visit(articleURL); err != nil {
		slog.Debug("extractor: visit failed", "url", articleURL, "err", err)
		return ""
	}
	c.Wait()

	if len(raw) == 0 {
		return ""
	}

	text := extractBodyText(raw)
	if len(text) > maxExtractChars {
		text = text[:maxExtractChars]
	}
	return text
}

// extractBodyText parses HTML and walks the selector fallback chain, then
// falls back to a whole-document paragraph sweep.
func extractBodyText(raw []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	// Drop boilerplate containers before text extraction.
	doc.Find("script, style, nav, header, footer, aside").Remove()

	for _, selector := range contentSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		text := joinParagraphs(container, 0)
		if len(text) > 200 {
			return text
		}
	}

	// Final fallback: every paragraph of substance in the document.
	return joinParagraphs(doc.Selection, 30)
}

// joinParagraphs collects <p> text under sel, skipping paragraphs shorter
// than minLen, joined with blank lines.
func joinParagraphs(sel *goquery.Selection, minLen int) string {
	var paragraphs []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) > minLen {
			paragraphs = append(paragraphs, text)
		}
	})
	return NormalizeText(strings.Join(paragraphs, "\n"))
}
