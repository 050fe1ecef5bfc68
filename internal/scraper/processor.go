// Package scraper implements the fetch stage of the TruthGuard pipeline:
// querying the news-listing provider and RSS feeds, extracting article text,
// deduplicating by content fingerprint, and storing new articles.
package scraper

import (
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// trackingParams is the set of URL query parameters commonly used for
// tracking that are stripped during canonicalization.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"utm_id":       true,
	"fbclid":       true,
	"gclid":        true,
	"gclsrc":       true,
	"dclid":        true,
	"msclkid":      true,
	"twclid":       true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref":          true,
	"_ga":          true,
	"_gl":          true,
}

var reWhitespace = regexp.MustCompile(`\s+`)

// CanonicalizeURL normalizes a URL by lowercasing the scheme and host,
// removing tracking parameters and fragments, trimming trailing slashes, and
// sorting query parameters. The article identifier is derived from this form,
// so two tracking-parameter variants of the same link resolve to one article.
func CanonicalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL // Return as-is if unparseable.
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	parsed.Fragment = ""
	parsed.RawFragment = ""

	if len(parsed.Path) > 1 {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
	}

	query := parsed.Query()
	for key := range query {
		if trackingParams[strings.ToLower(key)] {
			query.Del(key)
		}
	}
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

// ArticleID derives the stable article identifier from a URL. It is a pure
// function of the canonical URL: re-fetching the same link always resolves
// to the same identifier.
func ArticleID(rawURL string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(CanonicalizeURL(rawURL))))
}

// HashContent returns the hex-encoded SHA-256 fingerprint of extracted text,
// used for near-duplicate detection independent of URL.
func HashContent(content string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(content)))
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// NormalizeText collapses runs of whitespace within lines and drops empty
// lines, preserving paragraph boundaries as single newlines.
func NormalizeText(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(reWhitespace.ReplaceAllString(line, " "))
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, "\n")
}

// publishedAtFormats are the timestamp layouts seen across the provider and
// RSS feeds, tried in order.
var publishedAtFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 MST",
}

// ParsePublishedAt parses a publication timestamp defensively. Unparseable
// input yields nil: a missing publish date is never fatal to ingestion.
func ParsePublishedAt(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range publishedAtFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// truncate shortens s for log output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
