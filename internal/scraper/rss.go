package scraper

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var reHTMLTag = regexp.MustCompile(`<[^>]*>`)

const (
	feedUserAgent = "TruthGuard/1.0"
	feedTimeout   = 30 * time.Second

	// maxFeedBody caps the feed payload read into memory.
	maxFeedBody = 10 * 1024 * 1024
)

// rssRoot is the top-level XML element for RSS 2.0 feeds.
type rssRoot struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// atomFeed is the top-level XML element for Atom feeds.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string     `xml:"title"`
	Links   []atomLink `xml:"link"`
	Summary string     `xml:"summary"`
	Updated string     `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// FetchFeed downloads and parses an RSS 2.0 or Atom feed, returning its
// items as normalized raw entries. The feed title is used as the source name
// when an entry has no better attribution.
func FetchFeed(ctx context.Context, feedURL string) ([]RawEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, feedTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("rss: create request: %w", err)
	}
	req.Header.Set("User-Agent", feedUserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss: fetch %s: %w", feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss: fetch %s: status %d", feedURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("rss: read body: %w", err)
	}

	// Try RSS 2.0 first, then Atom.
	if entries, err := parseRSS(body); err == nil && len(entries) > 0 {
		return entries, nil
	}
	if entries, err := parseAtom(body); err == nil && len(entries) > 0 {
		return entries, nil
	}

	return nil, fmt.Errorf("rss: unrecognized feed format at %s", feedURL)
}

func parseRSS(data []byte) ([]RawEntry, error) {
	var root rssRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Channel.Items) == 0 {
		return nil, fmt.Errorf("no RSS items found")
	}

	source := strings.TrimSpace(root.Channel.Title)
	entries := make([]RawEntry, 0, len(root.Channel.Items))
	for _, item := range root.Channel.Items {
		entries = append(entries, RawEntry{
			Title:       strings.TrimSpace(item.Title),
			URL:         strings.TrimSpace(item.Link),
			Source:      source,
			Description: stripTags(item.Description),
			PublishedAt: strings.TrimSpace(item.PubDate),
		})
	}
	return entries, nil
}

func parseAtom(data []byte) ([]RawEntry, error) {
	var feed atomFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, err
	}
	if len(feed.Entries) == 0 {
		return nil, fmt.Errorf("no Atom entries found")
	}

	source := strings.TrimSpace(feed.Title)
	entries := make([]RawEntry, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		entries = append(entries, RawEntry{
			Title:       strings.TrimSpace(entry.Title),
			URL:         strings.TrimSpace(atomEntryLink(entry.Links)),
			Source:      source,
			Description: stripTags(entry.Summary),
			PublishedAt: strings.TrimSpace(entry.Updated),
		})
	}
	return entries, nil
}

// atomEntryLink prefers rel="alternate" or the first href found.
func atomEntryLink(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "alternate" || l.Rel == "" {
			return l.Href
		}
	}
	if len(links) > 0 {
		return links[0].Href
	}
	return ""
}

// stripTags removes markup from feed descriptions, which frequently embed
// HTML.
func stripTags(s string) string {
	s = reHTMLTag.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return NormalizeText(s)
}
