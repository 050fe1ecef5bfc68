package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Wire Report</title>
<item>
<title>Budget talks stall</title>
<link>https://wire.example.com/budget</link>
<description>&lt;p&gt;Negotiations broke down late Thursday.&lt;/p&gt;</description>
<pubDate>Thu, 12 Feb 2026 21:10:00 +0000</pubDate>
</item>
<item>
<title>Port reopens</title>
<link>https://wire.example.com/port</link>
<description>Shipping resumes after the strike.</description>
<pubDate>Thu, 12 Feb 2026 19:00:00 +0000</pubDate>
</item>
</channel>
</rss>`

const atomFeedXML = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>Atom Wire</title>
<entry>
<title>Vote scheduled</title>
<link rel="alternate" href="https://atom.example.com/vote"/>
<summary>The chamber votes next week.</summary>
<updated>2026-02-12T10:00:00Z</updated>
</entry>
</feed>`

func TestFetchFeedRSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer srv.Close()

	entries, err := FetchFeed(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Budget talks stall", entries[0].Title)
	assert.Equal(t, "https://wire.example.com/budget", entries[0].URL)
	assert.Equal(t, "Wire Report", entries[0].Source)
	assert.Equal(t, "Negotiations broke down late Thursday.", entries[0].Description)
	assert.Equal(t, "Thu, 12 Feb 2026 21:10:00 +0000", entries[0].PublishedAt)
}

func TestFetchFeedAtom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomFeedXML))
	}))
	defer srv.Close()

	entries, err := FetchFeed(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "Vote scheduled", entries[0].Title)
	assert.Equal(t, "https://atom.example.com/vote", entries[0].URL)
	assert.Equal(t, "Atom Wire", entries[0].Source)
	assert.Equal(t, "2026-02-12T10:00:00Z", entries[0].PublishedAt)
}

func TestFetchFeedUnrecognizedFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a feed"}`))
	}))
	defer srv.Close()

	_, err := FetchFeed(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchFeedHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := FetchFeed(context.Background(), srv.URL)
	assert.Error(t, err)
}
