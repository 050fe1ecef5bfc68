package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headlinesResponse = `{
	"status": "ok",
	"articles": [
		{
			"source": {"name": "Example Times"},
			"title": "  Council approves transit plan ",
			"description": "A long-debated plan passes.",
			"url": "https://example.com/transit?utm_source=api",
			"publishedAt": "2026-02-10T08:00:00Z"
		},
		{
			"source": {"name": "Daily Wire Service"},
			"title": "Storm closes roadways",
			"description": "",
			"url": "https://example.com/storm",
			"publishedAt": "2026-02-10T06:30:00Z"
		}
	]
}`

func TestTopHeadlines(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/top-headlines", r.URL.Path)
		gotQuery = map[string]string{
			"category": r.URL.Query().Get("category"),
			"language": r.URL.Query().Get("language"),
			"pageSize": r.URL.Query().Get("pageSize"),
			"apiKey":   r.URL.Query().Get("apiKey"),
		}
		_, _ = w.Write([]byte(headlinesResponse))
	}))
	defer srv.Close()

	c, err := NewNewsAPIClient(srv.URL, "test-key", 25)
	require.NoError(t, err)

	entries, err := c.TopHeadlines(context.Background(), "technology")
	require.NoError(t, err)

	assert.Equal(t, "technology", gotQuery["category"])
	assert.Equal(t, "en", gotQuery["language"])
	assert.Equal(t, "25", gotQuery["pageSize"])
	assert.Equal(t, "test-key", gotQuery["apiKey"])

	require.Len(t, entries, 2)
	assert.Equal(t, "Council approves transit plan", entries[0].Title)
	assert.Equal(t, "Example Times", entries[0].Source)
	assert.Equal(t, "https://example.com/transit?utm_source=api", entries[0].URL)
	assert.Equal(t, "2026-02-10T08:00:00Z", entries[0].PublishedAt)
}

func TestEverything(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/everything", r.URL.Path)
		assert.Equal(t, "media bias", r.URL.Query().Get("q"))
		assert.Equal(t, "publishedAt", r.URL.Query().Get("sortBy"))
		_, _ = w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer srv.Close()

	c, err := NewNewsAPIClient(srv.URL, "test-key", 0)
	require.NoError(t, err)

	entries, err := c.Everything(context.Background(), "media bias")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"too many requests"}`))
	}))
	defer srv.Close()

	c, err := NewNewsAPIClient(srv.URL, "test-key", 10)
	require.NoError(t, err)

	_, err = c.TopHeadlines(context.Background(), "general")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rateLimited")
}

func TestProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewNewsAPIClient(srv.URL, "test-key", 10)
	require.NoError(t, err)

	_, err = c.Everything(context.Background(), "fact checking")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNewNewsAPIClientRequiresKey(t *testing.T) {
	_, err := NewNewsAPIClient("https://example.com", "", 10)
	assert.Error(t, err)
}
