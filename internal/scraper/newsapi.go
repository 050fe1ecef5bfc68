package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const providerTimeout = 30 * time.Second

// RawEntry is one normalized listing entry from any provider surface
// (category headlines, topic search, or an RSS feed).
type RawEntry struct {
	Title       string
	URL         string
	Source      string
	Description string
	PublishedAt string
}

// NewsAPIClient consumes the two listing operations of the news provider:
// top headlines by category and free-text topic search. A non-"ok" provider
// status is an error; callers convert provider errors into a fetch-error
// count and never propagate them further.
type NewsAPIClient struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
}

// NewNewsAPIClient creates a provider client. The API key is required.
func NewNewsAPIClient(baseURL, apiKey string, pageSize int) (*NewsAPIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("newsapi: NEWS_API_KEY is required")
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &NewsAPIClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: providerTimeout,
		},
	}, nil
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// TopHeadlines lists the current top items for one category.
func (c *NewsAPIClient) TopHeadlines(ctx context.Context, category string) ([]RawEntry, error) {
	params := url.Values{}
	params.Set("category", category)
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	return c.list(ctx, "/top-headlines", params)
}

// Everything lists items matching a free-text topic query, newest first.
func (c *NewsAPIClient) Everything(ctx context.Context, topic string) ([]RawEntry, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	return c.list(ctx, "/everything", params)
}

func (c *NewsAPIClient) list(ctx context.Context, path string, params url.Values) ([]RawEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("newsapi: status %d: %s", resp.StatusCode, string(snippet))
	}

	var result newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("newsapi: decode response: %w", err)
	}

	if result.Status != "ok" {
		return nil, fmt.Errorf("newsapi: provider status %q (%s: %s)", result.Status, result.Code, result.Message)
	}

	entries := make([]RawEntry, 0, len(result.Articles))
	for _, a := range result.Articles {
		entries = append(entries, RawEntry{
			Title:       strings.TrimSpace(a.Title),
			URL:         strings.TrimSpace(a.URL),
			Source:      strings.TrimSpace(a.Source.Name),
			Description: strings.TrimSpace(a.Description),
			PublishedAt: a.PublishedAt,
		})
	}
	return entries, nil
}
