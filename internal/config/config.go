// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the full application configuration.
type Config struct {
	Mongo    MongoConfig
	Server   ServerConfig
	NewsAPI  NewsAPIConfig
	Gemini   GeminiConfig
	Embed    EmbedConfig
	Pipeline PipelineConfig
}

// MongoConfig holds MongoDB connection parameters.
type MongoConfig struct {
	URI      string
	Database string
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port string
	Host string
}

// Addr returns the full listen address (host:port).
func (c ServerConfig) Addr() string {
	return c.Host + c.Port
}

// NewsAPIConfig holds the news-listing provider parameters.
type NewsAPIConfig struct {
	APIKey   string
	BaseURL  string
	PageSize int
}

// GeminiConfig holds the generative model parameters.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// EmbedConfig holds the embedding service parameters.
type EmbedConfig struct {
	Host  string
	Model string
}

// PipelineConfig holds tunables for the scrape and analysis stages.
type PipelineConfig struct {
	Categories        []string
	Topics            []string
	RSSFeeds          []string
	MinContentLength  int
	FetchConcurrency  int
	AnalysisBatchSize int
	MaxRetries        int
	RetryBaseDelay    time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Required secrets (API keys, Mongo URI) are validated by the components that
// consume them, not here.
func Load() Config {
	return Config{
		Mongo: MongoConfig{
			URI:      envOr("MONGODB_URI", ""),
			Database: envOr("MONGODB_DATABASE", "truthguard"),
		},
		Server: ServerConfig{
			Port: envOr("SERVER_PORT", ":8080"),
			Host: envOr("SERVER_HOST", ""),
		},
		NewsAPI: NewsAPIConfig{
			APIKey:   envOr("NEWS_API_KEY", ""),
			BaseURL:  envOr("NEWS_API_BASE_URL", "https://newsapi.org/v2"),
			PageSize: envOrInt("NEWS_API_PAGE_SIZE", 20),
		},
		Gemini: GeminiConfig{
			APIKey:  envOr("GOOGLE_API_KEY", ""),
			BaseURL: envOr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:   envOr("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		},
		Embed: EmbedConfig{
			Host:  envOr("EMBED_HOST", "http://localhost:11434"),
			Model: envOr("EMBED_MODEL", "all-minilm"),
		},
		Pipeline: PipelineConfig{
			Categories:        envOrList("SCRAPE_CATEGORIES", []string{"general", "business", "technology", "health", "science"}),
			Topics:            envOrList("SCRAPE_TOPICS", []string{"misinformation", "fact checking", "media bias"}),
			RSSFeeds:          envOrList("SCRAPE_RSS_FEEDS", nil),
			MinContentLength:  envOrInt("SCRAPE_MIN_CONTENT_LENGTH", 150),
			FetchConcurrency:  envOrInt("SCRAPE_CONCURRENCY", 2),
			AnalysisBatchSize: envOrInt("ANALYSIS_DEFAULT_BATCH_SIZE", 20),
			MaxRetries:        envOrInt("ANALYSIS_MAX_RETRIES", 2),
			RetryBaseDelay:    envOrDuration("ANALYSIS_RETRY_BASE_DELAY", time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// envOrList splits a comma-separated env var into trimmed values.
func envOrList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
