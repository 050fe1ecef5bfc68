package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	embeddingTimeout = 30 * time.Second

	// maxEmbedChars caps the text encoded per embedding. Truncation is a
	// deliberate precision/cost tradeoff: the tail of very long articles
	// contributes little to similarity search.
	maxEmbedChars = 10000
)

// EmbeddingClient is an HTTP client for an Ollama-compatible embedding
// endpoint. The default model (all-minilm) produces 384-dimensional vectors
// suitable for cosine-similarity search.
type EmbeddingClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewEmbeddingClient creates a client against the given host and model.
func NewEmbeddingClient(baseURL, model string) *EmbeddingClient {
	return &EmbeddingClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: embeddingTimeout,
		},
	}
}

// Model returns the embedding model identifier recorded in run summaries.
func (c *EmbeddingClient) Model() string {
	return c.model
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed converts text into a fixed-length vector. It returns nil on empty
// input or any failure; callers treat nil as "no embedding available" and
// carry on. Failures are logged, never propagated.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) []float32 {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) > maxEmbedChars {
		text = text[:maxEmbedChars]
	}

	vec, err := c.embed(ctx, text)
	if err != nil {
		slog.Warn("embedding failed", "model", c.model, "text_len", len(text), "err", err)
		return nil
	}
	return vec
}

func (c *EmbeddingClient) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embeddingTimeout)
	defer cancel()

	body, err := json.Marshal(embeddingRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("embed: status %d: %s", resp.StatusCode, string(snippet))
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}

	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("embed: empty embedding returned")
	}

	return result.Embedding, nil
}
