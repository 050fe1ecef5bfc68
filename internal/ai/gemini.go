package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	generateTimeout = 30 * time.Second

	// Low temperature keeps the analysis output deterministic-leaning.
	generateTemperature = 0.2
	maxOutputTokens     = 8192
)

// GeminiClient is an HTTP client for the Gemini generateContent API. It
// always requests JSON-typed output; callers re-validate the returned JSON
// against their own schema rather than trusting the model's adherence.
type GeminiClient struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewGeminiClient creates a client for the given model. The API key is
// required; a missing key is a configuration error surfaced immediately.
func NewGeminiClient(baseURL, model, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: GOOGLE_API_KEY is required")
	}
	if model == "" {
		return nil, fmt.Errorf("gemini: model name is required")
	}
	return &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: generateTimeout,
		},
	}, nil
}

// Name returns the model identifier recorded on analyzed articles.
func (c *GeminiClient) Name() string {
	return c.model
}

// generateContentRequest is the JSON body for POST /models/{m}:generateContent.
type generateContentRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// defaultSafetySettings mirror the moderation thresholds used for analysis
// prompts. A block at these thresholds is classified KindSafety.
var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// generateContentResponse is the subset of the API response the pipeline
// inspects.
type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// GenerateJSON sends the prompt and returns the model's raw JSON text. Every
// failure is a *CallError whose Kind drives the caller's retry/fallback
// decision.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	reqBody := generateContentRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      generateTemperature,
			MaxOutputTokens:  maxOutputTokens,
		},
		SafetySettings: defaultSafetySettings,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", newCallError(KindFatal, "MarshalRequest", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", newCallError(KindFatal, "BuildRequest", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", newCallError(KindTransient, "DeadlineExceeded", err)
		}
		return "", newCallError(KindTransient, "Unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		statusErr := fmt.Errorf("status %d: %s", resp.StatusCode, string(snippet))
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return "", newCallError(KindTransient, "RateLimited", statusErr)
		case http.StatusInternalServerError:
			return "", newCallError(KindTransient, "InternalServerError", statusErr)
		case http.StatusServiceUnavailable:
			return "", newCallError(KindTransient, "ServiceUnavailable", statusErr)
		case http.StatusGatewayTimeout:
			return "", newCallError(KindTransient, "DeadlineExceeded", statusErr)
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return "", newCallError(KindFatal, fmt.Sprintf("HTTPStatus%d", resp.StatusCode), statusErr)
		default:
			return "", newCallError(KindTransient, fmt.Sprintf("HTTPStatus%d", resp.StatusCode), statusErr)
		}
	}

	var result generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", newCallError(KindTransient, "MalformedResponse", err)
	}

	// Safety blocks are terminal: re-asking the same prompt cannot succeed.
	if result.PromptFeedback.BlockReason == "SAFETY" {
		return "", newCallError(KindSafety, "SafetyBlocked", fmt.Errorf("prompt blocked: %s", result.PromptFeedback.BlockReason))
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		reason := result.PromptFeedback.BlockReason
		if reason == "" {
			reason = "Unknown"
		}
		return "", newCallError(KindTransient, "BlockedOrEmpty", fmt.Errorf("empty response, block reason: %s", reason))
	}

	candidate := result.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", newCallError(KindSafety, "SafetyBlocked", fmt.Errorf("candidate finished with reason SAFETY"))
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", newCallError(KindTransient, "BlockedOrEmpty", fmt.Errorf("candidate contained no text"))
	}

	return text, nil
}
