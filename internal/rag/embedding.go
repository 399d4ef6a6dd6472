// Package rag retrieves graduation requirement document passages for
// answering free-form questions. It combines BM25 keyword search and vector
// semantic search over chromem-go, fused with Reciprocal Rank Fusion.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/haksamate/advisor-go/internal/ratelimit"
)

const (
	// GeminiEmbeddingModel is the model used for generating embeddings.
	GeminiEmbeddingModel = "gemini-embedding-001"

	// GeminiAPIRateLimit is the requests per minute budget for the
	// embedding API.
	GeminiAPIRateLimit = 1000

	geminiAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

	// Retry configuration for transient errors.
	embedMaxRetries    = 5
	embedInitialDelay  = 2 * time.Second
	embedBackoffFactor = 2.0
	embedJitterFactor  = 0.25
)

// EmbeddingClient generates embedding vectors with the Gemini REST API.
type EmbeddingClient struct {
	apiKey      string
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
}

// NewEmbeddingClient creates a Gemini embedding client.
func NewEmbeddingClient(apiKey string) *EmbeddingClient {
	return &EmbeddingClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: ratelimit.NewPerMinute(GeminiAPIRateLimit),
	}
}

type embeddingRequest struct {
	Model   string           `json:"model"`
	Content embeddingContent `json:"content"`
}

type embeddingContent struct {
	Parts []embeddingPart `json:"parts"`
}

type embeddingPart struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Embed generates an embedding vector for text. Transient failures (429,
// 500+, network errors) are retried with exponential backoff and jitter.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text cannot be embedded")
	}

	var lastErr error
	delay := embedInitialDelay

	for attempt := 0; attempt <= embedMaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		result, retryable, err := c.embedOnce(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable || attempt == embedMaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(applyJitter(delay)):
		}
		delay = time.Duration(float64(delay) * embedBackoffFactor)
	}

	return nil, fmt.Errorf("embedding failed: %w", lastErr)
}

// embedOnce performs a single embedding request.
// Returns (result, retryable, error).
func (c *EmbeddingClient) embedOnce(ctx context.Context, text string) ([]float32, bool, error) {
	url := fmt.Sprintf("%s/%s:embedContent?key=%s", geminiAPIBaseURL, GeminiEmbeddingModel, c.apiKey)

	reqBody := embeddingRequest{
		Model: fmt.Sprintf("models/%s", GeminiEmbeddingModel),
		Content: embeddingContent{
			Parts: []embeddingPart{{Text: text}},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("HTTP %d from embedding API", resp.StatusCode)
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}

	if embeddingResp.Error != nil {
		retryable := embeddingResp.Error.Code == 429 ||
			embeddingResp.Error.Status == "RESOURCE_EXHAUSTED" ||
			embeddingResp.Error.Code >= 500
		return nil, retryable, fmt.Errorf("API error %d: %s - %s",
			embeddingResp.Error.Code,
			embeddingResp.Error.Status,
			embeddingResp.Error.Message)
	}

	if len(embeddingResp.Embedding.Values) == 0 {
		return nil, false, fmt.Errorf("empty embedding returned")
	}

	return embeddingResp.Embedding.Values, false, nil
}

func applyJitter(delay time.Duration) time.Duration {
	jitter := float64(time.Now().UnixNano()%1000) / 1000.0
	jitter = (jitter - 0.5) * 2 * embedJitterFactor
	return time.Duration(float64(delay) * (1 + jitter))
}

// NewEmbeddingFunc creates a chromem-go compatible EmbeddingFunc backed by
// the Gemini embedding API.
func NewEmbeddingFunc(apiKey string) chromem.EmbeddingFunc {
	client := NewEmbeddingClient(apiKey)
	return func(ctx context.Context, text string) ([]float32, error) {
		return client.Embed(ctx, text)
	}
}

// IsConfigured returns true if the API key is set.
func (c *EmbeddingClient) IsConfigured() bool {
	return c.apiKey != ""
}
