package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Reranker = (*HTTPReranker)(nil)

// HTTPReranker implements driven.Reranker against a cross-encoder
// sidecar exposing POST /v1/rerank. Scores come back aligned with the
// submitted documents so the retrieval layer can reorder candidates.
type HTTPReranker struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds reranker connection configuration
type Config struct {
	// BaseURL is the sidecar endpoint (e.g., http://localhost:9300)
	BaseURL string

	// Model is the cross-encoder model identifier
	Model string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Model:   "cross-encoder/ms-marco-MiniLM-L-6-v2",
		Timeout: 15 * time.Second,
	}
}

// NewHTTPReranker creates a new reranker client
func NewHTTPReranker(cfg Config) *HTTPReranker {
	return &HTTPReranker{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Error string `json:"error,omitempty"`
}

// Score returns one relevance score per chunk content, aligned by
// index with the input slice
func (r *HTTPReranker) Score(ctx context.Context, query string, chunks []string) ([]float64, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: chunks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrServiceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(respBody, &rerankResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if rerankResp.Error != "" {
		return nil, fmt.Errorf("reranker error: %s", rerankResp.Error)
	}

	// Results may come back sorted by score; realign by index
	scores := make([]float64, len(chunks))
	seen := 0
	for _, result := range rerankResp.Results {
		if result.Index < 0 || result.Index >= len(scores) {
			return nil, fmt.Errorf("reranker returned out-of-range index %d", result.Index)
		}
		scores[result.Index] = result.RelevanceScore
		seen++
	}
	if seen != len(chunks) {
		return nil, fmt.Errorf("reranker returned %d scores for %d documents", seen, len(chunks))
	}

	return scores, nil
}

// Model returns the model identifier for logging
func (r *HTTPReranker) Model() string {
	return r.model
}

// HealthCheck verifies the reranker sidecar is reachable
func (r *HTTPReranker) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reranker health returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources held by the reranker
func (r *HTTPReranker) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}
