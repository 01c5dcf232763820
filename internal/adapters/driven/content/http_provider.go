package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ContentProvider = (*HTTPProvider)(nil)

// HTTPProvider implements driven.ContentProvider against an external
// educational content API exposing GET /search. Lookups are cached per
// topic so repeated requests within the TTL do not hit the API again.
type HTTPProvider struct {
	baseURL    string
	source     string
	cacheTTL   time.Duration
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	items   []*domain.CapabilityItem
	expires time.Time
}

// Config holds content provider connection configuration
type Config struct {
	// BaseURL is the content API endpoint
	BaseURL string

	// Source names the provider in returned items
	Source string

	// CacheTTL bounds how long a topic's results are reused
	CacheTTL time.Duration

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:  baseURL,
		Source:   "external",
		CacheTTL: time.Hour,
		Timeout:  10 * time.Second,
	}
}

// NewHTTPProvider creates a new content provider client
func NewHTTPProvider(cfg Config) *HTTPProvider {
	return &HTTPProvider{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		source:   cfg.Source,
		cacheTTL: cfg.CacheTTL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: make(map[string]cacheEntry),
	}
}

type searchResponse struct {
	Results []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
	} `json:"results"`
	Error string `json:"error,omitempty"`
}

// Lookup fetches study material for the topic, serving from cache when
// a fresh entry exists
func (p *HTTPProvider) Lookup(ctx context.Context, topic string, limit int) ([]*domain.CapabilityItem, error) {
	key := fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(topic)), limit)

	p.mu.Lock()
	if entry, ok := p.cache[key]; ok && time.Now().Before(entry.expires) {
		items := entry.items
		p.mu.Unlock()
		return items, nil
	}
	p.mu.Unlock()

	endpoint := fmt.Sprintf("%s/search?q=%s&limit=%s",
		p.baseURL, url.QueryEscape(topic), strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrServiceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(respBody, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if searchResp.Error != "" {
		return nil, fmt.Errorf("content API error: %s", searchResp.Error)
	}

	items := make([]*domain.CapabilityItem, 0, len(searchResp.Results))
	for _, result := range searchResp.Results {
		items = append(items, &domain.CapabilityItem{
			Title:   result.Title,
			Snippet: result.Description,
			Source:  p.source,
			URL:     result.URL,
		})
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	p.mu.Lock()
	p.cache[key] = cacheEntry{items: items, expires: time.Now().Add(p.cacheTTL)}
	p.mu.Unlock()

	return items, nil
}

// HealthCheck verifies the content API is reachable
func (p *HTTPProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("content API health returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources held by the provider
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
