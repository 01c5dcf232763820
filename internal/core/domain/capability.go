package domain

import (
	"fmt"
	"strings"
)

// CapabilityTag identifies one dispatchable lookup operation.
// The set is closed; dispatch runs over a fixed table, never reflection.
type CapabilityTag string

const (
	// CapabilityTopicSearch runs full hybrid retrieval scoped to a document
	CapabilityTopicSearch CapabilityTag = "topic_search"

	// CapabilityKeywordSearch runs lexical-only matching scoped to a document
	CapabilityKeywordSearch CapabilityTag = "keyword_search"

	// CapabilityExternalContent looks up supplementary study material
	// from the configured external content API
	CapabilityExternalContent CapabilityTag = "external_content"
)

// Valid reports whether the tag is in the dispatchable set
func (t CapabilityTag) Valid() bool {
	switch t {
	case CapabilityTopicSearch, CapabilityKeywordSearch, CapabilityExternalContent:
		return true
	}
	return false
}

// Result-count bounds for a capability request
const (
	DefaultCapabilityLimit = 5
	MaxCapabilityLimit     = 25
)

// CapabilityRequest is one tagged lookup
type CapabilityRequest struct {
	Tag        CapabilityTag `json:"tag"`
	DocumentID string        `json:"document_id,omitempty"`
	Query      string        `json:"query"`
	Limit      int           `json:"limit,omitempty"`
}

// Validate checks the request before dispatch
func (r *CapabilityRequest) Validate() error {
	if !r.Tag.Valid() {
		return fmt.Errorf("%w: unknown capability tag %q", ErrInvalidInput, r.Tag)
	}
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if r.Tag != CapabilityExternalContent && r.DocumentID == "" {
		return fmt.Errorf("%w: document_id is required for %s", ErrInvalidInput, r.Tag)
	}
	return nil
}

// Normalised clamps the result limit into bounds
func (r CapabilityRequest) Normalised() CapabilityRequest {
	if r.Limit <= 0 {
		r.Limit = DefaultCapabilityLimit
	}
	if r.Limit > MaxCapabilityLimit {
		r.Limit = MaxCapabilityLimit
	}
	return r
}

// CapabilityItem is one result row. Source is a chunk ID for the
// document-scoped capabilities and a provider name for external ones.
type CapabilityItem struct {
	Title   string  `json:"title,omitempty"`
	Snippet string  `json:"snippet"`
	Source  string  `json:"source"`
	URL     string  `json:"url,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// CapabilityResult is the outcome of one dispatched lookup
type CapabilityResult struct {
	Tag   CapabilityTag     `json:"tag"`
	Query string            `json:"query"`
	Items []*CapabilityItem `json:"items"`
}
