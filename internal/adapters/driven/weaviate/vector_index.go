package weaviate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

const chunkClass = "QuizChunk"

// VectorIndex implements driven.VectorIndex using Weaviate's REST API
type VectorIndex struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds Weaviate connection configuration
type Config struct {
	// BaseURL is the Weaviate endpoint (e.g., http://localhost:8080)
	BaseURL string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// NewVectorIndex creates a new Weaviate-backed VectorIndex
func NewVectorIndex(cfg Config) *VectorIndex {
	return &VectorIndex{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// objectID derives a stable Weaviate UUID from a chunk ID, so
// re-ingesting a document overwrites its objects in place.
func objectID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

type weaviateObject struct {
	Class      string                 `json:"class"`
	ID         string                 `json:"id"`
	Properties map[string]interface{} `json:"properties"`
	Vector     []float32              `json:"vector"`
}

// Upsert replaces all vectors for the chunks' document. Existing
// objects are overwritten in place via deterministic IDs, then any
// leftover ordinals from a previously longer version are deleted, so
// readers never observe a missing chunk.
func (v *VectorIndex) Upsert(ctx context.Context, chunks []*domain.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	objects := make([]weaviateObject, len(chunks))
	for i, chunk := range chunks {
		objects[i] = weaviateObject{
			Class: chunkClass,
			ID:    objectID(chunk.ID),
			Properties: map[string]interface{}{
				"chunkId":    chunk.ID,
				"documentId": chunk.DocumentID,
				"ordinal":    chunk.Ordinal,
				"content":    chunk.Content,
			},
			Vector: embeddings[i],
		}
	}

	body, err := json.Marshal(map[string]interface{}{"objects": objects})
	if err != nil {
		return err
	}

	if err := v.doJSON(ctx, http.MethodPost, "/v1/batch/objects", body, nil); err != nil {
		return fmt.Errorf("weaviate batch upsert failed: %w", err)
	}

	return v.deleteTail(ctx, chunks[0].DocumentID, len(chunks))
}

// deleteTail removes objects of a document with ordinal >= from,
// cleaning up after a re-ingest that produced fewer chunks.
func (v *VectorIndex) deleteTail(ctx context.Context, documentID string, from int) error {
	match := map[string]interface{}{
		"match": map[string]interface{}{
			"class": chunkClass,
			"where": map[string]interface{}{
				"operator": "And",
				"operands": []map[string]interface{}{
					{"path": []string{"documentId"}, "operator": "Equal", "valueText": documentID},
					{"path": []string{"ordinal"}, "operator": "GreaterThanEqual", "valueInt": from},
				},
			},
		},
	}

	body, err := json.Marshal(match)
	if err != nil {
		return err
	}

	return v.doJSON(ctx, http.MethodDelete, "/v1/batch/objects", body, nil)
}

type graphqlResponse struct {
	Data struct {
		Get map[string][]struct {
			ChunkID    string `json:"chunkId"`
			Additional struct {
				Certainty float64 `json:"certainty"`
			} `json:"_additional"`
		} `json:"Get"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Search finds the top-limit most similar chunks within a document
func (v *VectorIndex) Search(ctx context.Context, documentID string, embedding []float32, limit int) ([]driven.VectorHit, error) {
	vector, err := json.Marshal(embedding)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`{
		Get {
			%s(
				nearVector: {vector: %s}
				where: {path: ["documentId"], operator: Equal, valueText: %q}
				limit: %d
			) {
				chunkId
				_additional { certainty }
			}
		}
	}`, chunkClass, vector, documentID, limit)

	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}

	var resp graphqlResponse
	if err := v.doJSON(ctx, http.MethodPost, "/v1/graphql", body, &resp); err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql error: %s", resp.Errors[0].Message)
	}

	results := resp.Data.Get[chunkClass]
	hits := make([]driven.VectorHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, driven.VectorHit{
			ChunkID: r.ChunkID,
			Score:   r.Additional.Certainty,
		})
	}

	return hits, nil
}

// DeleteByDocument removes all vectors for a document
func (v *VectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	return v.deleteTail(ctx, documentID, 0)
}

// HealthCheck verifies the Weaviate instance reports ready
func (v *VectorIndex) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/v1/.well-known/ready", nil)
	if err != nil {
		return err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weaviate not ready: status %d", resp.StatusCode)
	}
	return nil
}

// doJSON issues one JSON request and optionally decodes the response
func (v *VectorIndex) doJSON(ctx context.Context, method, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, v.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s - %s", resp.Status, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
