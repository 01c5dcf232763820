package domain

import "time"

// IndexStatus reports how completely a document was indexed
type IndexStatus string

const (
	// IndexStatusFull means both dense and sparse indexes hold the document
	IndexStatusFull IndexStatus = "full"

	// IndexStatusSparseOnly means the dense index was unavailable at
	// ingestion time; retrieval must skip dense queries for this document
	IndexStatusSparseOnly IndexStatus = "sparse_only"
)

// Document represents an ingested source document.
// Immutable after ingestion completes.
type Document struct {
	ID          string      `json:"id"`
	Filename    string      `json:"filename"` // Provenance only
	ByteLength  int         `json:"byte_length"`
	ChunkCount  int         `json:"chunk_count"`
	IndexStatus IndexStatus `json:"index_status"`
	Objectives  []string    `json:"objectives,omitempty"`
	IngestedAt  time.Time   `json:"ingested_at"`
}

// Degraded reports whether dense retrieval must be skipped for this document
func (d *Document) Degraded() bool {
	return d.IndexStatus == IndexStatusSparseOnly
}

// Chunk represents a retrievable passage of a document.
// Chunk identity is (DocumentID, Ordinal).
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Ordinal    int       `json:"ordinal"` // Position within document
	Content    string    `json:"content"`
	Heading    string    `json:"heading,omitempty"`
	StartChar  int       `json:"start_char"`
	EndChar    int       `json:"end_char"`
	CreatedAt  time.Time `json:"created_at"`
}

// IngestRequest carries the extracted text for one document.
// The document ID is assigned by the persistence collaborator.
type IngestRequest struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Content    string `json:"content"`
}

// IngestResult summarises a completed ingestion
type IngestResult struct {
	DocumentID  string      `json:"document_id"`
	ChunkCount  int         `json:"chunk_count"`
	Objectives  []string    `json:"objectives"`
	IndexStatus IndexStatus `json:"index_status"`
}
