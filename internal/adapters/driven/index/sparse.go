package index

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SparseIndex = (*SparseIndex)(nil)

// SparseIndex is an in-process lexical index over chunk contents.
// Scoring is TF-IDF with document frequencies computed within each
// document's chunk set. Postings for a document are built off-lock and
// swapped in atomically, so a concurrent search sees either the old
// version or the new one, never a half-replaced index.
type SparseIndex struct {
	mu   sync.RWMutex
	docs map[string]*docPostings
}

type docPostings struct {
	chunks []chunkEntry
	// df counts how many chunks of this document contain each term
	df map[string]int
}

type chunkEntry struct {
	id      string
	ordinal int
	tf      map[string]int
}

// NewSparseIndex creates an empty sparse index
func NewSparseIndex() *SparseIndex {
	return &SparseIndex{
		docs: make(map[string]*docPostings),
	}
}

// IndexDocument atomically replaces the postings for a document
func (s *SparseIndex) IndexDocument(ctx context.Context, documentID string, chunks []*domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	postings := &docPostings{
		chunks: make([]chunkEntry, 0, len(chunks)),
		df:     make(map[string]int),
	}

	for _, chunk := range chunks {
		tf := termFrequencies(chunk.Content)
		postings.chunks = append(postings.chunks, chunkEntry{
			id:      chunk.ID,
			ordinal: chunk.Ordinal,
			tf:      tf,
		})
		for term := range tf {
			postings.df[term]++
		}
	}

	s.mu.Lock()
	s.docs[documentID] = postings
	s.mu.Unlock()

	return nil
}

// Search returns the top-limit lexical matches within a document.
// Ties are broken by chunk ordinal, earlier wins.
func (s *SparseIndex) Search(ctx context.Context, documentID string, query string, limit int) ([]driven.SparseHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	postings := s.docs[documentID]
	s.mu.RUnlock()

	if postings == nil || limit <= 0 {
		return nil, nil
	}

	queryTerms := termFrequencies(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	n := float64(len(postings.chunks))

	type scored struct {
		hit     driven.SparseHit
		ordinal int
	}

	var matches []scored
	for _, entry := range postings.chunks {
		var score float64
		for term := range queryTerms {
			tf := entry.tf[term]
			if tf == 0 {
				continue
			}
			idf := math.Log(1 + n/float64(postings.df[term]))
			score += float64(tf) * idf
		}
		if score > 0 {
			matches = append(matches, scored{
				hit:     driven.SparseHit{ChunkID: entry.id, Score: score},
				ordinal: entry.ordinal,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].hit.Score != matches[j].hit.Score {
			return matches[i].hit.Score > matches[j].hit.Score
		}
		return matches[i].ordinal < matches[j].ordinal
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	hits := make([]driven.SparseHit, len(matches))
	for i, m := range matches {
		hits[i] = m.hit
	}

	return hits, nil
}

// DeleteDocument removes all postings for a document
func (s *SparseIndex) DeleteDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.docs, documentID)
	s.mu.Unlock()

	return nil
}

// termFrequencies tokenizes text into lower-case alphanumeric terms
// and counts occurrences. Single-character terms are dropped.
func termFrequencies(text string) map[string]int {
	tf := make(map[string]int)

	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	for _, field := range fields {
		if len(field) < 2 {
			continue
		}
		tf[field]++
	}

	return tf
}
