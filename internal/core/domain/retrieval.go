package domain

import "sort"

// RetrievalConfigVersion is folded into quiz cache fingerprints.
// Bump whenever fusion or reranking semantics change so stale cached
// quizzes are not replayed against different retrieval behaviour.
const RetrievalConfigVersion = "v1"

// RetrievalOptions configures a hybrid retrieval request
type RetrievalOptions struct {
	// CandidateLimit is the top-N fetched from each index
	CandidateLimit int `json:"candidate_limit"`

	// FusedLimit is the top-M returned after fusion (M > FinalK to give
	// the reranker room to reorder)
	FusedLimit int `json:"fused_limit"`

	// FinalK is the number of chunks returned after reranking
	FinalK int `json:"final_k"`

	// DenseWeight and SparseWeight control rank fusion. They are
	// renormalised to sum to 1; when the document is in degraded mode
	// all weight moves to sparse.
	DenseWeight  float64 `json:"dense_weight"`
	SparseWeight float64 `json:"sparse_weight"`
}

// DefaultRetrievalOptions returns sensible defaults
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{
		CandidateLimit: 20,
		FusedLimit:     10,
		FinalK:         5,
		DenseWeight:    0.6,
		SparseWeight:   0.4,
	}
}

// Normalise clamps limits and renormalises fusion weights
func (o RetrievalOptions) Normalise() RetrievalOptions {
	def := DefaultRetrievalOptions()
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = def.CandidateLimit
	}
	if o.FusedLimit <= 0 {
		o.FusedLimit = def.FusedLimit
	}
	if o.FinalK <= 0 {
		o.FinalK = def.FinalK
	}
	if o.FinalK > o.FusedLimit {
		o.FusedLimit = o.FinalK
	}
	// A negative weight, or weights summing to zero, would yield fused
	// weights outside [0,1] or NaN after the division below.
	if o.DenseWeight < 0 || o.SparseWeight < 0 || o.DenseWeight+o.SparseWeight == 0 {
		o.DenseWeight = def.DenseWeight
		o.SparseWeight = def.SparseWeight
	}
	total := o.DenseWeight + o.SparseWeight
	o.DenseWeight /= total
	o.SparseWeight /= total
	return o
}

// RetrievalCandidate is a transient per-query scoring record.
// Never persisted.
type RetrievalCandidate struct {
	Chunk       *Chunk  `json:"chunk"`
	DenseScore  float64 `json:"dense_score"`
	SparseScore float64 `json:"sparse_score"`
	FusedScore  float64 `json:"fused_score"`

	// FusedRank is the candidate's position after fusion, used as the
	// reranker's tie-break
	FusedRank int `json:"fused_rank"`

	RerankScore float64 `json:"rerank_score"`
}

// RetrievalResult is the reranked grounding context for one query
type RetrievalResult struct {
	Query      string                `json:"query"`
	Candidates []*RetrievalCandidate `json:"candidates"`

	// Degraded is set when dense retrieval was skipped
	Degraded bool `json:"degraded"`

	// Reranked is false when the reranker was unavailable and fused
	// order was kept
	Reranked bool `json:"reranked"`
}

// ChunkIDs returns the candidate chunk IDs in rank order
func (r *RetrievalResult) ChunkIDs() []string {
	ids := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		ids[i] = c.Chunk.ID
	}
	return ids
}

// SortByOrdinal orders candidates by their document position.
// Used for deterministic handling of equal scores.
func SortByOrdinal(candidates []*RetrievalCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Chunk.Ordinal < candidates[j].Chunk.Ordinal
	})
}
