package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QuizStore = (*QuizStore)(nil)

// QuizStore implements driven.QuizStore using PostgreSQL.
// Generated quiz sets outlive their cache entries here so question
// provenance can be audited after the cache TTL passes.
type QuizStore struct {
	db *DB
}

// NewQuizStore creates a new QuizStore
func NewQuizStore(db *DB) *QuizStore {
	return &QuizStore{db: db}
}

// Save stores a quiz set under its fingerprint
func (s *QuizStore) Save(ctx context.Context, fingerprint string, quiz *domain.QuizSet) error {
	payload, err := json.Marshal(quiz)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO quizzes (fingerprint, document_id, topic, difficulty, payload, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fingerprint) DO UPDATE SET
			payload = EXCLUDED.payload,
			generated_at = EXCLUDED.generated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		fingerprint,
		quiz.DocumentID,
		quiz.Topic,
		string(quiz.Difficulty),
		payload,
		quiz.GeneratedAt,
	)
	return err
}

// GetByFingerprint retrieves a stored quiz set
func (s *QuizStore) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.QuizSet, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM quizzes WHERE fingerprint = $1`, fingerprint,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var quiz domain.QuizSet
	if err := json.Unmarshal(payload, &quiz); err != nil {
		return nil, err
	}

	return &quiz, nil
}

// DeleteByDocument removes stored quiz sets for a document
func (s *QuizStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE document_id = $1`, documentID)
	return err
}
