package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FeedbackStore = (*FeedbackStore)(nil)

// FeedbackStore implements driven.FeedbackStore using PostgreSQL
type FeedbackStore struct {
	db *DB
}

// NewFeedbackStore creates a new FeedbackStore
func NewFeedbackStore(db *DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

// Save stores one feedback record
func (s *FeedbackStore) Save(ctx context.Context, fb *domain.Feedback) error {
	query := `
		INSERT INTO feedback (id, session_id, question_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		fb.ID,
		fb.SessionID,
		fb.QuestionID,
		fb.Rating,
		fb.Comment,
		fb.CreatedAt,
	)
	return err
}

// ListBySession retrieves feedback for a session, newest first
func (s *FeedbackStore) ListBySession(ctx context.Context, sessionID string) ([]*domain.Feedback, error) {
	query := `
		SELECT id, session_id, question_id, rating, comment, created_at
		FROM feedback
		WHERE session_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFeedback(rows)
}

func scanFeedback(rows *sql.Rows) ([]*domain.Feedback, error) {
	var items []*domain.Feedback
	for rows.Next() {
		var fb domain.Feedback
		err := rows.Scan(
			&fb.ID,
			&fb.SessionID,
			&fb.QuestionID,
			&fb.Rating,
			&fb.Comment,
			&fb.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &fb)
	}
	return items, rows.Err()
}
