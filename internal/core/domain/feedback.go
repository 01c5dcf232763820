package domain

import (
	"fmt"
	"strings"
	"time"
)

// Feedback is a user rating of a generated question or whole quiz
type Feedback struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	QuestionID int       `json:"question_id,omitempty"` // 0 = whole quiz
	Rating     int       `json:"rating"`                // 1-5
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks feedback bounds
func (f *Feedback) Validate() error {
	if f.SessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrInvalidInput)
	}
	if f.Rating < 1 || f.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if len(strings.TrimSpace(f.Comment)) > 2000 {
		return fmt.Errorf("%w: comment too long", ErrInvalidInput)
	}
	return nil
}
