package domain

import (
	"strings"
	"time"
)

// SessionStatus is the lifecycle state of a quiz session
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed" // Terminal
)

// DefaultSessionTTL is how long a session stays answerable
const DefaultSessionTTL = 24 * time.Hour

// SubmittedAnswer records one graded answer within a session
type SubmittedAnswer struct {
	QuestionID int       `json:"question_id"`
	Answer     string    `json:"answer"`
	Correct    bool      `json:"correct"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Session tracks a user working through one QuizSet.
// Mutated incrementally as answers arrive; frozen once completed.
type Session struct {
	ID        string                   `json:"id"`
	Quiz      *QuizSet                 `json:"quiz"`
	Status    SessionStatus            `json:"status"`
	Answers   map[int]*SubmittedAnswer `json:"answers"`
	CreatedAt time.Time                `json:"created_at"`
	ExpiresAt time.Time                `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry time
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AllAnswered reports whether every question has a recorded answer
func (s *Session) AllAnswered() bool {
	return len(s.Answers) >= len(s.Quiz.Questions)
}

// AnswerResult is the immediate feedback for one submission
type AnswerResult struct {
	QuestionID    int    `json:"question_id"`
	Correct       bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// QuestionResult is one row of a session's final breakdown
type QuestionResult struct {
	QuestionID    int    `json:"question_id"`
	Prompt        string `json:"question"`
	Submitted     string `json:"submitted_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Correct       bool   `json:"is_correct"`
	Answered      bool   `json:"answered"`
}

// SessionResults is the aggregate outcome of a completed session
type SessionResults struct {
	SessionID    string            `json:"session_id"`
	Total        int               `json:"total_questions"`
	Correct      int               `json:"correct_answers"`
	ScorePercent float64           `json:"score_percentage"`
	Questions    []*QuestionResult `json:"questions"`
	CompletedAt  time.Time         `json:"completed_at"`
}

// NormaliseAnswer prepares an answer string for comparison:
// whitespace-trimmed and case-folded
func NormaliseAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// GradeAnswer compares a submitted answer against the stored correct
// answer. Exact match after normalisation for every question type;
// there is no fuzzy or partial-credit grading.
func GradeAnswer(correct, submitted string) bool {
	return NormaliseAnswer(correct) == NormaliseAnswer(submitted)
}

// ComputeResults derives per-question correctness and the aggregate
// score for a session. Pure function of the quiz and recorded answers.
func ComputeResults(s *Session, now time.Time) *SessionResults {
	results := &SessionResults{
		SessionID:   s.ID,
		Total:       len(s.Quiz.Questions),
		Questions:   make([]*QuestionResult, 0, len(s.Quiz.Questions)),
		CompletedAt: now,
	}

	for _, q := range s.Quiz.Questions {
		row := &QuestionResult{
			QuestionID:    q.ID,
			Prompt:        q.Prompt,
			CorrectAnswer: q.CorrectAnswer,
		}
		if ans, ok := s.Answers[q.ID]; ok {
			row.Answered = true
			row.Submitted = ans.Answer
			row.Correct = ans.Correct
			if ans.Correct {
				results.Correct++
			}
		}
		results.Questions = append(results.Questions, row)
	}

	if results.Total > 0 {
		results.ScorePercent = 100 * float64(results.Correct) / float64(results.Total)
	}
	return results
}
