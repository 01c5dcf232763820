package domain

import (
	"fmt"
	"strings"
	"time"
)

// QuestionType identifies the shape of a quiz question
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionFillInBlank    QuestionType = "fill_in_blank"
)

// Valid reports whether the type tag is one of the known set
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionTrueFalse, QuestionShortAnswer, QuestionFillInBlank:
		return true
	}
	return false
}

// HasOptions reports whether questions of this type carry an option list
func (t QuestionType) HasOptions() bool {
	return t == QuestionMultipleChoice || t == QuestionTrueFalse
}

// Difficulty is the requested quiz difficulty tier
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether the difficulty is one of the known set
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// QuestionTypes returns the question types generated at this difficulty
func (d Difficulty) QuestionTypes() []QuestionType {
	switch d {
	case DifficultyEasy:
		return []QuestionType{QuestionMultipleChoice, QuestionTrueFalse}
	case DifficultyHard:
		return []QuestionType{QuestionMultipleChoice, QuestionShortAnswer}
	default:
		return []QuestionType{QuestionMultipleChoice, QuestionShortAnswer, QuestionFillInBlank}
	}
}

// Description returns the cognitive level the difficulty targets,
// used verbatim in generation prompts
func (d Difficulty) Description() string {
	switch d {
	case DifficultyEasy:
		return "basic understanding and recall of fundamental concepts"
	case DifficultyHard:
		return "advanced analysis, synthesis, and evaluation of complex concepts"
	default:
		return "application of concepts and some analysis"
	}
}

// MaxQuestionCount bounds a single generation request
const MaxQuestionCount = 25

// QuizQuestion is a single generated question.
// Immutable once generated and cached.
type QuizQuestion struct {
	ID            int          `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
}

// Validate checks the structural contract for a generated question
func (q *QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: empty question prompt", ErrMalformedOutput)
	}
	if !q.Type.Valid() {
		return fmt.Errorf("%w: unknown question type %q", ErrMalformedOutput, q.Type)
	}
	if q.Type.HasOptions() {
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: %s question needs at least 2 options", ErrMalformedOutput, q.Type)
		}
		seen := make(map[string]bool, len(q.Options))
		found := false
		for _, opt := range q.Options {
			key := strings.ToLower(strings.TrimSpace(opt))
			if seen[key] {
				return fmt.Errorf("%w: duplicate option %q", ErrMalformedOutput, opt)
			}
			seen[key] = true
			if NormaliseAnswer(opt) == NormaliseAnswer(q.CorrectAnswer) {
				found = true
			}
		}
		if q.Type == QuestionMultipleChoice && !found {
			return fmt.Errorf("%w: correct answer %q not among options", ErrMalformedOutput, q.CorrectAnswer)
		}
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return fmt.Errorf("%w: empty correct answer", ErrMalformedOutput)
	}
	return nil
}

// QuizSet is an ordered set of questions generated for one request.
// Cached by fingerprint; immutable once created.
type QuizSet struct {
	Title      string          `json:"title"`
	DocumentID string          `json:"document_id"`
	Topic      string          `json:"topic"`
	Difficulty Difficulty      `json:"difficulty"`
	Questions  []*QuizQuestion `json:"questions"`

	// SourceChunkIDs records which chunks grounded the generation
	SourceChunkIDs []string `json:"source_chunk_ids"`

	// Fallback is set when the deterministic template generator
	// produced some or all questions
	Fallback bool `json:"fallback,omitempty"`

	// Degraded mirrors the retrieval degraded flag
	Degraded bool `json:"degraded,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Question returns the question with the given ID, or nil
func (qs *QuizSet) Question(id int) *QuizQuestion {
	for _, q := range qs.Questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// QuizRequest is a quiz generation request
type QuizRequest struct {
	DocumentID    string     `json:"document_id"`
	Topic         string     `json:"topic"`
	QuestionCount int        `json:"question_count"`
	Difficulty    Difficulty `json:"difficulty"`
}

// Validate checks request bounds before any external call is made
func (r *QuizRequest) Validate() error {
	if r.DocumentID == "" {
		return fmt.Errorf("%w: document_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	if r.QuestionCount < 1 || r.QuestionCount > MaxQuestionCount {
		return fmt.Errorf("%w: question_count must be between 1 and %d", ErrInvalidInput, MaxQuestionCount)
	}
	if !r.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, r.Difficulty)
	}
	return nil
}

// NormalisedTopic returns the topic as folded into cache fingerprints:
// trimmed, lower-cased, inner whitespace collapsed
func (r *QuizRequest) NormalisedTopic() string {
	return strings.Join(strings.Fields(strings.ToLower(r.Topic)), " ")
}

// QuizResponse pairs a QuizSet with its cache provenance
type QuizResponse struct {
	Quiz   *QuizSet `json:"quiz"`
	Cached bool     `json:"cached"`
}
