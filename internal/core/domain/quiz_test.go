package domain

import (
	"errors"
	"testing"
)

func TestQuestionTypeValid(t *testing.T) {
	valid := []QuestionType{QuestionMultipleChoice, QuestionTrueFalse, QuestionShortAnswer, QuestionFillInBlank}
	for _, qt := range valid {
		if !qt.Valid() {
			t.Errorf("expected %s to be valid", qt)
		}
	}
	if QuestionType("essay").Valid() {
		t.Error("expected 'essay' to be invalid")
	}
}

func TestQuestionTypeHasOptions(t *testing.T) {
	if !QuestionMultipleChoice.HasOptions() {
		t.Error("multiple_choice should carry options")
	}
	if !QuestionTrueFalse.HasOptions() {
		t.Error("true_false should carry options")
	}
	if QuestionShortAnswer.HasOptions() {
		t.Error("short_answer should not carry options")
	}
	if QuestionFillInBlank.HasOptions() {
		t.Error("fill_in_blank should not carry options")
	}
}

func TestDifficultyQuestionTypes(t *testing.T) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		types := d.QuestionTypes()
		if len(types) == 0 {
			t.Errorf("expected question types for %s", d)
		}
		for _, qt := range types {
			if !qt.Valid() {
				t.Errorf("difficulty %s yields invalid type %s", d, qt)
			}
		}
	}
}

func TestQuizQuestionValidate(t *testing.T) {
	valid := &QuizQuestion{
		Type:          QuestionMultipleChoice,
		Prompt:        "What is the capital of France?",
		Options:       []string{"Paris", "London", "Berlin", "Madrid"},
		CorrectAnswer: "Paris",
		Explanation:   "Paris is the capital of France.",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQuizQuestionValidate_EmptyPrompt(t *testing.T) {
	q := &QuizQuestion{
		Type:          QuestionShortAnswer,
		Prompt:        "   ",
		CorrectAnswer: "photosynthesis",
	}
	if err := q.Validate(); !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestQuizQuestionValidate_AnswerNotInOptions(t *testing.T) {
	q := &QuizQuestion{
		Type:          QuestionMultipleChoice,
		Prompt:        "Pick one",
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: "E",
	}
	if err := q.Validate(); !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestQuizQuestionValidate_DuplicateOptions(t *testing.T) {
	q := &QuizQuestion{
		Type:          QuestionMultipleChoice,
		Prompt:        "Pick one",
		Options:       []string{"A", "B", "b ", "D"},
		CorrectAnswer: "A",
	}
	if err := q.Validate(); !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestQuizRequestValidate(t *testing.T) {
	req := &QuizRequest{
		DocumentID:    "doc-1",
		Topic:         "photosynthesis",
		QuestionCount: 5,
		Difficulty:    DifficultyMedium,
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []*QuizRequest{
		{Topic: "x", QuestionCount: 5, Difficulty: DifficultyEasy},
		{DocumentID: "doc-1", Topic: "  ", QuestionCount: 5, Difficulty: DifficultyEasy},
		{DocumentID: "doc-1", Topic: "x", QuestionCount: 0, Difficulty: DifficultyEasy},
		{DocumentID: "doc-1", Topic: "x", QuestionCount: MaxQuestionCount + 1, Difficulty: DifficultyEasy},
		{DocumentID: "doc-1", Topic: "x", QuestionCount: 5, Difficulty: "impossible"},
	}
	for i, r := range bad {
		if err := r.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestQuizRequestNormalisedTopic(t *testing.T) {
	req := &QuizRequest{Topic: "  The   Water\tCycle  "}
	if got := req.NormalisedTopic(); got != "the water cycle" {
		t.Errorf("expected 'the water cycle', got %q", got)
	}
}

func TestQuizSetQuestion(t *testing.T) {
	qs := &QuizSet{
		Questions: []*QuizQuestion{
			{ID: 1, Prompt: "first"},
			{ID: 2, Prompt: "second"},
		},
	}
	if q := qs.Question(2); q == nil || q.Prompt != "second" {
		t.Errorf("expected question 2, got %+v", q)
	}
	if q := qs.Question(99); q != nil {
		t.Errorf("expected nil for unknown ID, got %+v", q)
	}
}
