package domain

import (
	"testing"
	"time"
)

func TestGradeAnswer(t *testing.T) {
	cases := []struct {
		correct   string
		submitted string
		want      bool
	}{
		{"Paris", "Paris", true},
		{"Paris", "paris", true},
		{"Paris", " Paris ", true},
		{"Paris", "\tPARIS\n", true},
		{"Paris", "London", false},
		{"Paris", "", false},
		{"true", "True", true},
	}
	for _, c := range cases {
		if got := GradeAnswer(c.correct, c.submitted); got != c.want {
			t.Errorf("GradeAnswer(%q, %q) = %v, want %v", c.correct, c.submitted, got, c.want)
		}
	}
}

func testSession() *Session {
	return &Session{
		ID: "session-1",
		Quiz: &QuizSet{
			Questions: []*QuizQuestion{
				{ID: 1, Prompt: "q1", CorrectAnswer: "A"},
				{ID: 2, Prompt: "q2", CorrectAnswer: "B"},
				{ID: 3, Prompt: "q3", CorrectAnswer: "C"},
				{ID: 4, Prompt: "q4", CorrectAnswer: "D"},
			},
		},
		Status:    SessionActive,
		Answers:   make(map[int]*SubmittedAnswer),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(DefaultSessionTTL),
	}
}

func TestComputeResults(t *testing.T) {
	s := testSession()
	s.Answers[1] = &SubmittedAnswer{QuestionID: 1, Answer: "A", Correct: true}
	s.Answers[2] = &SubmittedAnswer{QuestionID: 2, Answer: "wrong", Correct: false}
	s.Answers[3] = &SubmittedAnswer{QuestionID: 3, Answer: "c", Correct: true}

	results := ComputeResults(s, time.Now())

	if results.Total != 4 {
		t.Errorf("expected total 4, got %d", results.Total)
	}
	if results.Correct != 2 {
		t.Errorf("expected 2 correct, got %d", results.Correct)
	}
	if results.ScorePercent != 50 {
		t.Errorf("expected score 50, got %f", results.ScorePercent)
	}
	if len(results.Questions) != 4 {
		t.Fatalf("expected 4 question rows, got %d", len(results.Questions))
	}
	if results.Questions[3].Answered {
		t.Error("question 4 should be unanswered")
	}
}

func TestComputeResults_EmptyQuiz(t *testing.T) {
	s := testSession()
	s.Quiz.Questions = nil

	results := ComputeResults(s, time.Now())

	if results.ScorePercent != 0 {
		t.Errorf("expected score 0 for empty quiz, got %f", results.ScorePercent)
	}
}

func TestSessionExpired(t *testing.T) {
	s := testSession()
	if s.Expired(time.Now()) {
		t.Error("fresh session should not be expired")
	}
	if !s.Expired(time.Now().Add(25 * time.Hour)) {
		t.Error("session should be expired after TTL")
	}
}

func TestSessionAllAnswered(t *testing.T) {
	s := testSession()
	if s.AllAnswered() {
		t.Error("no answers recorded yet")
	}
	for i := 1; i <= 4; i++ {
		s.Answers[i] = &SubmittedAnswer{QuestionID: i}
	}
	if !s.AllAnswered() {
		t.Error("all questions answered")
	}
}
