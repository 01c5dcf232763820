package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/quizgen-core/internal/chunker"
	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driving"
	"github.com/custodia-labs/quizgen-core/internal/runtime"
)

const quizLifecycleFeature = `
Feature: Quiz lifecycle
  A document is ingested, a quiz is generated from it, answers are
  graded, and a repeated request is served from cache.

  Scenario: ingest, generate, answer, repeat
    Given a running quiz backend
    When I ingest a three-paragraph document
    Then the document is split into at least 3 chunks
    And the document is not in degraded mode
    When I request a 5-question "medium" quiz about "photosynthesis"
    Then I receive exactly 5 questions each with an explanation
    When I start a session and answer question 1 correctly
    And I answer question 2 incorrectly
    Then the session results score 20 percent
    When I request the same quiz again
    Then the response is served from cache with identical questions
`

// quizWorld carries scenario state between steps
type quizWorld struct {
	ingestion driving.IngestionService
	quizzes   driving.QuizService
	sessions  driving.SessionService

	documentID   string
	ingestResult *domain.IngestResult
	document     *domain.Document
	firstResp    *domain.QuizResponse
	secondResp   *domain.QuizResponse
	session      *domain.Session
	lastAnswer   *domain.AnswerResult
	lastRequest  domain.QuizRequest
}

func (w *quizWorld) aRunningQuizBackend() error {
	services := runtime.NewServices(domain.NewRuntimeConfig("redis"))
	services.SetEmbeddingService(mocks.NewMockEmbeddingService())
	services.SetLLMService(mocks.NewMockLLMService(validQuizJSON(5)))
	services.SetReranker(mocks.NewMockReranker())
	services.Config().SetDenseIndexAvailable(true)

	documentStore := mocks.NewMockDocumentStore()
	chunkStore := mocks.NewMockChunkStore()
	vectorIndex := mocks.NewMockVectorIndex()
	sparseIndex := mocks.NewMockSparseIndex()

	w.ingestion = NewIngestionService(IngestionConfig{
		DocumentStore: documentStore,
		ChunkStore:    chunkStore,
		VectorIndex:   vectorIndex,
		SparseIndex:   sparseIndex,
		Pipeline:      chunker.DefaultPipeline(),
		Services:      services,
	})

	retrieval := NewRetrievalService(RetrievalConfig{
		DocumentStore: documentStore,
		ChunkStore:    chunkStore,
		VectorIndex:   vectorIndex,
		SparseIndex:   sparseIndex,
		Services:      services,
	})

	generator := NewGenerationOrchestrator(retrieval, services, DefaultGenerationOptions(), nil)
	w.quizzes = NewQuizService(QuizConfig{
		Generator: generator,
		Cache:     mocks.NewMockQuizCache(),
		QuizStore: mocks.NewMockQuizStore(),
	})

	w.sessions = NewSessionService(mocks.NewMockSessionStore(), domain.DefaultSessionTTL, nil)
	return nil
}

func (w *quizWorld) iIngestAThreeParagraphDocument() error {
	w.documentID = "doc-accept"
	result, err := w.ingestion.Ingest(context.Background(), domain.IngestRequest{
		DocumentID: w.documentID,
		Filename:   "photosynthesis.txt",
		Content:    threeParagraphDoc,
	})
	if err != nil {
		return err
	}
	w.ingestResult = result

	w.document, err = w.ingestion.GetDocument(context.Background(), w.documentID)
	return err
}

func (w *quizWorld) theDocumentIsSplitIntoAtLeastChunks(n int) error {
	if w.ingestResult.ChunkCount < n {
		return fmt.Errorf("expected at least %d chunks, got %d", n, w.ingestResult.ChunkCount)
	}
	return nil
}

func (w *quizWorld) theDocumentIsNotInDegradedMode() error {
	if w.document.Degraded() {
		return fmt.Errorf("document unexpectedly degraded, status %s", w.document.IndexStatus)
	}
	return nil
}

func (w *quizWorld) iRequestAQuiz(count int, difficulty, topic string) error {
	w.lastRequest = domain.QuizRequest{
		DocumentID:    w.documentID,
		Topic:         topic,
		QuestionCount: count,
		Difficulty:    domain.Difficulty(difficulty),
	}

	resp, err := w.quizzes.Generate(context.Background(), w.lastRequest)
	if err != nil {
		return err
	}
	w.firstResp = resp
	return nil
}

func (w *quizWorld) iReceiveExactlyQuestions(n int) error {
	if len(w.firstResp.Quiz.Questions) != n {
		return fmt.Errorf("expected %d questions, got %d", n, len(w.firstResp.Quiz.Questions))
	}
	for i, q := range w.firstResp.Quiz.Questions {
		if q.Explanation == "" {
			return fmt.Errorf("question %d has no explanation", i+1)
		}
	}
	return nil
}

func (w *quizWorld) iAnswerQuestionCorrectly(id int) error {
	session, err := w.sessions.Create(context.Background(), w.firstResp.Quiz)
	if err != nil {
		return err
	}
	w.session = session

	question := w.firstResp.Quiz.Question(id)
	if question == nil {
		return fmt.Errorf("question %d not found", id)
	}

	result, err := w.sessions.SubmitAnswer(context.Background(), session.ID, id, question.CorrectAnswer)
	if err != nil {
		return err
	}
	if !result.Correct {
		return fmt.Errorf("correct answer graded incorrect for question %d", id)
	}
	w.lastAnswer = result
	return nil
}

func (w *quizWorld) iAnswerQuestionIncorrectly(id int) error {
	question := w.firstResp.Quiz.Question(id)
	if question == nil {
		return fmt.Errorf("question %d not found", id)
	}

	result, err := w.sessions.SubmitAnswer(context.Background(), w.session.ID, id,
		"definitely not "+question.CorrectAnswer)
	if err != nil {
		return err
	}
	if result.Correct {
		return fmt.Errorf("wrong answer graded correct for question %d", id)
	}
	return nil
}

func (w *quizWorld) theSessionResultsScorePercent(score int) error {
	results, err := w.sessions.Results(context.Background(), w.session.ID)
	if err != nil {
		return err
	}
	if int(results.ScorePercent) != score {
		return fmt.Errorf("expected score %d, got %f", score, results.ScorePercent)
	}
	return nil
}

func (w *quizWorld) iRequestTheSameQuizAgain() error {
	resp, err := w.quizzes.Generate(context.Background(), w.lastRequest)
	if err != nil {
		return err
	}
	w.secondResp = resp
	return nil
}

func (w *quizWorld) theResponseIsServedFromCache() error {
	if !w.secondResp.Cached {
		return fmt.Errorf("expected cached=true on the repeated request")
	}
	if len(w.secondResp.Quiz.Questions) != len(w.firstResp.Quiz.Questions) {
		return fmt.Errorf("cached quiz has a different question count")
	}
	for i := range w.firstResp.Quiz.Questions {
		a, b := w.firstResp.Quiz.Questions[i], w.secondResp.Quiz.Questions[i]
		if a.ID != b.ID || a.CorrectAnswer != b.CorrectAnswer {
			return fmt.Errorf("question %d differs between cached and original response", i+1)
		}
	}
	return nil
}

func TestQuizLifecycleScenario(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			w := &quizWorld{}
			sc.Step(`^a running quiz backend$`, w.aRunningQuizBackend)
			sc.Step(`^I ingest a three-paragraph document$`, w.iIngestAThreeParagraphDocument)
			sc.Step(`^the document is split into at least (\d+) chunks$`, w.theDocumentIsSplitIntoAtLeastChunks)
			sc.Step(`^the document is not in degraded mode$`, w.theDocumentIsNotInDegradedMode)
			sc.Step(`^I request a (\d+)-question "([^"]*)" quiz about "([^"]*)"$`, w.iRequestAQuiz)
			sc.Step(`^I receive exactly (\d+) questions each with an explanation$`, w.iReceiveExactlyQuestions)
			sc.Step(`^I start a session and answer question (\d+) correctly$`, w.iAnswerQuestionCorrectly)
			sc.Step(`^I answer question (\d+) incorrectly$`, w.iAnswerQuestionIncorrectly)
			sc.Step(`^the session results score (\d+) percent$`, w.theSessionResultsScorePercent)
			sc.Step(`^I request the same quiz again$`, w.iRequestTheSameQuizAgain)
			sc.Step(`^the response is served from cache with identical questions$`, w.theResponseIsServedFromCache)
		},
		Options: &godog.Options{
			Format:   "pretty",
			TestingT: t,
			FeatureContents: []godog.Feature{
				{Name: "quiz_lifecycle.feature", Contents: []byte(quizLifecycleFeature)},
			},
		},
	}

	if suite.Run() != 0 {
		t.Fatal("quiz lifecycle scenario failed")
	}
}
