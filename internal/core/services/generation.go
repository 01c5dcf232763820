package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driving"
	"github.com/custodia-labs/quizgen-core/internal/runtime"
)

const generationPrompt = `You are a quiz generator. Using ONLY the source material below, write exactly %d quiz questions about "%s".

Difficulty: %s. Target %s.
Allowed question types: %s.

Source material:
%s

Respond with a single JSON object, no markdown fences, in this shape:
{"questions": [{"type": "<one of the allowed types>", "question": "...", "options": ["..."], "correct_answer": "...", "explanation": "..."}]}

Rules:
- multiple_choice questions need exactly 4 distinct options including the correct answer.
- true_false questions use options ["true", "false"] and a correct_answer of "true" or "false".
- short_answer and fill_in_blank questions omit options and keep the correct_answer to a few words.
- Every question needs a one-sentence explanation grounded in the source material.`

const regenerationPrompt = `%s

Your previous attempt was rejected: %s.
Follow the JSON shape and the rules exactly this time. Return exactly %d questions.`

// GenerationOptions bounds the model call loop
type GenerationOptions struct {
	// CallTimeout caps a single model call
	CallTimeout time.Duration

	// MaxTransportRetries is how many times a failed call is retried
	// before the attempt is abandoned
	MaxTransportRetries int

	// RetryBackoff is the initial backoff, doubled per retry
	RetryBackoff time.Duration

	// MaxRegenerations is how many stricter-prompt regenerations a
	// validation failure earns
	MaxRegenerations int
}

// DefaultGenerationOptions returns sensible defaults
func DefaultGenerationOptions() GenerationOptions {
	return GenerationOptions{
		CallTimeout:         60 * time.Second,
		MaxTransportRetries: 2,
		RetryBackoff:        500 * time.Millisecond,
		MaxRegenerations:    1,
	}
}

// GenerationOrchestrator turns a quiz request into a QuizSet: retrieve
// grounding context, build the prompt, call the model, parse and
// validate, regenerate once on malformed output, and finally fall back
// to the deterministic template generator. The requested question count
// is always honoured when grounding context exists.
type GenerationOrchestrator struct {
	retrieval driving.RetrievalService
	services  *runtime.Services
	opts      GenerationOptions
	logger    *slog.Logger

	// sleep is swapped in tests to avoid real backoff waits
	sleep func(time.Duration)
}

// NewGenerationOrchestrator creates a new orchestrator
func NewGenerationOrchestrator(retrieval driving.RetrievalService, services *runtime.Services, opts GenerationOptions, logger *slog.Logger) *GenerationOrchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultGenerationOptions()
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = def.CallTimeout
	}
	if opts.MaxTransportRetries < 0 {
		opts.MaxTransportRetries = def.MaxTransportRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = def.RetryBackoff
	}
	if opts.MaxRegenerations < 0 {
		opts.MaxRegenerations = def.MaxRegenerations
	}

	return &GenerationOrchestrator{
		retrieval: retrieval,
		services:  services,
		opts:      opts,
		logger:    logger,
		sleep:     time.Sleep,
	}
}

// Generate produces a complete QuizSet for the request
func (g *GenerationOrchestrator) Generate(ctx context.Context, req domain.QuizRequest) (*domain.QuizSet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	retrieved, err := g.retrieval.Retrieve(ctx, req.DocumentID, req.Topic, domain.DefaultRetrievalOptions())
	if err != nil {
		return nil, err
	}
	if len(retrieved.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no chunks matched topic %q", domain.ErrNoChunks, req.Topic)
	}

	questions, fallback := g.generateQuestions(ctx, req, retrieved)
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: could not produce any questions", domain.ErrGenerationUnavailable)
	}

	return g.finalize(req, retrieved, questions, fallback), nil
}

// generateQuestions runs the model loop and resorts to the template
// generator when the model cannot deliver valid output.
func (g *GenerationOrchestrator) generateQuestions(ctx context.Context, req domain.QuizRequest, retrieved *domain.RetrievalResult) ([]*domain.QuizQuestion, bool) {
	llm := g.services.LLMService()
	if llm == nil {
		g.logger.Warn("no language model configured, using template generator",
			"document_id", req.DocumentID)
		return g.templateQuestions(req, retrieved), true
	}

	prompt := g.buildPrompt(req, retrieved)

	for attempt := 0; attempt <= g.opts.MaxRegenerations; attempt++ {
		raw, err := g.callModel(ctx, prompt)
		if err != nil {
			g.logger.Warn("model call failed, using template generator",
				"document_id", req.DocumentID, "error", err)
			return g.templateQuestions(req, retrieved), true
		}

		questions, parseErr := parseQuestions(raw, req)
		if parseErr == nil {
			return questions, false
		}

		g.logger.Warn("model output rejected",
			"document_id", req.DocumentID,
			"attempt", attempt+1,
			"reason", parseErr)
		prompt = fmt.Sprintf(regenerationPrompt, g.buildPrompt(req, retrieved), parseErr.Error(), req.QuestionCount)
	}

	g.logger.Warn("regeneration attempts exhausted, using template generator",
		"document_id", req.DocumentID)
	return g.templateQuestions(req, retrieved), true
}

// callModel makes one logical model call with transport retries and
// doubling backoff.
func (g *GenerationOrchestrator) callModel(ctx context.Context, prompt string) (string, error) {
	llm := g.services.LLMService()
	if llm == nil {
		return "", domain.ErrGenerationUnavailable
	}

	backoff := g.opts.RetryBackoff
	var lastErr error

	for try := 0; try <= g.opts.MaxTransportRetries; try++ {
		if try > 0 {
			g.sleep(backoff)
			backoff *= 2
		}

		callCtx, cancel := context.WithTimeout(ctx, g.opts.CallTimeout)
		raw, err := llm.Generate(callCtx, prompt)
		cancel()
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("model call failed after %d retries: %w", g.opts.MaxTransportRetries, lastErr)
}

// buildPrompt assembles the grounded generation prompt. Passages are
// presented in document order, not rank order, so excerpts from the
// same section stay adjacent.
func (g *GenerationOrchestrator) buildPrompt(req domain.QuizRequest, retrieved *domain.RetrievalResult) string {
	ordered := make([]*domain.RetrievalCandidate, len(retrieved.Candidates))
	copy(ordered, retrieved.Candidates)
	domain.SortByOrdinal(ordered)

	var passages strings.Builder
	for i, c := range ordered {
		fmt.Fprintf(&passages, "[Passage %d]", i+1)
		if c.Chunk.Heading != "" {
			fmt.Fprintf(&passages, " (%s)", c.Chunk.Heading)
		}
		passages.WriteString("\n")
		passages.WriteString(c.Chunk.Content)
		passages.WriteString("\n\n")
	}

	types := req.Difficulty.QuestionTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	return fmt.Sprintf(generationPrompt,
		req.QuestionCount,
		req.Topic,
		req.Difficulty,
		req.Difficulty.Description(),
		strings.Join(names, ", "),
		strings.TrimSpace(passages.String()))
}

// finalize assigns sequential question IDs and stamps provenance
func (g *GenerationOrchestrator) finalize(req domain.QuizRequest, retrieved *domain.RetrievalResult, questions []*domain.QuizQuestion, fallback bool) *domain.QuizSet {
	for i, q := range questions {
		q.ID = i + 1
	}

	return &domain.QuizSet{
		Title:          fmt.Sprintf("Quiz: %s", strings.TrimSpace(req.Topic)),
		DocumentID:     req.DocumentID,
		Topic:          req.Topic,
		Difficulty:     req.Difficulty,
		Questions:      questions,
		SourceChunkIDs: retrieved.ChunkIDs(),
		Fallback:       fallback,
		Degraded:       retrieved.Degraded,
		GeneratedAt:    time.Now().UTC(),
	}
}

// quizPayload is the JSON shape the model is asked to return
type quizPayload struct {
	Questions []*domain.QuizQuestion `json:"questions"`
}

// parseQuestions decodes and validates a raw model response
func parseQuestions(raw string, req domain.QuizRequest) ([]*domain.QuizQuestion, error) {
	cleaned := stripCodeFence(raw)

	var payload quizPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON", domain.ErrMalformedOutput)
	}

	if len(payload.Questions) != req.QuestionCount {
		return nil, fmt.Errorf("%w: expected %d questions, got %d",
			domain.ErrMalformedOutput, req.QuestionCount, len(payload.Questions))
	}

	allowed := make(map[domain.QuestionType]bool)
	for _, t := range req.Difficulty.QuestionTypes() {
		allowed[t] = true
	}

	for i, q := range payload.Questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if !allowed[q.Type] {
			return nil, fmt.Errorf("%w: question %d type %q not allowed at difficulty %q",
				domain.ErrMalformedOutput, i+1, q.Type, req.Difficulty)
		}
	}

	return payload.Questions, nil
}

// stripCodeFence removes a ```json ... ``` wrapper when the model adds one
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// templateQuestions manufactures questions directly from the retrieved
// chunks. Deterministic for a given candidate set, and always yields
// the requested count when at least one chunk has usable text.
func (g *GenerationOrchestrator) templateQuestions(req domain.QuizRequest, retrieved *domain.RetrievalResult) []*domain.QuizQuestion {
	sentences := make([]string, 0, len(retrieved.Candidates))
	for _, c := range retrieved.Candidates {
		if s := firstSentence(c.Chunk.Content); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return nil
	}

	questions := make([]*domain.QuizQuestion, 0, req.QuestionCount)
	for i := 0; i < req.QuestionCount; i++ {
		sentence := sentences[i%len(sentences)]
		explanation := fmt.Sprintf("The source material states: %s", sentence)

		if i%2 == 0 {
			questions = append(questions, &domain.QuizQuestion{
				Type:          domain.QuestionTrueFalse,
				Prompt:        fmt.Sprintf("True or false: %s", sentence),
				Options:       []string{"true", "false"},
				CorrectAnswer: "true",
				Explanation:   explanation,
			})
			continue
		}

		blanked, answer := blankLastWord(sentence)
		questions = append(questions, &domain.QuizQuestion{
			Type:          domain.QuestionShortAnswer,
			Prompt:        fmt.Sprintf("Complete the statement: %s", blanked),
			CorrectAnswer: answer,
			Explanation:   explanation,
		})
	}

	return questions
}

// firstSentence returns the first sentence of the content, trimmed
func firstSentence(content string) string {
	content = strings.TrimSpace(content)
	for _, ender := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if idx := strings.Index(content, ender); idx != -1 {
			return strings.TrimSpace(content[:idx+1])
		}
	}
	if len(content) > 200 {
		content = content[:200]
	}
	return content
}

// blankLastWord replaces the final word of a sentence with a blank and
// returns the removed word as the expected answer
func blankLastWord(sentence string) (string, string) {
	trimmed := strings.TrimRight(sentence, ".!?")
	words := strings.Fields(trimmed)
	if len(words) < 2 {
		return sentence + " ____", trimmed
	}
	answer := words[len(words)-1]
	blanked := strings.Join(words[:len(words)-1], " ") + " ____."
	return blanked, answer
}
