package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks database and cache connections)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A backing store is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Document endpoints

// ingestRequest represents a document ingestion request
// @Description Document ingestion request
type ingestRequest struct {
	DocumentID string `json:"document_id,omitempty" example:"doc-1"`
	Filename   string `json:"filename" example:"photosynthesis.pdf"`
	Content    string `json:"content"`
	Async      bool   `json:"async,omitempty"`
}

// enqueuedResponse reports an ingestion accepted onto the task queue
// @Description Enqueued ingestion response
type enqueuedResponse struct {
	TaskID     string `json:"task_id"`
	DocumentID string `json:"document_id"`
}

// handleIngestDocument godoc
// @Summary      Ingest a document
// @Description  Chunk, embed and index extracted document text. With async set, the ingestion is enqueued on the task queue and processed by a background worker. Re-ingesting an existing document ID fully replaces its chunks and index entries.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        request  body      ingestRequest  true  "Document text"
// @Success      201      {object}  domain.IngestResult
// @Success      202      {object}  enqueuedResponse  "Async ingestion accepted"
// @Failure      400      {object}  ErrorResponse  "Invalid request or empty content"
// @Failure      500      {object}  ErrorResponse  "Ingestion failed"
// @Router       /documents [post]
func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ingest := domain.IngestRequest{
		DocumentID: req.DocumentID,
		Filename:   req.Filename,
		Content:    req.Content,
	}

	if req.Async {
		taskID, err := s.ingestionService.EnqueueIngest(r.Context(), ingest)
		if err != nil {
			writeServiceError(w, err, "failed to enqueue ingestion")
			return
		}
		writeJSON(w, http.StatusAccepted, enqueuedResponse{
			TaskID:     taskID,
			DocumentID: req.DocumentID,
		})
		return
	}

	result, err := s.ingestionService.Ingest(r.Context(), ingest)
	if err != nil {
		writeServiceError(w, err, "ingestion failed")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Get an ingested document's record by ID
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	doc, err := s.ingestionService.GetDocument(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument godoc
// @Summary      Delete document
// @Description  Remove a document, its chunks and index entries
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      500  {object}  ErrorResponse  "Deletion failed"
// @Router       /documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	if err := s.ingestionService.DeleteDocument(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleInvalidateQuizzes godoc
// @Summary      Invalidate cached quizzes
// @Description  Clear cached quizzes for a document so subsequent generations re-run retrieval against fresh chunks
// @Tags         Quizzes
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      500  {object}  ErrorResponse  "Invalidation failed"
// @Router       /documents/{id}/quizzes [delete]
func (s *Server) handleInvalidateQuizzes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	if err := s.quizService.InvalidateDocument(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to invalidate quizzes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// Retrieval endpoint

// retrieveRequest represents a grounding retrieval request
// @Description Retrieval request scoped to one document
type retrieveRequest struct {
	Query   string                   `json:"query" example:"how does the light reaction work"`
	Options *domain.RetrievalOptions `json:"options,omitempty"`
}

// handleRetrieve godoc
// @Summary      Retrieve grounding context
// @Description  Run hybrid retrieval plus reranking scoped to one document. Useful for inspecting which chunks would ground a generation.
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Param        id       path      string           true  "Document ID"
// @Param        request  body      retrieveRequest  true  "Query"
// @Success      200      {object}  domain.RetrievalResult
// @Failure      400      {object}  ErrorResponse  "Invalid request or missing query"
// @Failure      404      {object}  ErrorResponse  "Document not found"
// @Failure      409      {object}  ErrorResponse  "Document has no indexed chunks"
// @Failure      500      {object}  ErrorResponse  "Retrieval failed"
// @Router       /documents/{id}/retrieve [post]
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	opts := domain.DefaultRetrievalOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	result, err := s.retrievalService.Retrieve(r.Context(), id, req.Query, opts)
	if err != nil {
		writeServiceError(w, err, "retrieval failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Quiz endpoints

// handleGenerateQuiz godoc
// @Summary      Generate a quiz
// @Description  Generate a quiz grounded in an ingested document. Served from cache when a fresh fingerprint match exists; concurrent requests for the same fingerprint share one computation.
// @Tags         Quizzes
// @Accept       json
// @Produce      json
// @Param        request  body      domain.QuizRequest  true  "Quiz parameters"
// @Success      200      {object}  domain.QuizResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      404      {object}  ErrorResponse  "Document not found"
// @Failure      409      {object}  ErrorResponse  "Document has no indexed chunks"
// @Failure      503      {object}  ErrorResponse  "Generation unavailable"
// @Router       /quizzes [post]
func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req domain.QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.quizService.Generate(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "quiz generation failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Session endpoints

// createSessionResponse pairs a new session with quiz cache provenance
// @Description Created session response
type createSessionResponse struct {
	Session *domain.Session `json:"session"`
	Cached  bool            `json:"cached"`
}

// handleCreateSession godoc
// @Summary      Start a quiz session
// @Description  Generate a quiz for the request (cache-aware) and start an interactive session around it
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        request  body      domain.QuizRequest  true  "Quiz parameters"
// @Success      201      {object}  createSessionResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      404      {object}  ErrorResponse  "Document not found"
// @Failure      409      {object}  ErrorResponse  "Document has no indexed chunks"
// @Failure      503      {object}  ErrorResponse  "Generation unavailable"
// @Router       /sessions [post]
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req domain.QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.quizService.Generate(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "quiz generation failed")
		return
	}

	session, err := s.sessionService.Create(r.Context(), resp.Quiz)
	if err != nil {
		writeServiceError(w, err, "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{
		Session: session,
		Cached:  resp.Cached,
	})
}

// handleGetSession godoc
// @Summary      Get session
// @Description  Get a session by ID. Expired sessions read as not found.
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.Session
// @Failure      404  {object}  ErrorResponse  "Session not found or expired"
// @Router       /sessions/{id} [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	session, err := s.sessionService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// submitAnswerRequest represents one answer submission
// @Description Answer submission
type submitAnswerRequest struct {
	QuestionID int    `json:"question_id" example:"1"`
	Answer     string `json:"answer" example:"chlorophyll"`
}

// handleSubmitAnswer godoc
// @Summary      Submit an answer
// @Description  Grade one answer and record it. Answering the last open question completes the session.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Session ID"
// @Param        request  body      submitAnswerRequest  true  "Answer"
// @Success      200      {object}  domain.AnswerResult
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      404      {object}  ErrorResponse  "Session or question not found"
// @Failure      409      {object}  ErrorResponse  "Session already completed"
// @Router       /sessions/{id}/answers [post]
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.sessionService.SubmitAnswer(r.Context(), id, req.QuestionID, req.Answer)
	if err != nil {
		writeServiceError(w, err, "failed to submit answer")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCompleteSession godoc
// @Summary      Complete session
// @Description  Explicitly finish a session. Completing an already completed session is a no-op.
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Session not found or expired"
// @Router       /sessions/{id}/complete [post]
func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	if err := s.sessionService.Complete(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to complete session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// handleSessionResults godoc
// @Summary      Get session results
// @Description  Compute the aggregate outcome for a session. Unanswered questions count as incorrect.
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.SessionResults
// @Failure      404  {object}  ErrorResponse  "Session not found or expired"
// @Router       /sessions/{id}/results [get]
func (s *Server) handleSessionResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	results, err := s.sessionService.Results(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to compute results")
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// Feedback endpoints

// handleSubmitFeedback godoc
// @Summary      Submit feedback
// @Description  Record a rating of a generated question or whole quiz
// @Tags         Feedback
// @Accept       json
// @Produce      json
// @Param        request  body      domain.Feedback  true  "Feedback"
// @Success      201      {object}  domain.Feedback
// @Failure      400      {object}  ErrorResponse  "Invalid rating or missing session"
// @Failure      404      {object}  ErrorResponse  "Session not found"
// @Router       /feedback [post]
func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var fb domain.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.feedbackService.Submit(r.Context(), &fb); err != nil {
		writeServiceError(w, err, "failed to submit feedback")
		return
	}

	writeJSON(w, http.StatusCreated, &fb)
}

// handleListFeedback godoc
// @Summary      List session feedback
// @Description  List feedback recorded for a session, newest first
// @Tags         Feedback
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {array}   domain.Feedback
// @Failure      500  {object}  ErrorResponse  "Listing failed"
// @Router       /sessions/{id}/feedback [get]
func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	feedback, err := s.feedbackService.ListBySession(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to list feedback")
		return
	}
	if feedback == nil {
		feedback = []*domain.Feedback{}
	}

	writeJSON(w, http.StatusOK, feedback)
}

// Capability endpoints

// capabilityListResponse lists the dispatchable capability tags
// @Description Dispatchable capability tags
type capabilityListResponse struct {
	Capabilities []domain.CapabilityTag `json:"capabilities"`
}

// handleListCapabilities godoc
// @Summary      List capabilities
// @Description  List the tags accepted by the capability dispatch endpoint
// @Tags         Capabilities
// @Produce      json
// @Success      200  {object}  capabilityListResponse
// @Router       /capabilities [get]
func (s *Server) handleListCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, capabilityListResponse{Capabilities: s.capabilities.Tags()})
}

// handleDispatchCapability godoc
// @Summary      Dispatch a capability
// @Description  Run one tagged lookup: topic_search (hybrid retrieval over a document), keyword_search (lexical matching over a document), or external_content (supplementary study material from the configured external API)
// @Tags         Capabilities
// @Accept       json
// @Produce      json
// @Param        request  body      domain.CapabilityRequest  true  "Tagged lookup"
// @Success      200      {object}  domain.CapabilityResult
// @Failure      400      {object}  ErrorResponse  "Unknown tag or missing fields"
// @Failure      503      {object}  ErrorResponse  "Backing service unavailable"
// @Router       /capabilities [post]
func (s *Server) handleDispatchCapability(w http.ResponseWriter, r *http.Request) {
	var req domain.CapabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.capabilities.Dispatch(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "capability dispatch failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain error sentinels onto HTTP status codes.
// Services wrap sentinels with context, so matching goes through
// errors.Is rather than equality.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrContentEmpty):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSessionCompleted), errors.Is(err, domain.ErrNoChunks):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrGenerationUnavailable), errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
