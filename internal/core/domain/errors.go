package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrContentEmpty indicates ingestion received too little text to chunk
	ErrContentEmpty = errors.New("content empty")

	// ErrNoChunks indicates the document has no indexed chunks to ground on
	ErrNoChunks = errors.New("no chunks indexed for document")

	// ErrMalformedOutput indicates the model response failed validation
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrGenerationUnavailable indicates even the fallback could not
	// honour the requested question count
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrSessionNotFound indicates the session does not exist or expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionCompleted indicates the session no longer accepts answers
	ErrSessionCompleted = errors.New("session already completed")

	// ErrQuestionNotFound indicates the question ID is not in the session's quiz
	ErrQuestionNotFound = errors.New("question not found in session")

	// ErrServiceUnavailable indicates an external AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidProvider indicates an unknown AI provider name
	ErrInvalidProvider = errors.New("invalid AI provider")
)
