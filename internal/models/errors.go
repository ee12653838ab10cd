package models

import (
	"errors"
	"fmt"
)

var (
	// ErrIngestion is matched by every *IngestionError.
	ErrIngestion = errors.New("ingestion failed")
	// ErrEmptyIndex is returned when searching an index with zero entries.
	ErrEmptyIndex = errors.New("vector index is empty")
	// ErrInvalidK is returned when k is below 1 or exceeds the index size.
	ErrInvalidK = errors.New("invalid k")
	// ErrDimensionMismatch is returned when a vector's length differs from the index dimensions.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	ErrAuthentication = errors.New("llm authentication failed")
	ErrRequest        = errors.New("llm request failed")
	ErrRateLimit      = errors.New("llm rate limit exceeded")

	// ErrMissingCredential is a fatal configuration error raised before any query is accepted.
	ErrMissingCredential = errors.New("llm api key is not set")
	ErrEmptyQuestion     = errors.New("question cannot be empty")
	// ErrBusy is returned when a question arrives while another is being answered.
	ErrBusy = errors.New("a question is already being answered")
)

// IngestionError reports a missing or unusable corpus.
type IngestionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *IngestionError) Error() string {
	msg := fmt.Sprintf("ingestion failed for %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IngestionError) Unwrap() error { return e.Err }

// Is reports true for ErrIngestion.
func (e *IngestionError) Is(target error) bool { return target == ErrIngestion }

// LLMError is a failed completion call. Kind is one of ErrAuthentication, ErrRequest, ErrRateLimit.
type LLMError struct {
	Kind       error
	StatusCode int
	Message    string
	Err        error
}

func (e *LLMError) Error() string {
	var msg string
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%v (status %d)", e.Kind, e.StatusCode)
	} else {
		msg = e.Kind.Error()
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LLMError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsRetryable reports whether a failed answer call is transient and worth asking again.
// A successful "I don't know." answer is never an error and so never reaches here.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrRequest) || errors.Is(err, ErrBusy)
}
