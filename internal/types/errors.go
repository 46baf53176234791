package types

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrMaxRetries     = errors.New("max retries exceeded")
	ErrEmptyResponse  = errors.New("empty response body")
	ErrInvalidURL     = errors.New("invalid URL")
	ErrEmptyTitle     = errors.New("article title is empty")
	ErrEmptyKeyword   = errors.New("keyword is empty")
	ErrNoFixtures     = errors.New("no fixtures for date")
	ErrUnknownBackend = errors.New("unknown backend")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AnalysisError wraps failures of the text-generation provider or of
// decoding its reply.
type AnalysisError struct {
	Provider string
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis error (%s): %v", e.Provider, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur in a storage backend.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrorKind classifies a failure for run accounting.
type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindNetwork     ErrorKind = "network"
	KindParse       ErrorKind = "parse"
	KindAnalysis    ErrorKind = "analysis"
	KindPersistence ErrorKind = "persistence"
	KindCanceled    ErrorKind = "canceled"
	KindOther       ErrorKind = "other"
)

// Kind reports which failure class err belongs to.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var fe *FetchError
	var pe *ParseError
	var ae *AnalysisError
	var se *StorageError
	switch {
	case errors.As(err, &fe), errors.Is(err, ErrMaxRetries), errors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	case errors.As(err, &pe), errors.Is(err, ErrEmptyTitle), errors.Is(err, ErrInvalidURL):
		return KindParse
	case errors.As(err, &ae):
		return KindAnalysis
	case errors.As(err, &se):
		return KindPersistence
	}
	return KindOther
}
