package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCancelled indicates the caller cancelled the running workflow.
	// It is never retried and never reported as a failure.
	ErrCancelled = errors.New("operation cancelled")

	// ErrMissingCredential indicates a provider needs an API key that is not configured.
	// Detected before any network call is made.
	ErrMissingCredential = errors.New("missing credential")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Criteria generation, completion and flow generation are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRepositoryUnavailable indicates the content repository is not configured.
	ErrRepositoryUnavailable = errors.New("content repository unavailable")

	// ErrNoCriteria indicates a resource has no filter criteria to search with.
	ErrNoCriteria = errors.New("no filter criteria defined")

	// ErrRateLimited indicates the search endpoint rejected the request with 429.
	ErrRateLimited = errors.New("rate limited")
)

// Cancelled wraps a context error so that it is recognised as ErrCancelled.
func Cancelled(cause error) error {
	if cause == nil {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// ContextError converts a context error: cancellation becomes ErrCancelled,
// deadline expiry is returned as is so callers treat it as an ordinary failure.
func ContextError(err error) error {
	if errors.Is(err, context.Canceled) {
		return Cancelled(err)
	}
	return err
}

// IsCancelled reports whether err signals caller cancellation.
// Deadline expiry is not cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// ValidationKind distinguishes parse failures from schema failures.
type ValidationKind string

// Validation failure kinds.
const (
	// ValidationParse means no JSON document could be parsed from the input.
	ValidationParse ValidationKind = "parse"

	// ValidationSchema means JSON was parsed but does not match the template schema.
	ValidationSchema ValidationKind = "schema"
)

// FieldIssue is a single schema violation.
type FieldIssue struct {
	// Path is the JSON path of the offending field, e.g. "environments[0].materials".
	Path string `json:"path"`

	// Message describes the violation.
	Message string `json:"message"`
}

// ValidationError is returned when language-model output cannot be turned into a template.
type ValidationError struct {
	Kind    ValidationKind `json:"kind"`
	Message string         `json:"message"`
	Issues  []FieldIssue   `json:"issues,omitempty"`
}

// Error implements error.
func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return fmt.Sprintf("%s error: %s (%s)", e.Kind, e.Message, strings.Join(parts, "; "))
}

// Is matches ErrInvalidInput so callers can treat validation failures generically.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
