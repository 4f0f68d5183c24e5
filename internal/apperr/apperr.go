// Package apperr holds the sentinel error kinds shared across services and
// handlers. Services wrap these with fmt.Errorf("...: %w", ...) and callers
// match with errors.Is; nothing in this codebase retries on any of them.
package apperr

import "errors"

var (
	// ErrServiceUnavailable means the embedding/generation provider was
	// unreachable, timed out, or returned a transport-level failure.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrInvalidResponse means the provider answered with data we could not
	// decode or that violates its declared shape.
	ErrInvalidResponse = errors.New("invalid provider response")
	// ErrNoContext means retrieval found zero compatible chunks for the owner.
	ErrNoContext = errors.New("no study material available")
	// ErrInsufficientContent means quiz generation found no eligible chunk text.
	ErrInsufficientContent = errors.New("insufficient content for quiz")
	// ErrAlreadyCompleted means a completed quiz was submitted again.
	ErrAlreadyCompleted = errors.New("quiz already completed")
	// ErrInvalidAnswerSet means the submitted answers do not match the quiz.
	ErrInvalidAnswerSet = errors.New("invalid answer set")
	// ErrNotFound is the generic missing-resource sentinel.
	ErrNotFound = errors.New("not found")
)
