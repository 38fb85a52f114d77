package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")

	// ErrRetrievalUnavailable indicates the retrieval indexes are empty or unreachable.
	// Callers degrade to an empty candidate set; this is never fatal for a turn.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationFailure indicates the external text generator failed
	ErrGenerationFailure = errors.New("generation failed")

	// ErrPersistenceFailure indicates a database write failed. Fatal for the
	// turn when it happens during booking commit.
	ErrPersistenceFailure = errors.New("persistence failed")

	// ErrDimensionMismatch indicates the vector collection exists with a
	// different dimensionality than the embedder produces
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// WrapError wraps an error with context message and stack
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetrievalUnavailable checks if error is a retrieval availability error
func IsRetrievalUnavailable(err error) bool {
	return errors.Is(err, ErrRetrievalUnavailable)
}

// IsGenerationFailure checks if error is a generation error
func IsGenerationFailure(err error) bool {
	return errors.Is(err, ErrGenerationFailure)
}

// IsPersistenceFailure checks if error is a persistence error
func IsPersistenceFailure(err error) bool {
	return errors.Is(err, ErrPersistenceFailure)
}
