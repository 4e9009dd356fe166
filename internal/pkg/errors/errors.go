package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalid               = errors.New("invalid")
	ErrInvalidProvider       = errors.New("invalid provider")
	ErrDimensionMismatch     = errors.New("dimension mismatch")
	ErrMissingEmbedding      = errors.New("missing required embedding")
	ErrProviderNotConfigured = errors.New("embedding provider not configured")
	ErrEmbeddingFailed       = errors.New("embedding generation failed")
	ErrInternal              = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// MissingField builds a validation error naming the absent field.
func MissingField(name string) error {
	return fmt.Errorf("%w: missing required field: %s", ErrInvalid, name)
}

// BadDimensions builds a dimension error naming expected and actual lengths.
func BadDimensions(field string, want, got int) error {
	return fmt.Errorf("%w: %s must have %d dimensions, got %d", ErrDimensionMismatch, field, want, got)
}
