package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidEntity signals a malformed write request (missing entity type or sections).
	ErrInvalidEntity = errors.New("invalid entity")
	// ErrInvalidQuery signals a malformed query request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidPointID signals a point id that is not a valid UUID.
	ErrInvalidPointID = errors.New("invalid point id")
	// ErrLengthMismatch signals that ids, vectors and payloads are not parallel.
	ErrLengthMismatch = errors.New("ids, vectors and payloads length mismatch")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrStorage is the single error kind surfaced for every vector store failure.
	ErrStorage = errors.New("storage error")

	// ErrResourceExhausted signals that the encoder ran out of accelerator memory for the requested batch.
	ErrResourceExhausted = errors.New("encoder resource exhausted")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEncodeFailed signals that a text produced no vector.
	ErrEncodeFailed = errors.New("encode failed")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// DimMismatchError wraps ErrVectorDimMismatch with the expected and actual sizes.
type DimMismatchError struct {
	Expected int
	Got      int
}

func (e *DimMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrVectorDimMismatch.Error(), e.Expected, e.Got)
}

func (e *DimMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimMismatch creates a dimension mismatch error.
func NewDimMismatch(expected, got int) error {
	return &DimMismatchError{Expected: expected, Got: got}
}
