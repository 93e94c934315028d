package vecmatch

import "github.com/kailas-cloud/vecmatch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidEntity          = domain.ErrInvalidEntity
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrInvalidPointID         = domain.ErrInvalidPointID
	ErrLengthMismatch         = domain.ErrLengthMismatch
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrStorage                = domain.ErrStorage
	ErrResourceExhausted      = domain.ErrResourceExhausted
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrEncodeFailed           = domain.ErrEncodeFailed
)
