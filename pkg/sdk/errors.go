package riskdex

import "github.com/kailas-cloud/riskdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrAddressNotFound        = domain.ErrAddressNotFound
	ErrOutOfCoverage          = domain.ErrOutOfCoverage
	ErrStaleIndex             = domain.ErrStaleIndex
	ErrIncompleteContext      = domain.ErrIncompleteContext
	ErrInvalidK               = domain.ErrInvalidK
	ErrInvalidHorizon         = domain.ErrInvalidHorizon
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)

// OutOfCoverageError carries the coordinate that fell outside every tract.
type OutOfCoverageError = domain.OutOfCoverageError

// StaleIndexError carries the embedding versions of the index and the query side.
type StaleIndexError = domain.StaleIndexError
