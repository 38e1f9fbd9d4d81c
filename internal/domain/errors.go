package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfCoverage signals a coordinate outside every loaded tract geometry.
	ErrOutOfCoverage = errors.New("out of coverage")
	// ErrStaleIndex signals an index built with a different embedding function than the query side.
	ErrStaleIndex = errors.New("stale index")
	// ErrIncompleteContext signals a risk context without any sub-score.
	ErrIncompleteContext = errors.New("incomplete context")
	// ErrAddressNotFound signals an address the geocoder cannot resolve.
	ErrAddressNotFound = errors.New("address not found")
	// ErrInvalidK signals a negative retrieval size.
	ErrInvalidK = errors.New("invalid k")
	// ErrInvalidHorizon signals an unknown flood projection horizon.
	ErrInvalidHorizon = errors.New("invalid horizon")
	// ErrDocumentExists signals an append of a tract that is already indexed.
	ErrDocumentExists = errors.New("document already indexed")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrChecksumMismatch signals a persisted index whose contents do not match its manifest.
	ErrChecksumMismatch = errors.New("index checksum mismatch")
	// ErrIndexNotFound signals that no persisted index exists yet.
	ErrIndexNotFound = errors.New("index not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationDisabled signals that no generator is configured.
	ErrGenerationDisabled = errors.New("generation disabled")
	// ErrGenerationFailed signals a generator failure.
	ErrGenerationFailed = errors.New("generation failed")
)

// OutOfCoverageError wraps ErrOutOfCoverage with the offending coordinate.
type OutOfCoverageError struct {
	Lat, Lon float64
}

func (e *OutOfCoverageError) Error() string {
	return fmt.Sprintf("%s: point (%.6f, %.6f) is outside all known tracts", ErrOutOfCoverage.Error(), e.Lat, e.Lon)
}

func (e *OutOfCoverageError) Unwrap() error { return ErrOutOfCoverage }

// NewOutOfCoverage creates an out-of-coverage error.
func NewOutOfCoverage(lat, lon float64) error {
	return &OutOfCoverageError{Lat: lat, Lon: lon}
}

// StaleIndexError wraps ErrStaleIndex with the embedding versions on both sides.
type StaleIndexError struct {
	IndexVersion string
	QueryVersion string
	Reason       string
}

func (e *StaleIndexError) Error() string {
	msg := fmt.Sprintf("%s: index built with %q, query embedder is %q",
		ErrStaleIndex.Error(), e.IndexVersion, e.QueryVersion)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *StaleIndexError) Unwrap() error { return ErrStaleIndex }

// NewStaleIndex creates a stale index error.
func NewStaleIndex(indexVersion, queryVersion, reason string) error {
	return &StaleIndexError{IndexVersion: indexVersion, QueryVersion: queryVersion, Reason: reason}
}
