package eigencurve

import "github.com/kailas-cloud/eigencurve/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidParameter  = domain.ErrInvalidParameter
	ErrEmptyCorpus       = domain.ErrEmptyCorpus
	ErrDegenerateCorpus  = domain.ErrDegenerateCorpus
	ErrDimensionMismatch = domain.ErrDimensionMismatch
	ErrMalformedArtifact = domain.ErrMalformedArtifact
	ErrIO                = domain.ErrIO
	ErrNotFound          = domain.ErrNotFound
	ErrModelNotLoaded    = domain.ErrModelNotLoaded
)

// DimensionError carries the expected and actual lengths of a dimension mismatch.
type DimensionError = domain.DimensionError
