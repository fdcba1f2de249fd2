package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter signals an out-of-range argument (sample count, rank).
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptyCorpus signals training or evaluation over zero curves.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrDimensionMismatch signals vectors whose lengths disagree with the basis.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrDegenerateCorpus signals a corpus the decomposition cannot produce a basis for.
	ErrDegenerateCorpus = errors.New("degenerate corpus")
	// ErrMalformedArtifact signals persisted data that fails consistency checks.
	ErrMalformedArtifact = errors.New("malformed artifact")
	// ErrIO signals a file or font source that cannot be read or written.
	ErrIO = errors.New("io failure")

	// ErrNotFound signals a missing stored artifact.
	ErrNotFound = errors.New("not found")
	// ErrModelNotLoaded signals a codec request before any model was loaded.
	ErrModelNotLoaded = errors.New("model not loaded")
)

// DimensionError wraps ErrDimensionMismatch with the expected and actual lengths.
type DimensionError struct {
	What string
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: %s has length %d, want %d", ErrDimensionMismatch.Error(), e.What, e.Got, e.Want)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(what string, want, got int) error {
	return &DimensionError{What: what, Want: want, Got: got}
}
