// Package artifact defines the persisted form of a trained model and the
// curves it was trained on.
package artifact

import (
	"context"
	"fmt"
	"math"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
	"github.com/kailas-cloud/eigencurve/internal/domain/subspace"
)

// ProcessedData is the JSON artifact: sampled curves, their embeddings and
// the basis stored as a list of columns.
type ProcessedData struct {
	Curves       [][]curve.Point2 `json:"curves"`
	Coefficients [][]float64      `json:"coefficients"`
	Basis        [][]float64      `json:"basis"`
}

// Build samples curves, encodes them with codec and assembles the artifact.
func Build(ctx context.Context, codec *subspace.Codec, curves []curve.Curve) (*ProcessedData, error) {
	b := codec.Basis()

	sampled := make([][]curve.Point2, len(curves))
	for i, c := range curves {
		pts, err := curve.Sample(c, b.NumPoints())
		if err != nil {
			return nil, fmt.Errorf("sample curve %d: %w", i, err)
		}
		sampled[i] = pts
	}

	embs, err := codec.EncodeBatch(ctx, curves)
	if err != nil {
		return nil, fmt.Errorf("encode corpus: %w", err)
	}
	coefs := make([][]float64, len(embs))
	for i, e := range embs {
		coefs[i] = []float64(e)
	}

	return &ProcessedData{
		Curves:       sampled,
		Coefficients: coefs,
		Basis:        b.Columns(),
	}, nil
}

// NumPoints returns N as implied by the basis column length.
func (d *ProcessedData) NumPoints() int {
	if len(d.Basis) == 0 {
		return 0
	}
	return len(d.Basis[0]) / 2
}

// Rank returns the number of basis columns.
func (d *ProcessedData) Rank() int { return len(d.Basis) }

// Validate checks structural consistency. Every failure wraps ErrMalformedArtifact.
func (d *ProcessedData) Validate() error {
	if len(d.Basis) == 0 {
		return fmt.Errorf("%w: basis has no columns", domain.ErrMalformedArtifact)
	}
	rows := len(d.Basis[0])
	if rows < 2*curve.MinSamplePoints || rows%2 != 0 {
		return fmt.Errorf("%w: basis column length %d is not an even number >= %d",
			domain.ErrMalformedArtifact, rows, 2*curve.MinSamplePoints)
	}
	for j, col := range d.Basis {
		if len(col) != rows {
			return fmt.Errorf("%w: basis column %d has length %d, want %d",
				domain.ErrMalformedArtifact, j, len(col), rows)
		}
		if !finite(col) {
			return fmt.Errorf("%w: basis column %d has non-finite values", domain.ErrMalformedArtifact, j)
		}
	}

	if len(d.Coefficients) != len(d.Curves) {
		return fmt.Errorf("%w: %d coefficient vectors for %d curves",
			domain.ErrMalformedArtifact, len(d.Coefficients), len(d.Curves))
	}

	k := len(d.Basis)
	for i, c := range d.Coefficients {
		if len(c) != k {
			return fmt.Errorf("%w: coefficients[%d] has length %d, basis has %d columns",
				domain.ErrMalformedArtifact, i, len(c), k)
		}
		if !finite(c) {
			return fmt.Errorf("%w: coefficients[%d] has non-finite values", domain.ErrMalformedArtifact, i)
		}
	}

	n := rows / 2
	for i, pts := range d.Curves {
		if len(pts) != n {
			return fmt.Errorf("%w: curves[%d] has %d points, want %d",
				domain.ErrMalformedArtifact, i, len(pts), n)
		}
		for _, p := range pts {
			if p.IsNaN() || p.IsInf() {
				return fmt.Errorf("%w: curves[%d] has non-finite points", domain.ErrMalformedArtifact, i)
			}
		}
	}
	return nil
}

// ToBasis validates the artifact and rebuilds its basis.
func (d *ProcessedData) ToBasis() (*subspace.Basis, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	b, err := subspace.NewBasisFromColumns(d.Basis)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedArtifact, err)
	}
	return b, nil
}

// Embeddings returns the stored coefficient vectors.
func (d *ProcessedData) Embeddings() []subspace.Embedding {
	out := make([]subspace.Embedding, len(d.Coefficients))
	for i, c := range d.Coefficients {
		out[i] = subspace.Embedding(c)
	}
	return out
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
