// Package subspace trains an orthonormal basis over sampled curves and
// encodes/decodes curves against it.
//
// A Basis is a 2N × K matrix whose columns are the left singular vectors of the
// stacked training samples, ordered by descending singular value. It is
// immutable once built and safe to share between goroutines.
package subspace

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
)

// Basis is a trained orthonormal basis for curves sampled at NumPoints points.
type Basis struct {
	u         *mat.Dense
	numPoints int
	singular  []float64
}

// NewBasis wraps a 2N × K matrix. The matrix is copied.
// singular may be nil when the singular values are unknown (e.g. a basis restored from disk).
func NewBasis(u mat.Matrix, numPoints int, singular []float64) (*Basis, error) {
	if numPoints < curve.MinSamplePoints {
		return nil, fmt.Errorf("%w: sample count %d", domain.ErrInvalidParameter, numPoints)
	}
	r, c := u.Dims()
	if r != 2*numPoints {
		return nil, domain.NewDimensionMismatch("basis column", 2*numPoints, r)
	}
	if c == 0 {
		return nil, fmt.Errorf("%w: basis has no columns", domain.ErrInvalidParameter)
	}
	if singular != nil && len(singular) != c {
		return nil, domain.NewDimensionMismatch("singular values", c, len(singular))
	}

	var sv []float64
	if singular != nil {
		sv = append([]float64(nil), singular...)
	}
	return &Basis{u: mat.DenseCopyOf(u), numPoints: numPoints, singular: sv}, nil
}

// NewBasisFromColumns builds a basis from a list of columns, each of length 2N.
func NewBasisFromColumns(cols [][]float64) (*Basis, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: basis has no columns", domain.ErrInvalidParameter)
	}
	rows := len(cols[0])
	if rows == 0 || rows%2 != 0 {
		return nil, fmt.Errorf("%w: basis column length %d is not a positive even number",
			domain.ErrDimensionMismatch, rows)
	}

	u := mat.NewDense(rows, len(cols), nil)
	for j, col := range cols {
		if len(col) != rows {
			return nil, domain.NewDimensionMismatch(fmt.Sprintf("basis column %d", j), rows, len(col))
		}
		u.SetCol(j, col)
	}
	return NewBasis(u, rows/2, nil)
}

// NumPoints returns the sample count N the basis was trained with.
func (b *Basis) NumPoints() int { return b.numPoints }

// Rank returns K, the number of retained directions.
func (b *Basis) Rank() int {
	_, c := b.u.Dims()
	return c
}

// Dims returns the basis shape (2N, K).
func (b *Basis) Dims() (rows, cols int) { return b.u.Dims() }

// SingularValues returns the singular values of the retained directions, or nil if unknown.
func (b *Basis) SingularValues() []float64 {
	if b.singular == nil {
		return nil
	}
	return append([]float64(nil), b.singular...)
}

// Column returns a copy of column j.
func (b *Basis) Column(j int) []float64 {
	return mat.Col(nil, j, b.u)
}

// Columns returns the basis as a list of columns (column-major).
func (b *Basis) Columns() [][]float64 {
	out := make([][]float64, b.Rank())
	for j := range out {
		out[j] = b.Column(j)
	}
	return out
}

// Matrix returns a copy of the 2N × K basis matrix.
func (b *Basis) Matrix() *mat.Dense {
	return mat.DenseCopyOf(b.u)
}

// Truncate returns a basis keeping the first k directions.
func (b *Basis) Truncate(k int) (*Basis, error) {
	if k < 1 || k > b.Rank() {
		return nil, fmt.Errorf("%w: truncation rank %d outside [1, %d]", domain.ErrInvalidParameter, k, b.Rank())
	}
	rows, _ := b.u.Dims()
	var sv []float64
	if b.singular != nil {
		sv = b.singular[:k]
	}
	return NewBasis(b.u.Slice(0, rows, 0, k), b.numPoints, sv)
}

// OrthonormalityError returns max |BᵗB − I| over all entries.
func (b *Basis) OrthonormalityError() float64 {
	k := b.Rank()
	var g mat.Dense
	g.Mul(b.u.T(), b.u)

	var worst float64
	for i := range k {
		for j := range k {
			want := 0.0
			if i == j {
				want = 1
			}
			worst = math.Max(worst, math.Abs(g.At(i, j)-want))
		}
	}
	return worst
}
