// Package projection reduces embeddings to a few principal components for display.
package projection

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/kailas-cloud/eigencurve/internal/domain"
)

// Result holds a PCA projection of a set of row vectors.
type Result struct {
	// Points has one row per input vector and one column per component.
	Points [][]float64
	// Mean is the per-dimension mean that was subtracted before projecting.
	Mean []float64
	// Variances are the variances along the kept components, descending.
	Variances []float64
}

// PCA centers rows, finds the principal directions and projects every row
// onto the first components of them.
func PCA(rows [][]float64, components int) (*Result, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: PCA needs at least 2 vectors, got %d", domain.ErrInvalidParameter, len(rows))
	}
	dim := len(rows[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length vectors", domain.ErrInvalidParameter)
	}
	if components < 1 || components > min(dim, len(rows)) {
		return nil, fmt.Errorf("%w: %d components for %d vectors of dimension %d",
			domain.ErrInvalidParameter, components, len(rows), dim)
	}

	a := mat.NewDense(len(rows), dim, nil)
	for i, r := range rows {
		if len(r) != dim {
			return nil, domain.NewDimensionMismatch(fmt.Sprintf("vector %d", i), dim, len(r))
		}
		a.SetRow(i, r)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(a, nil); !ok {
		return nil, fmt.Errorf("%w: principal component decomposition failed", domain.ErrDegenerateCorpus)
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	mean := make([]float64, dim)
	for j := range mean {
		mean[j] = stat.Mean(mat.Col(nil, j, a), nil)
	}
	centered := mat.DenseCopyOf(a)
	for i := range len(rows) {
		row := centered.RawRowView(i)
		for j := range row {
			row[j] -= mean[j]
		}
	}

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, dim, 0, components))

	points := make([][]float64, len(rows))
	for i := range points {
		points[i] = mat.Row(nil, i, &proj)
	}
	return &Result{
		Points:    points,
		Mean:      mean,
		Variances: vars[:components],
	}, nil
}
