package subspace

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
)

// EvalRow is the reconstruction error of a basis truncated to Rank directions.
type EvalRow struct {
	Rank int
	// ParamCount is the number of coefficients stored per curve.
	ParamCount int
	// Error is ‖Â − A‖_F divided by the number of curves.
	Error float64
}

// Evaluate measures the reconstruction error of curves for every truncation
// rank k = 1..K of b.
//
// With A the 2N × M sample matrix, C = BᵗA and R_K the explicit residual of
// the full basis, the squared rank-k residual is ‖R_K‖² + Σ_{i>k} ‖C_i‖²
// since the columns of B are orthonormal. The sum runs from the tail and
// only adds non-negative terms, so the error is non-increasing in k and keeps
// full precision near full rank, where ‖A‖² − Σ_{i≤k} ‖C_i‖² would cancel.
func Evaluate(curves []curve.Curve, b *Basis) ([]EvalRow, error) {
	if len(curves) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if b == nil {
		return nil, fmt.Errorf("%w: nil basis", domain.ErrInvalidParameter)
	}

	stacked, err := StackSamples(curves, b.numPoints)
	if err != nil {
		return nil, err
	}
	a := stacked.T()

	var coef, resid mat.Dense
	coef.Mul(b.u.T(), a)
	resid.Mul(b.u, &coef)
	resid.Sub(&resid, a)

	m := float64(len(curves))
	k := b.Rank()

	rows := make([]EvalRow, k)
	tail := squaredNorm(&resid)
	for i := k - 1; i >= 0; i-- {
		rows[i] = EvalRow{
			Rank:       i + 1,
			ParamCount: i + 1,
			Error:      math.Sqrt(tail) / m,
		}
		row := coef.RawRowView(i)
		tail += floats.Dot(row, row)
	}
	return rows, nil
}

// ReconstructionResidual returns ‖B_k·B_kᵗ·A − A‖_F / M by explicit
// reconstruction through the first k directions.
func ReconstructionResidual(curves []curve.Curve, b *Basis, k int) (float64, error) {
	if len(curves) == 0 {
		return 0, domain.ErrEmptyCorpus
	}
	bk, err := b.Truncate(k)
	if err != nil {
		return 0, err
	}
	stacked, err := StackSamples(curves, b.numPoints)
	if err != nil {
		return 0, err
	}
	a := stacked.T()

	var coef, recon mat.Dense
	coef.Mul(bk.u.T(), a)
	recon.Mul(bk.u, &coef)
	recon.Sub(&recon, a)
	return mat.Norm(&recon, 2) / float64(len(curves)), nil
}

func squaredNorm(a mat.Matrix) float64 {
	n := mat.Norm(a, 2)
	return n * n
}

