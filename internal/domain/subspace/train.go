package subspace

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
)

// DefaultCutoff is the singular value threshold of the adaptive rank mode.
const DefaultCutoff = 1e-10

// DefaultNumPoints is the sample count used when none is configured.
const DefaultNumPoints = 30

// TrainConfig parameterizes a training run.
type TrainConfig struct {
	// NumPoints is the per-curve sample count N.
	NumPoints int
	// Rank fixes K. Zero selects the adaptive mode: K is the number of
	// singular values strictly greater than Cutoff.
	Rank int
	// Cutoff is the adaptive singular value threshold. Zero means DefaultCutoff.
	Cutoff float64
}

func (c TrainConfig) cutoff() float64 {
	if c.Cutoff > 0 {
		return c.Cutoff
	}
	return DefaultCutoff
}

// Train samples every curve, stacks the flattened samples and keeps the
// leading left singular vectors of the transposed stack as the basis.
func Train(curves []curve.Curve, cfg TrainConfig) (*Basis, error) {
	if len(curves) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if cfg.Rank < 0 {
		return nil, fmt.Errorf("%w: rank %d", domain.ErrInvalidParameter, cfg.Rank)
	}

	m, err := StackSamples(curves, cfg.NumPoints)
	if err != nil {
		return nil, err
	}

	var svd mat.SVD
	if ok := svd.Factorize(m.T(), mat.SVDThinU); !ok {
		return nil, fmt.Errorf("%w: singular value decomposition did not converge", domain.ErrDegenerateCorpus)
	}
	values := svd.Values(nil)

	k, err := selectRank(values, cfg)
	if err != nil {
		return nil, err
	}

	var u mat.Dense
	svd.UTo(&u)
	rows, _ := u.Dims()
	return NewBasis(u.Slice(0, rows, 0, k), cfg.NumPoints, values[:k])
}

// selectRank picks K from singular values sorted in descending order.
func selectRank(values []float64, cfg TrainConfig) (int, error) {
	if cfg.Rank > 0 {
		if cfg.Rank > len(values) {
			return 0, fmt.Errorf("%w: rank %d exceeds the %d available directions",
				domain.ErrInvalidParameter, cfg.Rank, len(values))
		}
		return cfg.Rank, nil
	}

	cutoff := cfg.cutoff()
	k := 0
	for _, v := range values {
		if v <= cutoff {
			break
		}
		k++
	}
	if k == 0 {
		return 0, fmt.Errorf("%w: no singular value above %g", domain.ErrDegenerateCorpus, cutoff)
	}
	return k, nil
}

// StackSamples returns the M × 2N matrix whose row i is curve i sampled at
// numPoints points and flattened.
func StackSamples(curves []curve.Curve, numPoints int) (*mat.Dense, error) {
	if len(curves) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if numPoints < curve.MinSamplePoints {
		return nil, fmt.Errorf("%w: sample count %d, need at least %d",
			domain.ErrInvalidParameter, numPoints, curve.MinSamplePoints)
	}

	width := 2 * numPoints
	m := mat.NewDense(len(curves), width, nil)
	for i, c := range curves {
		row, err := curve.SampleFlat(c, numPoints)
		if err != nil {
			return nil, fmt.Errorf("sample curve %d: %w", i, err)
		}
		if len(row) != width {
			return nil, domain.NewDimensionMismatch(fmt.Sprintf("curve %d samples", i), width, len(row))
		}
		m.SetRow(i, row)
	}
	return m, nil
}
