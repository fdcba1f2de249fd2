package projection

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/eigencurve/internal/domain"
)

func TestPCA_LineInThreeDimensions(t *testing.T) {
	var rows [][]float64
	for _, s := range []float64{-2, -1, 0, 1, 2} {
		rows = append(rows, []float64{5 + s, 5 + 2*s, 5 + 2*s})
	}

	res, err := PCA(rows, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Points) != 5 || len(res.Points[0]) != 2 {
		t.Fatalf("expected 5x2 projection, got %dx%d", len(res.Points), len(res.Points[0]))
	}
	for j, m := range res.Mean {
		if math.Abs(m-5) > 1e-12 {
			t.Errorf("mean[%d] = %g, want 5", j, m)
		}
	}
	for i, s := range []float64{-2, -1, 0, 1, 2} {
		if got := math.Abs(res.Points[i][0]); math.Abs(got-3*math.Abs(s)) > 1e-9 {
			t.Errorf("point %d first component |%g|, want %g", i, res.Points[i][0], 3*math.Abs(s))
		}
		if math.Abs(res.Points[i][1]) > 1e-9 {
			t.Errorf("point %d second component %g, want 0", i, res.Points[i][1])
		}
	}
	if res.Variances[0] < res.Variances[1] {
		t.Errorf("variances not descending: %v", res.Variances)
	}
}

func TestPCA_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		rows       [][]float64
		components int
		want       error
	}{
		{"single row", [][]float64{{1, 2}}, 1, domain.ErrInvalidParameter},
		{"empty vectors", [][]float64{{}, {}}, 1, domain.ErrInvalidParameter},
		{"too many components", [][]float64{{1, 2}, {3, 4}}, 3, domain.ErrInvalidParameter},
		{"zero components", [][]float64{{1, 2}, {3, 4}}, 0, domain.ErrInvalidParameter},
		{"ragged", [][]float64{{1, 2}, {3}}, 1, domain.ErrDimensionMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PCA(tc.rows, tc.components)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
