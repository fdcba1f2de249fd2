package curve

import (
	"fmt"

	"github.com/kailas-cloud/eigencurve/internal/domain"
)

// MinSamplePoints is the smallest sample count that represents both t=0 and t=1.
const MinSamplePoints = 2

// Sample evaluates c at numPoints parameters uniformly spaced over [0, 1].
func Sample(c Curve, numPoints int) ([]Point2, error) {
	if numPoints < MinSamplePoints {
		return nil, fmt.Errorf("%w: sample count %d, need at least %d",
			domain.ErrInvalidParameter, numPoints, MinSamplePoints)
	}

	switch c.(type) {
	case Line, Quadratic, Cubic:
	default:
		return nil, fmt.Errorf("%w: unsupported curve %T", domain.ErrInvalidParameter, c)
	}

	pts := make([]Point2, numPoints)
	last := float32(numPoints - 1)
	for i := range pts {
		pts[i] = c.Eval(float32(i) / last)
	}
	return pts, nil
}

// Flatten interleaves x and y of each point: [x0, y0, x1, y1, ...].
func Flatten(pts []Point2) []float64 {
	v := make([]float64, 2*len(pts))
	for i, p := range pts {
		v[2*i] = float64(p.X)
		v[2*i+1] = float64(p.Y)
	}
	return v
}

// Unflatten regroups an interleaved vector into points. It is the inverse of Flatten.
func Unflatten(v []float64) ([]Point2, error) {
	if len(v)%2 != 0 {
		return nil, fmt.Errorf("%w: interleaved vector has odd length %d", domain.ErrDimensionMismatch, len(v))
	}
	pts := make([]Point2, len(v)/2)
	for i := range pts {
		pts[i] = Point2{X: float32(v[2*i]), Y: float32(v[2*i+1])}
	}
	return pts, nil
}

// SampleFlat samples c and flattens the result.
func SampleFlat(c Curve, numPoints int) ([]float64, error) {
	pts, err := Sample(c, numPoints)
	if err != nil {
		return nil, err
	}
	return Flatten(pts), nil
}

// Polyline connects consecutive points with lines. Fewer than two points yield no segments.
func Polyline(pts []Point2) []Curve {
	if len(pts) < 2 {
		return nil
	}
	out := make([]Curve, len(pts)-1)
	for i := range out {
		out[i] = Line{P0: pts[i], P1: pts[i+1]}
	}
	return out
}
