// Package curve holds the curve segment model and the sampler that turns a
// segment into a fixed-length point sequence.
package curve

import (
	"fmt"
	"math"
)

// Point2 is a point in the glyph coordinate space.
type Point2 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Pt returns the point (x, y).
func Pt(x, y float32) Point2 {
	return Point2{X: x, Y: y}
}

func (p Point2) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Lerp linearly interpolates between two points.
func (p Point2) Lerp(o Point2, t float32) Point2 {
	return Point2{
		X: p.X + t*(o.X-p.X),
		Y: p.Y + t*(o.Y-p.Y),
	}
}

// Distance returns the euclidean distance between two points.
func (p Point2) Distance(o Point2) float64 {
	return math.Hypot(float64(p.X-o.X), float64(p.Y-o.Y))
}

// IsNaN reports whether at least one of x and y is NaN.
func (p Point2) IsNaN() bool {
	return math.IsNaN(float64(p.X)) || math.IsNaN(float64(p.Y))
}

// IsInf reports whether at least one of x and y is infinite.
func (p Point2) IsInf() bool {
	return math.IsInf(float64(p.X), 0) || math.IsInf(float64(p.Y), 0)
}
