package curve

import (
	"fmt"

	"github.com/kailas-cloud/eigencurve/internal/domain"
)

// Kind names a curve variant.
type Kind string

// Curve variants.
const (
	KindLine      Kind = "line"
	KindQuadratic Kind = "quadratic"
	KindCubic     Kind = "cubic"
)

// Curve is one segment of a glyph outline. The set of implementations is
// closed: Line, Quadratic and Cubic.
type Curve interface {
	// Kind reports the variant.
	Kind() Kind
	// Eval returns the point at parameter t ∈ [0, 1].
	Eval(t float32) Point2
	// ControlPoints returns the defining points, start first and end last.
	ControlPoints() []Point2

	sealed()
}

var (
	_ Curve = Line{}
	_ Curve = Quadratic{}
	_ Curve = Cubic{}
)

// Line is a straight segment from P0 to P1.
type Line struct {
	P0 Point2
	P1 Point2
}

// Kind implements Curve.
func (Line) Kind() Kind { return KindLine }

// Eval linearly interpolates between the end points.
func (l Line) Eval(t float32) Point2 {
	return l.P0.Lerp(l.P1, t)
}

// ControlPoints implements Curve.
func (l Line) ControlPoints() []Point2 { return []Point2{l.P0, l.P1} }

func (Line) sealed() {}

// Quadratic is a quadratic Bézier with control point P1.
type Quadratic struct {
	P0 Point2
	P1 Point2
	P2 Point2
}

// Kind implements Curve.
func (Quadratic) Kind() Kind { return KindQuadratic }

// Eval evaluates the degree-2 Bernstein form.
func (q Quadratic) Eval(t float32) Point2 {
	mt := 1 - t
	a := mt * mt
	b := 2 * mt * t
	c := t * t
	return Point2{
		X: a*q.P0.X + b*q.P1.X + c*q.P2.X,
		Y: a*q.P0.Y + b*q.P1.Y + c*q.P2.Y,
	}
}

// ControlPoints implements Curve.
func (q Quadratic) ControlPoints() []Point2 { return []Point2{q.P0, q.P1, q.P2} }

func (Quadratic) sealed() {}

// Cubic is a cubic Bézier with control points P1 and P2.
type Cubic struct {
	P0 Point2
	P1 Point2
	P2 Point2
	P3 Point2
}

// Kind implements Curve.
func (Cubic) Kind() Kind { return KindCubic }

// Eval evaluates the degree-3 Bernstein form.
func (c Cubic) Eval(t float32) Point2 {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	d := 3 * mt * t * t
	e := t * t * t
	return Point2{
		X: a*c.P0.X + b*c.P1.X + d*c.P2.X + e*c.P3.X,
		Y: a*c.P0.Y + b*c.P1.Y + d*c.P2.Y + e*c.P3.Y,
	}
}

// ControlPoints implements Curve.
func (c Cubic) ControlPoints() []Point2 { return []Point2{c.P0, c.P1, c.P2, c.P3} }

func (Cubic) sealed() {}

// New builds the variant named by kind from its control points.
func New(kind Kind, pts []Point2) (Curve, error) {
	want := 0
	switch kind {
	case KindLine:
		want = 2
	case KindQuadratic:
		want = 3
	case KindCubic:
		want = 4
	default:
		return nil, fmt.Errorf("%w: unknown curve kind %q", domain.ErrInvalidParameter, kind)
	}
	if len(pts) != want {
		return nil, fmt.Errorf("%w: %s needs %d control points, got %d",
			domain.ErrInvalidParameter, kind, want, len(pts))
	}

	switch kind {
	case KindLine:
		return Line{P0: pts[0], P1: pts[1]}, nil
	case KindQuadratic:
		return Quadratic{P0: pts[0], P1: pts[1], P2: pts[2]}, nil
	default:
		return Cubic{P0: pts[0], P1: pts[1], P2: pts[2], P3: pts[3]}, nil
	}
}
