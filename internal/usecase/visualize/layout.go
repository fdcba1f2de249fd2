package visualize

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
	"github.com/kailas-cloud/eigencurve/internal/domain/projection"
)

// Canvas defaults.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
	margin        = 50
	glyphBox      = 30
)

// Placement is one curve positioned on the canvas.
type Placement struct {
	Index int
	// PC holds the first two principal component coordinates of the embedding.
	PC [2]float64
	// X, Y are canvas coordinates of the marker.
	X, Y float64
	// Path is the sampled curve scaled into a glyphBox square at the marker.
	Path []curve.Point2
}

// Layout is the projected corpus ready to be drawn.
type Layout struct {
	Width, Height int
	Variances     []float64
	Placements    []Placement
}

// Project reduces the stored embeddings of d to two principal components and
// places every stored curve on a width×height canvas.
func Project(d *domart.ProcessedData, width, height int) (*Layout, error) {
	if width <= 2*margin || height <= 2*margin {
		return nil, fmt.Errorf("%w: canvas %dx%d is smaller than its margins",
			domain.ErrInvalidParameter, width, height)
	}
	if len(d.Coefficients) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 embeddings to project, got %d",
			domain.ErrInvalidParameter, len(d.Coefficients))
	}

	components := min(2, d.Rank(), len(d.Coefficients))
	res, err := projection.PCA(d.Coefficients, components)
	if err != nil {
		return nil, fmt.Errorf("project embeddings: %w", err)
	}

	pcs := make([][2]float64, len(res.Points))
	for i, p := range res.Points {
		copy(pcs[i][:], p)
	}

	xs := axis(pcs, 0, float64(width))
	ys := axis(pcs, 1, float64(height))

	out := &Layout{Width: width, Height: height, Variances: res.Variances}
	for i := range pcs {
		pl := Placement{Index: i, PC: pcs[i], X: xs[i], Y: ys[i]}
		if i < len(d.Curves) {
			pl.Path = fitBox(d.Curves[i], pl.X, pl.Y)
		}
		out.Placements = append(out.Placements, pl)
	}
	return out, nil
}

// axis maps coordinate j of every point into [margin, size-margin]. A
// zero-width range collapses to the center.
func axis(pcs [][2]float64, j int, size float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range pcs {
		lo = math.Min(lo, p[j])
		hi = math.Max(hi, p[j])
	}
	out := make([]float64, len(pcs))
	span := hi - lo
	for i, p := range pcs {
		if span == 0 {
			out[i] = size / 2
			continue
		}
		out[i] = margin + (p[j]-lo)/span*(size-2*margin)
	}
	return out
}

// fitBox scales pts uniformly into a glyphBox square whose lower-left corner
// is at (x, y) in canvas coordinates, flipping y for a y-down canvas.
func fitBox(pts []curve.Point2, x, y float64) []curve.Point2 {
	if len(pts) == 0 {
		return nil
	}
	minX, minY := float64(pts[0].X), float64(pts[0].Y)
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, float64(p.X))
		minY = math.Min(minY, float64(p.Y))
		maxX = math.Max(maxX, float64(p.X))
		maxY = math.Max(maxY, float64(p.Y))
	}
	extent := math.Max(maxX-minX, maxY-minY)
	scale := 0.0
	if extent > 0 {
		scale = glyphBox / extent
	}

	out := make([]curve.Point2, len(pts))
	for i, p := range pts {
		out[i] = curve.Pt(
			float32(x+(float64(p.X)-minX)*scale),
			float32(y-(float64(p.Y)-minY)*scale),
		)
	}
	return out
}
