// Package font extracts glyph outlines from TrueType and OpenType fonts as
// curve segments.
package font

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
)

// Loader reads outlines for a set of characters.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a font loader. A nil logger disables logging.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// LoadCurves reads the font file at path and returns the outline segments of
// every character in chars that the font covers.
func (l *Loader) LoadCurves(path, chars string) ([]curve.Curve, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read font: %w", domain.ErrIO, err)
	}
	curves, err := l.ParseCurves(data, chars)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return curves, nil
}

// ParseCurves parses font data and returns outline segments in outline order.
// Coordinates are font units with the y axis pointing up. Characters without
// a glyph are skipped.
func (l *Loader) ParseCurves(data []byte, chars string) ([]curve.Curve, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse font: %w", domain.ErrIO, err)
	}

	// ppem equal to units per em makes LoadGlyph return unscaled font units.
	ppem := fixed.I(int(f.UnitsPerEm()))

	var (
		buf    sfnt.Buffer
		curves []curve.Curve
	)
	for _, r := range chars {
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil {
			return nil, fmt.Errorf("%w: glyph index for %q: %w", domain.ErrIO, r, err)
		}
		if idx == 0 {
			l.logger.Debug("glyph not found, skipping", zap.String("char", string(r)))
			continue
		}

		segs, err := f.LoadGlyph(&buf, idx, ppem, nil)
		if err != nil {
			if errors.Is(err, sfnt.ErrNotFound) {
				l.logger.Debug("glyph has no outline, skipping", zap.String("char", string(r)))
				continue
			}
			return nil, fmt.Errorf("%w: load glyph %q: %w", domain.ErrIO, r, err)
		}

		before := len(curves)
		curves = appendSegments(curves, segs)
		l.logger.Debug("glyph loaded",
			zap.String("char", string(r)),
			zap.Int("segments", len(curves)-before),
		)
	}
	return curves, nil
}

func appendSegments(dst []curve.Curve, segs sfnt.Segments) []curve.Curve {
	var pen curve.Point2
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			pen = toPoint(s.Args[0])
		case sfnt.SegmentOpLineTo:
			p1 := toPoint(s.Args[0])
			dst = append(dst, curve.Line{P0: pen, P1: p1})
			pen = p1
		case sfnt.SegmentOpQuadTo:
			p2 := toPoint(s.Args[1])
			dst = append(dst, curve.Quadratic{P0: pen, P1: toPoint(s.Args[0]), P2: p2})
			pen = p2
		case sfnt.SegmentOpCubeTo:
			p3 := toPoint(s.Args[2])
			dst = append(dst, curve.Cubic{P0: pen, P1: toPoint(s.Args[0]), P2: toPoint(s.Args[1]), P3: p3})
			pen = p3
		}
	}
	return dst
}

// toPoint converts a 26.6 point to font units, flipping y to point up.
func toPoint(p fixed.Point26_6) curve.Point2 {
	return curve.Pt(float32(p.X)/64, -float32(p.Y)/64)
}
