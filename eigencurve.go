package eigencurve

import (
	"context"

	domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
	"github.com/kailas-cloud/eigencurve/internal/domain/subspace"
	artifactrepo "github.com/kailas-cloud/eigencurve/internal/repository/artifact"
	"github.com/kailas-cloud/eigencurve/internal/transport/font"
)

// Curve types.
type (
	Point2    = curve.Point2
	Curve     = curve.Curve
	Kind      = curve.Kind
	Line      = curve.Line
	Quadratic = curve.Quadratic
	Cubic     = curve.Cubic
)

// Curve kinds.
const (
	KindLine      = curve.KindLine
	KindQuadratic = curve.KindQuadratic
	KindCubic     = curve.KindCubic
)

// Subspace types.
type (
	Basis       = subspace.Basis
	TrainConfig = subspace.TrainConfig
	Codec       = subspace.Codec
	Encoder     = subspace.Encoder
	Decoder     = subspace.Decoder
	Embedding   = subspace.Embedding
	EvalRow     = subspace.EvalRow
)

// ProcessedData is the persisted artifact: sampled curves, their
// coefficients and the basis columns.
type ProcessedData = domart.ProcessedData

// Training defaults.
const (
	DefaultNumPoints = subspace.DefaultNumPoints
	DefaultCutoff    = subspace.DefaultCutoff
)

// Pt returns the point (x, y).
func Pt(x, y float32) Point2 { return curve.Pt(x, y) }

// NewCurve builds a curve of the given kind from its control points.
func NewCurve(kind Kind, pts []Point2) (Curve, error) { return curve.New(kind, pts) }

// Sample evaluates c at numPoints evenly spaced parameters in [0, 1].
func Sample(c Curve, numPoints int) ([]Point2, error) { return curve.Sample(c, numPoints) }

// Flatten interleaves points as x0, y0, x1, y1, ...
func Flatten(pts []Point2) []float64 { return curve.Flatten(pts) }

// Unflatten is the inverse of Flatten.
func Unflatten(v []float64) ([]Point2, error) { return curve.Unflatten(v) }

// Train learns a basis from the samples of curves.
func Train(curves []Curve, cfg TrainConfig) (*Basis, error) { return subspace.Train(curves, cfg) }

// NewCodec returns a codec over b.
func NewCodec(b *Basis) *Codec { return subspace.NewCodec(b) }

// Evaluate reports the reconstruction error of curves for every truncation rank of b.
func Evaluate(curves []Curve, b *Basis) ([]EvalRow, error) { return subspace.Evaluate(curves, b) }

// BuildArtifact encodes curves with codec and assembles the artifact.
func BuildArtifact(ctx context.Context, codec *Codec, curves []Curve) (*ProcessedData, error) {
	return domart.Build(ctx, codec, curves)
}

// LoadArtifact reads and validates a JSON artifact.
func LoadArtifact(path string) (*ProcessedData, error) {
	return artifactrepo.NewFileStore().Load(path)
}

// SaveArtifact validates d and writes it as JSON.
func SaveArtifact(path string, d *ProcessedData) error {
	return artifactrepo.NewFileStore().Save(path, d)
}

// LoadFont extracts the outline curves of chars from a TrueType or OpenType file.
func LoadFont(path, chars string) ([]Curve, error) {
	return font.NewLoader(nil).LoadCurves(path, chars)
}

// ParseFont is LoadFont for font data already in memory.
func ParseFont(data []byte, chars string) ([]Curve, error) {
	return font.NewLoader(nil).ParseCurves(data, chars)
}
