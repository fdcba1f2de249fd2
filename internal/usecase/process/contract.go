package process

import (
	"context"

	domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
)

// CurveSource extracts outline curves from a font file.
type CurveSource interface {
	LoadCurves(path, chars string) ([]curve.Curve, error)
}

// ArtifactWriter writes an artifact to a path.
type ArtifactWriter interface {
	Save(path string, d *domart.ProcessedData) error
}

// ModelSaver stores an artifact under a model name.
type ModelSaver interface {
	Save(ctx context.Context, name string, d *domart.ProcessedData) error
}
