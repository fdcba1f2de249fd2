// Package process runs the offline pipeline: extract curves from a font,
// train a basis, evaluate it and persist the artifact.
package process

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"
	"github.com/kailas-cloud/eigencurve/internal/domain/subspace"
	"github.com/kailas-cloud/eigencurve/internal/metrics"
)

// Request describes one pipeline run.
type Request struct {
	FontPath   string
	OutputPath string
	Characters string
	Train      subspace.TrainConfig
	// ModelName, when set, also stores the artifact in the model store.
	ModelName string
}

// Result summarizes a pipeline run.
type Result struct {
	Curves     int
	BasisRows  int
	BasisCols  int
	Rank       int
	Evaluation []subspace.EvalRow
	Artifact   *domart.ProcessedData
	StoredAs   string
}

// Service runs the pipeline.
type Service struct {
	source CurveSource
	files  ArtifactWriter
	models ModelSaver
	logger *zap.Logger
}

// New creates a pipeline service. models can be nil.
func New(source CurveSource, files ArtifactWriter, models ModelSaver, logger *zap.Logger) *Service {
	return &Service{source: source, files: files, models: models, logger: logger}
}

// Run executes the pipeline for req.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.ModelName != "" && s.models == nil {
		return nil, fmt.Errorf("%w: model store is not configured", domain.ErrInvalidParameter)
	}

	curves, err := s.source.LoadCurves(req.FontPath, req.Characters)
	if err != nil {
		return nil, fmt.Errorf("load curves: %w", err)
	}
	s.logger.Info("Curves extracted",
		zap.String("font", req.FontPath),
		zap.String("chars", req.Characters),
		zap.Int("curves", len(curves)),
	)

	start := time.Now()
	basis, err := subspace.Train(curves, req.Train)
	s.observe("train", start, err)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	rows, cols := basis.Dims()
	s.logger.Info("Basis trained",
		zap.Int("num_points", basis.NumPoints()),
		zap.Int("rank", basis.Rank()),
		zap.Float64s("singular_values", basis.SingularValues()),
		zap.Duration("duration", time.Since(start)),
	)
	metrics.ModelRank.Set(float64(basis.Rank()))
	metrics.ModelSamplePoints.Set(float64(basis.NumPoints()))

	start = time.Now()
	eval, err := subspace.Evaluate(curves, basis)
	s.observe("evaluate", start, err)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	data, err := domart.Build(ctx, subspace.NewCodec(basis), curves)
	if err != nil {
		return nil, fmt.Errorf("build artifact: %w", err)
	}

	res := &Result{
		Curves:     len(curves),
		BasisRows:  rows,
		BasisCols:  cols,
		Rank:       basis.Rank(),
		Evaluation: eval,
		Artifact:   data,
	}

	err = s.files.Save(req.OutputPath, data)
	metrics.ArtifactStoreTotal.WithLabelValues("file", "save", metrics.Status(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}
	s.logger.Info("Artifact written", zap.String("path", req.OutputPath))

	if req.ModelName != "" {
		err = s.models.Save(ctx, req.ModelName, data)
		metrics.ArtifactStoreTotal.WithLabelValues("redis", "save", metrics.Status(err)).Inc()
		if err != nil {
			return nil, fmt.Errorf("store model: %w", err)
		}
		res.StoredAs = req.ModelName
		s.logger.Info("Model stored", zap.String("model", req.ModelName))
	}

	return res, nil
}

func (s *Service) observe(op string, start time.Time, err error) {
	metrics.CodecOperationsTotal.WithLabelValues(op, metrics.Status(err)).Inc()
	metrics.CodecOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
