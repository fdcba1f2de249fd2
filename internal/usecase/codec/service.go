// Package codec serves encode and decode requests against the active model.
package codec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
	"github.com/kailas-cloud/eigencurve/internal/domain/subspace"
	"github.com/kailas-cloud/eigencurve/internal/metrics"
)

// DefaultMaxBatchSize is the maximum number of curves or embeddings per call.
const DefaultMaxBatchSize = 1000

// Model describes the active model.
type Model struct {
	Name      string
	NumPoints int
	Rank      int
	Curves    int
}

// Service owns the active codec. The codec is replaced atomically by Use or
// Activate; in-flight requests keep the codec they started with.
type Service struct {
	mu     sync.RWMutex
	codec  *subspace.Codec
	model  Model
	stored []subspace.Embedding

	store        ModelStore
	maxBatchSize int
	logger       *zap.Logger
}

// New creates a codec service. store can be nil when models are only
// provided through Use.
func New(store ModelStore, logger *zap.Logger) *Service {
	return &Service{store: store, maxBatchSize: DefaultMaxBatchSize, logger: logger}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Use validates d and makes it the active model under name.
func (s *Service) Use(name string, d *domart.ProcessedData) error {
	b, err := d.ToBasis()
	if err != nil {
		return fmt.Errorf("use model %s: %w", name, err)
	}

	m := Model{Name: name, NumPoints: b.NumPoints(), Rank: b.Rank(), Curves: len(d.Curves)}

	s.mu.Lock()
	s.codec = subspace.NewCodec(b)
	s.model = m
	s.stored = d.Embeddings()
	s.mu.Unlock()

	metrics.ModelRank.Set(float64(m.Rank))
	metrics.ModelSamplePoints.Set(float64(m.NumPoints))

	s.logger.Info("Model activated",
		zap.String("model", name),
		zap.Int("num_points", m.NumPoints),
		zap.Int("rank", m.Rank),
		zap.Int("curves", m.Curves),
	)
	return nil
}

// Activate loads the named model from the store and makes it active.
func (s *Service) Activate(ctx context.Context, name string) error {
	if s.store == nil {
		return fmt.Errorf("%w: no model store configured", domain.ErrInvalidParameter)
	}
	d, err := s.store.Load(ctx, name)
	metrics.ArtifactStoreTotal.WithLabelValues("redis", "load", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	return s.Use(name, d)
}

// Models lists the models available in the store.
func (s *Service) Models(ctx context.Context) ([]string, error) {
	if s.store == nil {
		return []string{}, nil
	}
	names, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return names, nil
}

// Loaded reports whether a model is active.
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codec != nil
}

// Model returns a description of the active model.
func (s *Service) Model() (Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.codec == nil {
		return Model{}, domain.ErrModelNotLoaded
	}
	return s.model, nil
}

// StoredEmbedding returns the embedding of the i-th training curve of the active model.
func (s *Service) StoredEmbedding(i int) (subspace.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.codec == nil {
		return nil, domain.ErrModelNotLoaded
	}
	if i < 0 || i >= len(s.stored) {
		return nil, fmt.Errorf("curve %d of %d: %w", i, len(s.stored), domain.ErrNotFound)
	}
	return append(subspace.Embedding(nil), s.stored[i]...), nil
}

// active returns the codec and the model it belongs to, read under one lock.
func (s *Service) active() (*subspace.Codec, Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.codec == nil {
		return nil, Model{}, domain.ErrModelNotLoaded
	}
	return s.codec, s.model, nil
}

func (s *Service) checkBatch(n int) error {
	if n > s.maxBatchSize {
		return fmt.Errorf("%w: batch size %d exceeds %d", domain.ErrInvalidParameter, n, s.maxBatchSize)
	}
	return nil
}

// Encode projects curves onto the active basis. The returned Model is the one
// whose basis produced the embeddings.
func (s *Service) Encode(ctx context.Context, curves []curve.Curve) ([]subspace.Embedding, Model, error) {
	c, m, err := s.active()
	if err != nil {
		return nil, Model{}, err
	}
	if err := s.checkBatch(len(curves)); err != nil {
		return nil, Model{}, err
	}

	start := time.Now()
	embs, err := c.EncodeBatch(ctx, curves)
	s.observe("encode", start, len(curves), err)
	if err != nil {
		return nil, Model{}, fmt.Errorf("encode: %w", err)
	}
	return embs, m, nil
}

// Decode reconstructs each embedding as a polyline using the active basis,
// which is described by the returned Model.
func (s *Service) Decode(ctx context.Context, embeddings []subspace.Embedding) ([][]curve.Curve, Model, error) {
	c, m, err := s.active()
	if err != nil {
		return nil, Model{}, err
	}
	if err := s.checkBatch(len(embeddings)); err != nil {
		return nil, Model{}, err
	}

	start := time.Now()
	out, err := c.DecodeBatch(ctx, embeddings)
	s.observe("decode", start, len(embeddings), err)
	if err != nil {
		return nil, Model{}, fmt.Errorf("decode: %w", err)
	}
	return out, m, nil
}

// ReconstructionErrors returns, per curve, the distance between its samples
// and their projection onto the active basis.
func (s *Service) ReconstructionErrors(ctx context.Context, curves []curve.Curve) ([]float64, Model, error) {
	c, m, err := s.active()
	if err != nil {
		return nil, Model{}, err
	}
	if err := s.checkBatch(len(curves)); err != nil {
		return nil, Model{}, err
	}

	start := time.Now()
	out := make([]float64, len(curves))
	for i, cv := range curves {
		if err = ctx.Err(); err != nil {
			break
		}
		if out[i], err = c.ReconstructionError(cv); err != nil {
			err = fmt.Errorf("curve %d: %w", i, err)
			break
		}
		metrics.ReconstructionError.Observe(out[i])
	}
	s.observe("reconstruct", start, len(curves), err)
	if err != nil {
		return nil, Model{}, fmt.Errorf("reconstruct: %w", err)
	}
	return out, m, nil
}

func (s *Service) observe(op string, start time.Time, n int, err error) {
	duration := time.Since(start)
	metrics.CodecOperationsTotal.WithLabelValues(op, metrics.Status(err)).Inc()
	metrics.CodecOperationDuration.WithLabelValues(op).Observe(duration.Seconds())
	metrics.CodecBatchSize.WithLabelValues(op).Observe(float64(n))

	if err != nil {
		s.logger.Warn("Codec request failed",
			zap.String("op", op),
			zap.Int("batch_size", n),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Codec request completed",
		zap.String("op", op),
		zap.Int("batch_size", n),
		zap.Duration("duration", duration),
	)
}
