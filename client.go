package eigencurve

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/eigencurve/internal/db"
	dbRedis "github.com/kailas-cloud/eigencurve/internal/db/redis"
	"github.com/kailas-cloud/eigencurve/internal/domain"
	domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
	"github.com/kailas-cloud/eigencurve/internal/domain/subspace"
	artifactrepo "github.com/kailas-cloud/eigencurve/internal/repository/artifact"
	codecuc "github.com/kailas-cloud/eigencurve/internal/usecase/codec"
	healthuc "github.com/kailas-cloud/eigencurve/internal/usecase/health"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "eigencurve:"
)

// Internal interfaces, replaced in tests.
type codecUseCase interface {
	Use(name string, d *domart.ProcessedData) error
	Activate(ctx context.Context, name string) error
	Models(ctx context.Context) ([]string, error)
	Model() (codecuc.Model, error)
	Encode(ctx context.Context, curves []curve.Curve) ([]subspace.Embedding, codecuc.Model, error)
	Decode(ctx context.Context, embeddings []subspace.Embedding) ([][]curve.Curve, codecuc.Model, error)
	ReconstructionErrors(ctx context.Context, curves []curve.Curve) ([]float64, codecuc.Model, error)
}

type modelRepository interface {
	Save(ctx context.Context, name string, d *domart.ProcessedData) error
	Delete(ctx context.Context, name string) error
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// ModelInfo describes the active model.
type ModelInfo struct {
	Name      string
	NumPoints int
	Rank      int
	Curves    int // number of training curves stored with the model
}

// HealthStatus represents the aggregated client health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Client serves one active model at a time. With WithRedis, models can be
// stored, listed and activated by name.
type Client struct {
	store  db.Store
	models modelRepository
	codec  codecUseCase
	health healthUseCase
	obs    *observer
}

// New creates a Client. When a Redis address is configured it connects and
// waits for the database; ctx bounds that readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	if len(cfg.addrs) == 0 {
		return wireClient(nil, cfg, obs), nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("eigencurve: create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("eigencurve: database not ready: %w", err)
	}
	return wireClient(store, cfg, obs), nil
}

// wireClient builds the use cases. store may be nil.
func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Pass nil interfaces (not typed nil pointers!) without a store.
	var (
		repo   modelRepository
		models codecuc.ModelStore
		pinger healthuc.DBPinger
	)
	if store != nil {
		r := artifactrepo.New(store, cfg.keyPrefix)
		repo, models, pinger = r, r, store
	}

	codecSvc := codecuc.New(models, logger)
	if cfg.maxBatchSize > 0 {
		codecSvc = codecSvc.WithMaxBatchSize(cfg.maxBatchSize)
	}

	return &Client{
		store:  store,
		models: repo,
		codec:  codecSvc,
		health: healthuc.New(pinger, codecSvc),
		obs:    obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if c.store == nil {
		return errNoStore()
	}
	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health checks the database (when configured) and whether a model is active.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// Use validates d and makes it the active model under name.
func (c *Client) Use(name string, d *ProcessedData) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("use", start, err) }()

	return c.codec.Use(name, d)
}

// Activate loads a stored model and makes it active.
func (c *Client) Activate(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("activate", start, err) }()

	return c.codec.Activate(ctx, name)
}

// SaveModel stores d under name. It does not change the active model.
func (c *Client) SaveModel(ctx context.Context, name string, d *ProcessedData) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("save_model", start, err) }()

	if c.models == nil {
		return errNoStore()
	}
	return c.models.Save(ctx, name, d)
}

// DeleteModel removes a stored model. The active model is unaffected.
func (c *Client) DeleteModel(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_model", start, err) }()

	if c.models == nil {
		return errNoStore()
	}
	return c.models.Delete(ctx, name)
}

// Models lists stored model names. Without a store the list is empty.
func (c *Client) Models(ctx context.Context) (names []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list_models", start, err) }()

	return c.codec.Models(ctx)
}

// Model describes the active model.
func (c *Client) Model() (ModelInfo, error) {
	m, err := c.codec.Model()
	if err != nil {
		return ModelInfo{}, err
	}
	return ModelInfo{Name: m.Name, NumPoints: m.NumPoints, Rank: m.Rank, Curves: m.Curves}, nil
}

// Encode projects curves onto the active basis.
func (c *Client) Encode(ctx context.Context, curves []Curve) (embs []Embedding, err error) {
	start := time.Now()
	defer func() { c.obs.observe("encode", start, err) }()

	embs, _, err = c.codec.Encode(ctx, curves)
	return embs, err
}

// Decode reconstructs every embedding as a polyline of line segments.
func (c *Client) Decode(ctx context.Context, embeddings []Embedding) (out [][]Curve, err error) {
	start := time.Now()
	defer func() { c.obs.observe("decode", start, err) }()

	out, _, err = c.codec.Decode(ctx, embeddings)
	return out, err
}

// ReconstructionErrors returns, per curve, the distance between its samples
// and their projection onto the active basis.
func (c *Client) ReconstructionErrors(ctx context.Context, curves []Curve) (errs []float64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reconstruction_errors", start, err) }()

	errs, _, err = c.codec.ReconstructionErrors(ctx, curves)
	return errs, err
}

func errNoStore() error {
	return fmt.Errorf("%w: no model store configured (use WithRedis)", domain.ErrInvalidParameter)
}
