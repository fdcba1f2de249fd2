package artifact

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/eigencurve/internal/db"
	"github.com/kailas-cloud/eigencurve/internal/domain"
	domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"
)

// store is the consumer interface for artifacts (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo keeps named artifacts in a key-value store under prefix+"model:"+name.
type Repo struct {
	store  store
	prefix string
}

// New creates an artifact repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) key(name string) string {
	return r.prefix + "model:" + name
}

// Save stores d under name, replacing any previous artifact.
func (r *Repo) Save(ctx context.Context, name string, d *domart.ProcessedData) error {
	if name == "" {
		return fmt.Errorf("%w: model name is empty", domain.ErrInvalidParameter)
	}
	data, err := marshal(d)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.key(name), data); err != nil {
		return fmt.Errorf("set model %s: %w", name, err)
	}
	return nil
}

// Load returns the artifact stored under name.
func (r *Repo) Load(ctx context.Context, name string) (*domart.ProcessedData, error) {
	data, err := r.store.Get(ctx, r.key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("model %s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get model %s: %w", name, err)
	}
	d, err := unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	return d, nil
}

// Delete removes the artifact stored under name.
func (r *Repo) Delete(ctx context.Context, name string) error {
	exists, err := r.store.Exists(ctx, r.key(name))
	if err != nil {
		return fmt.Errorf("check model %s: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("model %s: %w", name, domain.ErrNotFound)
	}
	if err := r.store.Del(ctx, r.key(name)); err != nil {
		return fmt.Errorf("del model %s: %w", name, err)
	}
	return nil
}

// List returns the names of all stored artifacts, sorted.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan models: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, r.key("")))
	}
	sort.Strings(names)
	return names, nil
}
