package artifact

import (
	"context"
	"strings"
	"testing"

	"github.com/kailas-cloud/eigencurve/internal/db"
	domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
	"github.com/kailas-cloud/eigencurve/internal/domain/subspace"
)

const testPrefix = "eigencurve:"

// mockStore is an in-memory implementation of the consumer interface.
// Setting an *Fn field overrides the map-backed behaviour.
type mockStore struct {
	data   map[string][]byte
	getFn  func(ctx context.Context, key string) ([]byte, error)
	setFn  func(ctx context.Context, key string, value []byte) error
	scanFn func(ctx context.Context, pattern string) ([]string, error)
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func testArtifact(t *testing.T) *domart.ProcessedData {
	t.Helper()
	corpus := []curve.Curve{
		curve.Line{P0: curve.Pt(0, 0), P1: curve.Pt(100, 0)},
		curve.Quadratic{P0: curve.Pt(0, 0), P1: curve.Pt(50, 80), P2: curve.Pt(100, 0)},
		curve.Cubic{P0: curve.Pt(0, 0), P1: curve.Pt(0, 100), P2: curve.Pt(100, 100), P3: curve.Pt(100, 0)},
		curve.Line{P0: curve.Pt(30, 700), P1: curve.Pt(250, 0)},
	}
	b, err := subspace.Train(corpus, subspace.TrainConfig{NumPoints: 6, Rank: 3})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	d, err := domart.Build(context.Background(), subspace.NewCodec(b), corpus)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return d
}
