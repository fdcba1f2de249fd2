package artifact

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/eigencurve/internal/db"
	"github.com/kailas-cloud/eigencurve/internal/domain"
)

func TestRepo_SaveLoad(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, testPrefix)
	ctx := context.Background()
	want := testArtifact(t)

	if err := repo.Save(ctx, "latin", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := ms.data["eigencurve:model:latin"]; !ok {
		t.Fatalf("artifact not stored under expected key, have %v", ms.data)
	}

	got, err := repo.Load(ctx, "latin")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("artifact changed (-want +got):\n%s", diff)
	}
}

func TestRepo_SaveEmptyName(t *testing.T) {
	repo := New(newMockStore(), testPrefix)
	if err := repo.Save(context.Background(), "", testArtifact(t)); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestRepo_SaveStoreError(t *testing.T) {
	ms := newMockStore()
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		return &db.Error{Op: db.OpSet, Err: errors.New("connection lost")}
	}
	repo := New(ms, testPrefix)

	err := repo.Save(context.Background(), "latin", testArtifact(t))
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestRepo_LoadNotFound(t *testing.T) {
	repo := New(newMockStore(), testPrefix)
	if _, err := repo.Load(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_LoadMalformed(t *testing.T) {
	ms := newMockStore()
	ms.data["eigencurve:model:broken"] = []byte(`{"basis":[[1,2,3]]}`)
	repo := New(ms, testPrefix)

	if _, err := repo.Load(context.Background(), "broken"); !errors.Is(err, domain.ErrMalformedArtifact) {
		t.Fatalf("expected ErrMalformedArtifact, got %v", err)
	}
}

func TestRepo_Delete(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, testPrefix)
	ctx := context.Background()

	if err := repo.Save(ctx, "latin", testArtifact(t)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "latin"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Load(ctx, "latin"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "latin"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestRepo_List(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, testPrefix)
	ctx := context.Background()

	for _, name := range []string{"serif", "latin", "mono"} {
		if err := repo.Save(ctx, name, testArtifact(t)); err != nil {
			t.Fatal(err)
		}
	}
	ms.data["other:model:x"] = []byte("{}")

	names, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"latin", "mono", "serif"}, names); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestRepo_ListError(t *testing.T) {
	ms := newMockStore()
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return nil, errors.New("timeout")
	}
	if _, err := New(ms, testPrefix).List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
