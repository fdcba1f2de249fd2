package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"
)

// FileStore reads and writes artifacts on the local filesystem.
type FileStore struct{}

// NewFileStore creates a file store.
func NewFileStore() *FileStore { return &FileStore{} }

// Save writes d to path. The file is written next to path and renamed into
// place so readers never see a partial artifact.
func (FileStore) Save(path string, d *domart.ProcessedData) error {
	data, err := marshal(d)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrIO, path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %w", domain.ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrIO, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: rename %s: %w", domain.ErrIO, path, err)
	}
	return nil
}

// Load reads and validates the artifact at path.
func (FileStore) Load(path string) (*domart.ProcessedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrIO, path, err)
	}
	d, err := unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return d, nil
}
