package codec

import (
	"context"

	domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"
)

// ModelStore reads named artifacts.
type ModelStore interface {
	Load(ctx context.Context, name string) (*domart.ProcessedData, error)
	List(ctx context.Context) ([]string, error)
}
