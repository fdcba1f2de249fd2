package visualize

import domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"

// ArtifactReader loads an artifact from a path.
type ArtifactReader interface {
	Load(path string) (*domart.ProcessedData, error)
}
