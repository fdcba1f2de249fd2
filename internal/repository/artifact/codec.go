// Package artifact persists trained models as JSON, either to files or to a
// key-value store.
package artifact

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	domart "github.com/kailas-cloud/eigencurve/internal/domain/artifact"
)

func marshal(d *domart.ProcessedData) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal artifact: %w", err)
	}
	return data, nil
}

func unmarshal(data []byte) (*domart.ProcessedData, error) {
	var d domart.ProcessedData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedArtifact, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
