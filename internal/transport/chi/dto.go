package chi

import (
	"fmt"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	"github.com/kailas-cloud/eigencurve/internal/domain/curve"
	"github.com/kailas-cloud/eigencurve/internal/domain/subspace"
	codecuc "github.com/kailas-cloud/eigencurve/internal/usecase/codec"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeDimensionMismatch ErrorCode = "dimension_mismatch"
	ErrorCodeNotFound          ErrorCode = "not_found"
	ErrorCodeModelNotLoaded    ErrorCode = "model_not_loaded"
	ErrorCodeMalformedArtifact ErrorCode = "malformed_artifact"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// CurveDTO is a curve on the wire.
type CurveDTO struct {
	Kind   curve.Kind     `json:"kind"`
	Points []curve.Point2 `json:"points"`
}

// EncodeRequest is the body of POST /v1/encode and POST /v1/reconstruction-error.
type EncodeRequest struct {
	Curves []CurveDTO `json:"curves"`
}

// EncodeResponse is the body returned by POST /v1/encode.
type EncodeResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// DecodeRequest is the body of POST /v1/decode.
type DecodeRequest struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// DecodeResponse is the body returned by POST /v1/decode. Every decoded
// embedding is a polyline of line segments.
type DecodeResponse struct {
	Model  string       `json:"model"`
	Curves [][]CurveDTO `json:"curves"`
}

// ReconstructionResponse is the body returned by POST /v1/reconstruction-error.
type ReconstructionResponse struct {
	Model  string    `json:"model"`
	Errors []float64 `json:"errors"`
}

// ModelResponse describes the active model.
type ModelResponse struct {
	Name      string `json:"name"`
	NumPoints int    `json:"num_points"`
	Rank      int    `json:"rank"`
	Curves    int    `json:"curves"`
}

// ActivateRequest is the body of PUT /v1/model.
type ActivateRequest struct {
	Name string `json:"name"`
}

// ModelListResponse is the body returned by GET /v1/models.
type ModelListResponse struct {
	Items []string `json:"items"`
}

// EmbeddingResponse is the body returned by GET /v1/model/curves/{index}/embedding.
type EmbeddingResponse struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func curvesFromDTO(in []CurveDTO) ([]curve.Curve, error) {
	out := make([]curve.Curve, len(in))
	for i, c := range in {
		cv, err := curve.New(c.Kind, c.Points)
		if err != nil {
			return nil, fmt.Errorf("curves[%d]: %w", i, err)
		}
		out[i] = cv
	}
	return out, nil
}

func curveToDTO(c curve.Curve) CurveDTO {
	return CurveDTO{Kind: c.Kind(), Points: c.ControlPoints()}
}

func embeddingsFromDTO(in [][]float64) []subspace.Embedding {
	out := make([]subspace.Embedding, len(in))
	for i, e := range in {
		out[i] = subspace.Embedding(e)
	}
	return out
}

func embeddingsToDTO(in []subspace.Embedding) [][]float64 {
	out := make([][]float64, len(in))
	for i, e := range in {
		out[i] = []float64(e)
	}
	return out
}

func modelToDTO(m codecuc.Model) ModelResponse {
	return ModelResponse{Name: m.Name, NumPoints: m.NumPoints, Rank: m.Rank, Curves: m.Curves}
}

func requireCurves(req EncodeRequest) error {
	if len(req.Curves) == 0 {
		return fmt.Errorf("%w: curves must not be empty", domain.ErrInvalidParameter)
	}
	return nil
}
