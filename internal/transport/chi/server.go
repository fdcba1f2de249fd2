// Package chi exposes the codec over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/eigencurve/internal/domain"
	logpkg "github.com/kailas-cloud/eigencurve/internal/logger"
	"github.com/kailas-cloud/eigencurve/internal/metrics"
	codecuc "github.com/kailas-cloud/eigencurve/internal/usecase/codec"
	healthuc "github.com/kailas-cloud/eigencurve/internal/usecase/health"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the codec API.
type Server struct {
	codec         *codecuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(codec *codecuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{codec: codec, health: health, logger: logger}
	s.errorHandlers = []errorHandler{
		dimensionMismatchHandler,
		sentinelHandler(domain.ErrInvalidParameter, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrEmptyCorpus, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrModelNotLoaded, http.StatusServiceUnavailable, ErrorCodeModelNotLoaded),
		sentinelHandler(domain.ErrMalformedArtifact, http.StatusUnprocessableEntity, ErrorCodeMalformedArtifact),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/encode", s.Encode)
		r.Post("/decode", s.Decode)
		r.Post("/reconstruction-error", s.ReconstructionError)
		r.Get("/model", s.GetModel)
		r.Put("/model", s.ActivateModel)
		r.Get("/model/curves/{index}/embedding", s.GetStoredEmbedding)
		r.Get("/models", s.ListModels)
	})
}

// Encode handles POST /v1/encode.
func (s *Server) Encode(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := requireCurves(req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	curves, err := curvesFromDTO(req.Curves)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	embs, model, err := s.codec.Encode(r.Context(), curves)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EncodeResponse{Model: model.Name, Embeddings: embeddingsToDTO(embs)})
}

// Decode handles POST /v1/decode.
func (s *Server) Decode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if len(req.Embeddings) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "embeddings must not be empty")
		return
	}

	decoded, model, err := s.codec.Decode(r.Context(), embeddingsFromDTO(req.Embeddings))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out := make([][]CurveDTO, len(decoded))
	for i, segs := range decoded {
		out[i] = make([]CurveDTO, len(segs))
		for j, c := range segs {
			out[i][j] = curveToDTO(c)
		}
	}
	writeJSON(w, http.StatusOK, DecodeResponse{Model: model.Name, Curves: out})
}

// ReconstructionError handles POST /v1/reconstruction-error.
func (s *Server) ReconstructionError(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := requireCurves(req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	curves, err := curvesFromDTO(req.Curves)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	errs, model, err := s.codec.ReconstructionErrors(r.Context(), curves)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReconstructionResponse{Model: model.Name, Errors: errs})
}

// GetModel handles GET /v1/model.
func (s *Server) GetModel(w http.ResponseWriter, r *http.Request) {
	m, err := s.codec.Model()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, modelToDTO(m))
}

// ActivateModel handles PUT /v1/model.
func (s *Server) ActivateModel(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "name is required")
		return
	}
	if err := s.codec.Activate(r.Context(), req.Name); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.GetModel(w, r)
}

// ListModels handles GET /v1/models.
func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	names, err := s.codec.Models(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ModelListResponse{Items: names})
}

// GetStoredEmbedding handles GET /v1/model/curves/{index}/embedding.
func (s *Server) GetStoredEmbedding(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "index must be an integer")
		return
	}
	e, err := s.codec.StoredEmbedding(idx)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EmbeddingResponse{Index: idx, Embedding: e})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeJSON marshals v before committing status, so a value that cannot be
// encoded yields a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Code: ErrorCodeInternalError, Message: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidParameter,
		domain.ErrEmptyCorpus,
		domain.ErrDimensionMismatch,
		domain.ErrNotFound,
		domain.ErrModelNotLoaded,
		domain.ErrMalformedArtifact,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// dimensionMismatchHandler reports the expected and actual lengths.
func dimensionMismatchHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		return false
	}
	var de *domain.DimensionError
	if errors.As(err, &de) {
		msg = de.Error()
	}
	writeError(w, http.StatusBadRequest, ErrorCodeDimensionMismatch, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, msg)
}
