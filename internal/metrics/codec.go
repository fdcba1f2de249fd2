package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eigencurve"

// Codec Prometheus metrics.
var (
	CodecOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codec_operations_total",
			Help:      "Total number of codec operations",
		},
		[]string{"op", "status"}, // op: encode/decode/train/evaluate
	)

	CodecOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "codec_operation_duration_seconds",
			Help:      "Codec operation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"op"},
	)

	CodecBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "codec_batch_size",
			Help:      "Number of items per encode/decode request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
		},
		[]string{"op"},
	)

	ReconstructionError = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconstruction_error",
			Help:      "Per-curve reconstruction error (Euclidean, font units)",
			Buckets:   prometheus.ExponentialBuckets(0.001, 10, 8),
		},
	)

	ModelRank = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_rank",
			Help:      "Number of basis vectors of the loaded or last trained model",
		},
	)

	ModelSamplePoints = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_sample_points",
			Help:      "Samples per curve of the loaded or last trained model",
		},
	)

	ArtifactStoreTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_store_total",
			Help:      "Artifact load/save operations",
		},
		[]string{"backend", "op", "status"}, // backend: file/redis
	)
)

var codecMetricsOnce sync.Once

// RegisterCodecMetrics registers codec metrics with the default registry.
// Safe to call more than once.
func RegisterCodecMetrics() {
	codecMetricsOnce.Do(func() {
		prometheus.MustRegister(
			CodecOperationsTotal,
			CodecOperationDuration,
			CodecBatchSize,
			ReconstructionError,
			ModelRank,
			ModelSamplePoints,
			ArtifactStoreTotal,
		)
	})
}

// Status returns the status label for an operation result.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
