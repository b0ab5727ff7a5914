package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/codescan/internal/decode"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codescan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Decode metrics
	decodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_decode_requests_total",
			Help: "Total number of decode requests",
		},
		[]string{"type", "status"}, // type: image, pdf, websocket; status: found, not_found, error
	)

	decodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codescan_decode_duration_seconds",
			Help:    "Decode duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"type"},
	)

	decodeAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_decode_attempts_total",
			Help: "Total number of candidate decode attempts",
		},
		[]string{"rotation", "status"},
	)

	payloadLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codescan_payload_length",
			Help:    "Length of decoded payloads",
			Buckets: []float64{0, 8, 16, 32, 64, 128, 256, 512, 1024, 4096},
		},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codescan_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codescan_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

func metricsHandler() http.Handler {
	return promhttp.Handler()
}

// recordAttempt is a decode.Observer feeding the attempt counter.
func recordAttempt(a decode.Attempt) {
	decodeAttemptsTotal.WithLabelValues(a.Rotation.String(), string(a.Status)).Inc()
}

func decodeStatus(found bool) string {
	if found {
		return "found"
	}
	return "not_found"
}
