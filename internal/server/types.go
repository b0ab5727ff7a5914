package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/MeKo-Tech/codescan/internal/engine"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/render"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline       *pipeline.Pipeline
	engineConfig   engine.Config
	style          render.Style
	corsOrigin     string
	maxUploadMB    int64
	timeout        time.Duration
	overlayEnabled bool
	// availability is swapped in tests; it defaults to engine.Availability.
	availability func(engine.Config) []engine.Status
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	OverlayEnabled bool
	// Pipeline decodes every request. It should be built without an output
	// directory so requests never write artifacts.
	Pipeline *pipeline.Pipeline
	// EngineConfig is reported by /v1/engines.
	EngineConfig engine.Config
	Style        render.Style
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Engine  string `json:"engine,omitempty"`
	Time    string `json:"time"`
}

// EnginesResponse is returned by /v1/engines.
type EnginesResponse struct {
	Engines []engine.Status `json:"engines"`
	Count   int             `json:"count"`
}

// DecodeResponse wraps a single image scan.
type DecodeResponse struct {
	Success bool                 `json:"success"`
	Result  *pipeline.ScanResult `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// PDFDecodeResponse wraps a PDF scan.
type PDFDecodeResponse struct {
	Success bool                    `json:"success"`
	Result  *pipeline.PDFScanResult `json:"result,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a new decode server instance.
func NewServer(config Config) (*Server, error) {
	if config.Pipeline == nil {
		return nil, errors.New("server needs a pipeline")
	}
	maxUpload := config.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 50
	}
	timeout := time.Duration(config.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	style := config.Style
	if style.PolygonColor == nil {
		style = render.DefaultStyle()
	}

	return &Server{
		pipeline:       config.Pipeline,
		engineConfig:   config.EngineConfig,
		style:          style,
		corsOrigin:     config.CORSOrigin,
		maxUploadMB:    maxUpload,
		timeout:        timeout,
		overlayEnabled: config.OverlayEnabled,
		availability:   engine.Availability,
	}, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/v1/engines", s.corsMiddleware(s.enginesHandler))
	mux.HandleFunc("/v1/decode", s.corsMiddleware(s.decodeHandler))
	mux.HandleFunc("/v1/decode/pdf", s.corsMiddleware(s.decodePDFHandler))
	mux.HandleFunc("/v1/ws", s.corsMiddleware(s.decodeWebSocketHandler))
	mux.Handle("/metrics", metricsHandler())
}

// Handler returns a mux with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
