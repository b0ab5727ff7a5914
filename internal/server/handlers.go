package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/codescan/internal/decode"
	"github.com/MeKo-Tech/codescan/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if s.pipeline != nil {
		response.Engine = s.pipeline.Engine().Name()
	}
	writeJSON(w, http.StatusOK, response)
}

// enginesHandler reports the availability of every engine.
func (s *Server) enginesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	availability := s.availability
	if availability == nil {
		s.writeErrorResponse(w, "engine availability check not configured", http.StatusServiceUnavailable)
		return
	}
	statuses := availability(s.engineConfig)
	writeJSON(w, http.StatusOK, EnginesResponse{Engines: statuses, Count: len(statuses)})
}

// errorStatus maps a decode failure to an HTTP status code.
func errorStatus(err error) int {
	var unavailable *decode.EngineUnavailableError
	switch {
	case errors.Is(err, decode.ErrImageLoad):
		return http.StatusBadRequest
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}
