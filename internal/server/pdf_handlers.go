package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/MeKo-Tech/codescan/internal/pdf"
)

// decodePDFHandler scans the embedded images of an uploaded PDF, page by
// page, and returns the first symbol found. Pages are limited with ?pages=1-3.
func (s *Server) decodePDFHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, name, ok := s.readUpload(w, r, "pdf")
	if !ok {
		decodeRequestsTotal.WithLabelValues("pdf", "error").Inc()
		return
	}

	// pdfcpu works on files, so the upload is spooled to disk first.
	tmp, err := os.CreateTemp(s.pipeline.Config().TempDir, "codescan-upload-*.pdf")
	if err != nil {
		decodeRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writeErrorResponse(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		decodeRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writeErrorResponse(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	if err := tmp.Close(); err != nil {
		decodeRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writeErrorResponse(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.pipeline.WithObserver(recordAttempt).ProcessPDF(ctx, tmp.Name(), requestValue(r, "pages"))
	decodeDuration.WithLabelValues("pdf").Observe(time.Since(start).Seconds())
	if err != nil {
		decodeRequestsTotal.WithLabelValues("pdf", "error").Inc()
		slog.Warn("PDF decode request failed", "source", name, "error", err)
		status := errorStatus(err)
		switch {
		case pdf.IsPasswordError(err):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, pdf.ErrInvalidPDF):
			status = http.StatusBadRequest
		}
		s.writeErrorResponse(w, fmt.Sprintf("PDF decode failed: %v", err), status)
		return
	}

	res.Filename = name
	if res.Result != nil {
		res.Result.Source = fmt.Sprintf("%s#page=%d", name, res.Result.Page)
		applyFields(res.Result, wantFields(r))
	}

	decodeRequestsTotal.WithLabelValues("pdf", decodeStatus(res.Found())).Inc()
	if res.Found() {
		payloadLength.Observe(float64(len(res.Result.Payload)))
	}
	writeJSON(w, http.StatusOK, PDFDecodeResponse{Success: true, Result: res})
}
