package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/codescan/internal/fields"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/render"
	"github.com/MeKo-Tech/codescan/internal/utils"
)

const (
	formatJSON    = "json"
	formatOverlay = "overlay"

	defaultUploadName = "upload"
)

// decodeHandler scans one uploaded image. The image comes from the multipart
// field "image" or, for any other content type, the raw request body.
func (s *Server) decodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, name, ok := s.readUpload(w, r, "image")
	if !ok {
		decodeRequestsTotal.WithLabelValues("image", "error").Inc()
		return
	}

	format := strings.ToLower(requestValue(r, "format"))
	if format == "" {
		format = formatJSON
	}
	if format != formatJSON && format != formatOverlay {
		decodeRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("unsupported format %q (use json or overlay)", format), http.StatusBadRequest)
		return
	}
	if format == formatOverlay && !s.overlayEnabled {
		decodeRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, "overlay output disabled", http.StatusForbidden)
		return
	}

	img, _, err := utils.DecodeUpload(bytes.NewReader(data))
	if err != nil {
		decodeRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, uploadErrorMessage(err), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.pipeline.WithObserver(recordAttempt).ProcessImage(ctx, img, "")
	decodeDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	if err != nil {
		decodeRequestsTotal.WithLabelValues("image", "error").Inc()
		slog.Warn("Decode request failed", "source", name, "error", err)
		s.writeErrorResponse(w, fmt.Sprintf("decode failed: %v", err), errorStatus(err))
		return
	}
	res.Source = name
	applyFields(res, wantFields(r))

	decodeRequestsTotal.WithLabelValues("image", decodeStatus(res.Found)).Inc()
	if res.Found {
		payloadLength.Observe(float64(len(res.Payload)))
	}

	if format == formatOverlay {
		s.writeOverlay(w, r, img, res)
		return
	}
	writeJSON(w, http.StatusOK, DecodeResponse{Success: true, Result: res})
}

// uploadErrorMessage names the constraint an image broke, or reports an
// undecodable body.
func uploadErrorMessage(err error) string {
	var pe *utils.ImageProcessingError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return "Invalid image format"
}

// readUpload returns the request payload. Errors are written to w.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, bool) {
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var (
		data []byte
		name = defaultUploadName
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err = r.ParseMultipartForm(limit); err != nil {
			s.handleFormParseError(w, err)
			return nil, "", false
		}
		file, header, ferr := r.FormFile(field)
		if ferr != nil {
			s.writeErrorResponse(w, fmt.Sprintf("No %s file provided", field), http.StatusBadRequest)
			return nil, "", false
		}
		defer func() { _ = file.Close() }()
		if header.Filename != "" {
			name = header.Filename
		}
		data, err = io.ReadAll(file)
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		s.handleFormParseError(w, err)
		return nil, "", false
	}
	if len(data) == 0 {
		s.writeErrorResponse(w, fmt.Sprintf("No %s data provided", field), http.StatusBadRequest)
		return nil, "", false
	}

	uploadSizeBytes.Observe(float64(len(data)))
	return data, name, true
}

func (s *Server) handleFormParseError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	s.writeErrorResponse(w, "Failed to parse request body", http.StatusBadRequest)
}

// writeOverlay renders the polygon and payload onto img. The polygon colour
// can be overridden with ?poly=RRGGBB and the label colour with ?label=RRGGBB;
// ?image_format selects png (default), jpg or webp.
func (s *Server) writeOverlay(w http.ResponseWriter, r *http.Request, img image.Image, res *pipeline.ScanResult) {
	st := s.style
	if c, err := render.ParseHexColor(requestValue(r, "poly")); err == nil && c != nil {
		st.PolygonColor = c
	}
	if c, err := render.ParseHexColor(requestValue(r, "label")); err == nil && c != nil {
		st.LabelColor = c
	}

	ov := pipeline.RenderOverlay(img, res, st)
	if ov == nil {
		s.writeErrorResponse(w, "overlay failed", http.StatusInternalServerError)
		return
	}

	imageFormat := render.NormalizeFormat(requestValue(r, "image_format"))
	var buf bytes.Buffer
	if err := render.EncodeImage(&buf, ov, imageFormat, st.Quality); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("overlay encoding failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", render.ContentType(imageFormat))
	w.Header().Set("X-Codescan-Found", strconv.FormatBool(res.Found))
	if res.Found {
		w.Header().Set("X-Codescan-Rotation", res.Rotation.String())
	}
	_, _ = w.Write(buf.Bytes())
}

// requestValue reads a query parameter, falling back to multipart fields.
func requestValue(r *http.Request, key string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	if r.MultipartForm != nil {
		if vs := r.MultipartForm.Value[key]; len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

func wantFields(r *http.Request) bool {
	v, err := strconv.ParseBool(requestValue(r, "fields"))
	return err == nil && v
}

// applyFields attaches extracted fields when the request asked for them and
// the pipeline did not already extract them.
func applyFields(res *pipeline.ScanResult, want bool) {
	if !want || res == nil || !res.Found || res.Extracted != nil {
		return
	}
	f := fields.Extract(res.Payload)
	res.Extracted = &f
}
