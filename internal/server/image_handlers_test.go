package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/decode"
	"github.com/MeKo-Tech/codescan/internal/engine"
	"github.com/MeKo-Tech/codescan/internal/testutil"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) decodedResult {
	t.Helper()
	var body struct {
		Success bool          `json:"success"`
		Result  decodedResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	require.True(t, body.Success)
	return body.Result
}

func TestDecodeHandler_Multipart(t *testing.T) {
	server := newTestServer(t, &fakeEngine{hit: 2, transcript: pdf417Transcript}, nil)

	req := multipartRequest(t, "/v1/decode", "image", "card.png", whitePNG(t, 80, 60), nil)
	w := httptest.NewRecorder()
	server.decodeHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	res := decodeBody(t, w)
	assert.True(t, res.Found)
	assert.Equal(t, "card.png", res.Source)
	assert.Equal(t, "ID4455667 Name JOHNSmith Born 1990", res.Payload)
	assert.Equal(t, "90ccw", res.Rotation)
	assert.Len(t, res.Polygon, 4)
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, "decoded", res.Attempts[2].Status)
	assert.Nil(t, res.Extracted, "fields are opt-in")
}

func TestDecodeHandler_RawBodyWithFields(t *testing.T) {
	server := newTestServer(t, &fakeEngine{transcript: pdf417Transcript}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/decode?fields=1", bytes.NewReader(whitePNG(t, 80, 60)))
	req.Header.Set("Content-Type", "image/png")
	w := httptest.NewRecorder()
	server.decodeHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeBody(t, w)
	assert.Equal(t, defaultUploadName, res.Source)
	assert.Equal(t, "0", res.Rotation)
	assert.Equal(t, "4455667", res.Extracted["identifier"])
	assert.Equal(t, "1990", res.Extracted["birth_year"])
	assert.Equal(t, "JOHNSmith", res.Extracted["name"])
}

func TestDecodeHandler_NotFound(t *testing.T) {
	server := newTestServer(t, &fakeEngine{}, nil)

	req := multipartRequest(t, "/v1/decode", "image", "blank.png", whitePNG(t, 20, 20), map[string]string{"fields": "true"})
	w := httptest.NewRecorder()
	server.decodeHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody(t, w)
	assert.False(t, res.Found)
	assert.Empty(t, res.Payload)
	assert.Len(t, res.Attempts, 4)
	assert.Nil(t, res.Extracted)
}

func TestDecodeHandler_Errors(t *testing.T) {
	tests := []struct {
		name    string
		engine  decode.Engine
		mutate  func(*Config)
		request func(t *testing.T) *http.Request
		status  int
		message string
	}{
		{
			name:   "method not allowed",
			engine: &fakeEngine{},
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/v1/decode", nil)
			},
			status: http.StatusMethodNotAllowed,
		},
		{
			name:   "missing image field",
			engine: &fakeEngine{},
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/v1/decode", "file", "x.png", whitePNG(t, 4, 4), nil)
			},
			status:  http.StatusBadRequest,
			message: "No image file provided",
		},
		{
			name:   "empty raw body",
			engine: &fakeEngine{},
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/v1/decode", http.NoBody)
			},
			status:  http.StatusBadRequest,
			message: "No image data provided",
		},
		{
			name:   "not an image",
			engine: &fakeEngine{},
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/v1/decode", bytes.NewReader([]byte("plain text")))
			},
			status:  http.StatusBadRequest,
			message: "Invalid image format",
		},
		{
			name:   "image below minimum size",
			engine: &fakeEngine{transcript: "Raw result:\nNEVER"},
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/v1/decode", bytes.NewReader(whitePNG(t, 8, 8)))
			},
			status:  http.StatusBadRequest,
			message: "image too small: 8x8",
		},
		{
			name:   "unsupported format",
			engine: &fakeEngine{},
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/v1/decode?format=csv", bytes.NewReader(whitePNG(t, 4, 4)))
			},
			status:  http.StatusBadRequest,
			message: "unsupported format",
		},
		{
			name:   "overlay disabled",
			engine: &fakeEngine{},
			mutate: func(c *Config) { c.OverlayEnabled = false },
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/v1/decode?format=overlay", bytes.NewReader(whitePNG(t, 4, 4)))
			},
			status:  http.StatusForbidden,
			message: "overlay output disabled",
		},
		{
			name:   "too large",
			engine: &fakeEngine{},
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/v1/decode", bytes.NewReader(make([]byte, 2*1024*1024)))
			},
			status:  http.StatusRequestEntityTooLarge,
			message: "File too large",
		},
		{
			name:   "engine unavailable",
			engine: &fakeEngine{err: &decode.EngineUnavailableError{Engine: "cli", Reason: "no docker"}},
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/v1/decode", bytes.NewReader(whitePNG(t, 40, 40)))
			},
			status:  http.StatusServiceUnavailable,
			message: "decode failed",
		},
		{
			name:   "every attempt errored",
			engine: &fakeEngine{err: &decode.EngineExecutionError{Engine: "cli", ExitCode: 3}},
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/v1/decode", bytes.NewReader(whitePNG(t, 40, 40)))
			},
			status:  http.StatusInternalServerError,
			message: "decode failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.engine, tt.mutate)
			w := httptest.NewRecorder()
			server.decodeHandler(w, tt.request(t))

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.message != "" {
				var response ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.False(t, response.Success)
				assert.Contains(t, response.Error, tt.message)
			}
		})
	}
}

func TestDecodeHandler_Overlay(t *testing.T) {
	server := newTestServer(t, &fakeEngine{transcript: pdf417Transcript}, nil)
	original := whitePNG(t, 80, 60)

	req := httptest.NewRequest(http.MethodPost, "/v1/decode?format=overlay&poly=0000FF", bytes.NewReader(original))
	w := httptest.NewRecorder()
	server.decodeHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "true", w.Header().Get("X-Codescan-Found"))
	assert.Equal(t, "0", w.Header().Get("X-Codescan-Rotation"))

	overlay, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 80, overlay.Bounds().Dx())
	assert.Equal(t, 60, overlay.Bounds().Dy())

	plain, err := png.Decode(bytes.NewReader(original))
	require.NoError(t, err)
	assert.False(t, testutil.CompareImages(plain, overlay, 0), "polygon must be drawn")
}

func TestDecodeHandler_OverlayJPEG(t *testing.T) {
	server := newTestServer(t, &fakeEngine{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/decode?format=overlay&image_format=jpeg", bytes.NewReader(whitePNG(t, 16, 16)))
	w := httptest.NewRecorder()
	server.decodeHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "false", w.Header().Get("X-Codescan-Found"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestDecodeHandler_LocalEngineQR(t *testing.T) {
	eng, err := engine.NewLocal(engine.Config{Formats: []barcode.Format{barcode.FormatQR}, TryHarder: true})
	require.NoError(t, err)
	server := newTestServer(t, eng, nil)

	req := multipartRequest(t, "/v1/decode", "image", "qr.png", encodePNG(t, testutil.QRCode(t, "server-77")), nil)
	w := httptest.NewRecorder()
	server.decodeHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeBody(t, w)
	assert.True(t, res.Found)
	assert.Equal(t, "server-77", res.Payload)
	assert.Equal(t, "local", res.Engine)
}

func TestWantFields(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{query: "", want: false},
		{query: "fields=1", want: true},
		{query: "fields=true", want: true},
		{query: "fields=0", want: false},
		{query: "fields=yes", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/decode?"+tt.query, nil)
			assert.Equal(t, tt.want, wantFields(req))
		})
	}
}
