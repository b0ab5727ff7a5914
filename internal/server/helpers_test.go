package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/decode"
	"github.com/MeKo-Tech/codescan/internal/engine"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/testutil"
)

// fakeEngine answers the candidate at index hit with transcript and every
// other candidate with the no-symbol sentinel.
type fakeEngine struct {
	hit        int
	transcript string
	err        error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Decode(_ context.Context, c *decode.Candidate) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.transcript != "" && c.Index == f.hit {
		return f.transcript, nil
	}
	return "memory: " + decode.NoSymbolSentinel, nil
}

const pdf417Transcript = `memory:candidate (format: PDF_417, type: TEXT):
Raw result:
ID4455667 Name JOHNSmith Born 1990
Parsed result:
ID4455667 Name JOHNSmith Born 1990
Found 4 result points.
  Point 0: (10.0,10.0)
  Point 1: (50.0,10.0)
  Point 2: (50.0,40.0)
  Point 3: (10.0,40.0)
`

// decodedResult mirrors the JSON shape of pipeline.ScanResult for assertions.
type decodedResult struct {
	Source    string            `json:"source"`
	Engine    string            `json:"engine"`
	Found     bool              `json:"found"`
	Payload   string            `json:"payload"`
	Rotation  string            `json:"rotation"`
	Polygon   []decode.Point    `json:"polygon"`
	Extracted map[string]string `json:"extracted"`
	Attempts  []struct {
		Index    int    `json:"index"`
		Rotation string `json:"rotation"`
		Status   string `json:"status"`
	} `json:"attempts"`
}

func newTestServer(t *testing.T, eng decode.Engine, mutate func(*Config)) *Server {
	t.Helper()
	pl, err := pipeline.NewBuilder().WithEngine(eng).Build()
	require.NoError(t, err)

	cfg := Config{
		CORSOrigin:     "*",
		MaxUploadMB:    1,
		TimeoutSec:     5,
		OverlayEnabled: true,
		Pipeline:       pl,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewServer(cfg)
	require.NoError(t, err)
	s.availability = func(engine.Config) []engine.Status {
		return []engine.Status{
			{Name: engine.NameLocal, Available: true, Formats: []string{"QR_CODE"}},
			{Name: engine.NameCLI, Available: false, Reason: "no runner", Remedy: "install docker or java"},
		}
	}
	return s
}

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	return encodePNG(t, testutil.CreateTestImage(w, h, color.White))
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartRequest builds a POST with data in the given form field.
func multipartRequest(t *testing.T, target, field, filename string, data []byte, extra map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	for key, value := range extra {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
