package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/codescan/internal/decode"
	"github.com/MeKo-Tech/codescan/internal/fields"
	"github.com/MeKo-Tech/codescan/internal/render"
	"github.com/MeKo-Tech/codescan/internal/utils"
)

// ScanResult is the outcome of scanning one image.
type ScanResult struct {
	Source    string            `json:"source,omitempty"    yaml:"source,omitempty"`
	Engine    string            `json:"engine"              yaml:"engine"`
	Found     bool              `json:"found"               yaml:"found"`
	Payload   string            `json:"payload"             yaml:"payload"`
	Polygon   []decode.Point    `json:"polygon,omitempty"   yaml:"polygon,omitempty"`
	Rotation  decode.Rotation   `json:"rotation"            yaml:"rotation"`
	Fields    map[string]string `json:"fields,omitempty"    yaml:"fields,omitempty"`
	Extracted *fields.Fields    `json:"extracted,omitempty" yaml:"extracted,omitempty"`
	Attempts  []decode.Attempt  `json:"attempts"            yaml:"attempts"`
	Width     int               `json:"width"               yaml:"width"`
	Height    int               `json:"height"              yaml:"height"`
	// Page is the 1-based PDF page the image came from, zero for plain images.
	Page         int    `json:"page,omitempty"       yaml:"page,omitempty"`
	TextPath     string `json:"text_path,omitempty"  yaml:"text_path,omitempty"`
	ImagePath    string `json:"image_path,omitempty" yaml:"image_path,omitempty"`
	ProcessingMs int64  `json:"processing_ms"        yaml:"processing_ms"`
}

// HasPolygon reports whether the result carries a drawable polygon.
func (r *ScanResult) HasPolygon() bool {
	return decode.Result{Polygon: r.Polygon}.HasPolygon()
}

// ProcessFile loads the image at path and scans it. Load failures are
// returned as *utils.ImageLoadError.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*ScanResult, error) {
	img, meta, err := utils.LoadImage(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded image", "path", path, "format", meta.Format, "width", meta.Width, "height", meta.Height)
	return p.ProcessImage(ctx, img, path)
}

// ProcessReader decodes an image from r and scans it. name labels the
// result only; it is never opened as a file. Images outside
// utils.DefaultImageConstraints are rejected.
func (p *Pipeline) ProcessReader(ctx context.Context, r io.Reader, name string) (*ScanResult, error) {
	img, _, err := utils.DecodeUpload(r)
	if err != nil {
		return nil, err
	}
	res, err := p.ProcessImage(ctx, img, "")
	if err != nil {
		return nil, err
	}
	res.Source = name
	return res, nil
}

// ProcessImage runs the orientation fallback on img. When a symbol is found
// it extracts fields (if enabled) and writes artifacts (if an output dir is
// set). source is the file img was loaded from, or empty.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image, source string) (*ScanResult, error) {
	if p == nil || p.controller == nil {
		return nil, errors.New("pipeline not initialized")
	}
	start := time.Now()

	out, err := p.controller.Decode(ctx, img, source)
	if err != nil {
		return nil, err
	}

	res := &ScanResult{
		Source:   source,
		Engine:   p.engine.Name(),
		Found:    out.Found,
		Payload:  out.Payload,
		Polygon:  out.Polygon,
		Rotation: out.Rotation,
		Fields:   out.Fields,
		Attempts: out.Attempts,
		Width:    out.Width,
		Height:   out.Height,
	}

	if res.Found {
		if p.cfg.Fields {
			f := fields.Extract(res.Payload)
			res.Extracted = &f
		}
		if err := p.writeArtifacts(img, res); err != nil {
			return nil, err
		}
	}

	res.ProcessingMs = time.Since(start).Milliseconds()
	slog.Info("Scan finished", "source", source, "engine", res.Engine, "found", res.Found,
		"rotation", res.Rotation.String(), "attempts", len(res.Attempts), "ms", res.ProcessingMs)
	return res, nil
}

// writeArtifacts persists the payload text and the annotated frame. The text
// file needs a non-empty payload; the image needs at least four vertices.
func (p *Pipeline) writeArtifacts(img image.Image, res *ScanResult) error {
	if p.cfg.OutputDir == "" {
		return nil
	}
	textPath, imagePath := render.ArtifactPaths(p.cfg.OutputDir, p.cfg.OutputName, p.cfg.ImageFormat)

	if res.Payload != "" {
		if err := render.WriteText(textPath, res.Payload); err != nil {
			return fmt.Errorf("write decoded text: %w", err)
		}
		res.TextPath = textPath
	}

	if p.cfg.Annotate && res.HasPolygon() {
		annotated := RenderOverlay(img, res, p.cfg.Style)
		if err := render.SaveImage(annotated, imagePath, p.cfg.Style.Quality); err != nil {
			return fmt.Errorf("write annotated image: %w", err)
		}
		res.ImagePath = imagePath
	} else if p.cfg.Annotate {
		slog.Debug("No polygon, skipping annotated image", "source", res.Source)
	}
	return nil
}
