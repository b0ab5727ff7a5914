package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/codescan/internal/decode"
	"github.com/MeKo-Tech/codescan/internal/pdf"
	"github.com/MeKo-Tech/codescan/internal/render"
)

// DefaultOutputName is used for artifact names when none is configured.
const DefaultOutputName = "code"

// Config holds configuration for the scan pipeline.
type Config struct {
	// OutputDir receives decoded_<name>.txt and annotated_<name>.<ext>.
	// Empty disables artifact writing.
	OutputDir   string
	OutputName  string
	ImageFormat string
	Fields      bool
	Annotate    bool
	Style       render.Style
	// TempDir is the parent of per-call candidate workspaces. Empty means os.TempDir.
	TempDir     string
	Credentials *pdf.PasswordCredentials
}

// DefaultConfig returns the default pipeline config.
func DefaultConfig() Config {
	return Config{
		OutputName:  DefaultOutputName,
		ImageFormat: "png",
		Annotate:    true,
		Style:       render.DefaultStyle(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg      Config
	engine   decode.Engine
	observer decode.Observer
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithEngine sets the decoder engine driven by the fallback controller.
func (b *Builder) WithEngine(e decode.Engine) *Builder {
	b.engine = e
	return b
}

// WithOutputDir sets the artifact directory. Empty disables artifacts.
func (b *Builder) WithOutputDir(dir string) *Builder {
	b.cfg.OutputDir = dir
	return b
}

// WithOutputName sets the <name> part of artifact file names.
func (b *Builder) WithOutputName(name string) *Builder {
	if name != "" {
		b.cfg.OutputName = name
	}
	return b
}

// WithImageFormat sets the annotated image format (png, jpg or webp).
func (b *Builder) WithImageFormat(format string) *Builder {
	if format != "" {
		b.cfg.ImageFormat = strings.ToLower(strings.TrimPrefix(format, "."))
	}
	return b
}

// WithFields enables heuristic field extraction on found payloads.
func (b *Builder) WithFields(enabled bool) *Builder {
	b.cfg.Fields = enabled
	return b
}

// WithAnnotate toggles writing the annotated image artifact.
func (b *Builder) WithAnnotate(enabled bool) *Builder {
	b.cfg.Annotate = enabled
	return b
}

// WithStyle sets colours, line width and encoder quality for annotations.
func (b *Builder) WithStyle(st render.Style) *Builder {
	b.cfg.Style = st
	return b
}

// WithObserver registers a callback notified after every candidate attempt.
func (b *Builder) WithObserver(fn decode.Observer) *Builder {
	b.observer = fn
	return b
}

// WithTempDir sets the parent directory for candidate workspaces.
func (b *Builder) WithTempDir(dir string) *Builder {
	b.cfg.TempDir = dir
	return b
}

// WithPDFCredentials sets passwords used to open encrypted PDFs.
func (b *Builder) WithPDFCredentials(creds *pdf.PasswordCredentials) *Builder {
	b.cfg.Credentials = creds
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the configuration looks sane.
func (b *Builder) Validate() error {
	if b.engine == nil {
		return errors.New("no decoder engine configured")
	}
	if strings.TrimSpace(b.cfg.OutputName) == "" {
		return errors.New("output name is empty")
	}
	if strings.ContainsAny(b.cfg.OutputName, `/\`) {
		return fmt.Errorf("output name %q must not contain path separators", b.cfg.OutputName)
	}
	if b.cfg.ImageFormat != "jpeg" && !slices.Contains(render.ImageFormats, b.cfg.ImageFormat) {
		return fmt.Errorf("unsupported image format %q (use one of %s)",
			b.cfg.ImageFormat, strings.Join(render.ImageFormats, ", "))
	}
	return nil
}

// Pipeline wires image loading, the fallback controller, field extraction
// and artifact rendering together. It holds no per-run state.
type Pipeline struct {
	cfg        Config
	engine     decode.Engine
	controller *decode.Controller
}

// Build validates the configuration and returns a ready Pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: b.cfg, engine: b.engine}
	p.controller = p.newController(b.observer)
	return p, nil
}

func (p *Pipeline) newController(obs decode.Observer) *decode.Controller {
	opts := []decode.Option{decode.WithTempDir(p.cfg.TempDir)}
	if obs != nil {
		opts = append(opts, decode.WithObserver(obs))
	}
	return decode.NewController(p.engine, opts...)
}

// WithObserver returns a copy of p that reports attempts to fn. The
// receiver is not modified.
func (p *Pipeline) WithObserver(fn decode.Observer) *Pipeline {
	cp := *p
	cp.controller = cp.newController(fn)
	return &cp
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Engine returns the decoder engine in use.
func (p *Pipeline) Engine() decode.Engine { return p.engine }

// Info returns a map with key pipeline properties.
func (p *Pipeline) Info() map[string]any {
	return map[string]any{
		"engine":       p.engine.Name(),
		"output_dir":   p.cfg.OutputDir,
		"output_name":  p.cfg.OutputName,
		"image_format": render.NormalizeFormat(p.cfg.ImageFormat),
		"fields":       p.cfg.Fields,
		"annotate":     p.cfg.Annotate,
	}
}
