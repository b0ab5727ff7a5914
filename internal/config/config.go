package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/engine"
	"github.com/MeKo-Tech/codescan/internal/pdf"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/render"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	eng := engine.DefaultConfig()
	style := render.DefaultStyle()
	return Config{
		LogLevel:  "info",
		LogFormat: "json",
		Verbose:   false,
		Engine: EngineConfig{
			Name:        eng.Name,
			Formats:     []string{},
			TryHarder:   eng.TryHarder,
			JarDir:      eng.JarDir,
			Jars:        append([]string(nil), eng.Jars...),
			UseDocker:   eng.UseDocker,
			DockerImage: eng.DockerImage,
			JavaBin:     eng.JavaBin,
			Timeout:     eng.Timeout,
		},
		Output: OutputConfig{
			Dir:          ".",
			Name:         pipeline.DefaultOutputName,
			ImageFormat:  "png",
			Annotate:     true,
			Fields:       false,
			Format:       "text",
			PolygonColor: "#00FF00",
			LabelColor:   "#FF0000",
			LineWidth:    style.LineWidth,
			Quality:      style.Quality,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			OverlayEnabled:  true,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	validLogFormats := []string{"json", "text"}
	if c.LogFormat != "" && !contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.LogFormat, strings.Join(validLogFormats, ", "))
	}

	validEngines := []string{engine.NameAuto, engine.NameLocal, engine.NameCLI}
	if !contains(validEngines, strings.ToLower(c.Engine.Name)) {
		return fmt.Errorf("invalid engine: %s (must be one of: %s)", c.Engine.Name, strings.Join(validEngines, ", "))
	}
	if _, err := barcode.ParseFormats(c.Engine.Formats); err != nil {
		return fmt.Errorf("invalid engine formats: %w", err)
	}
	if c.Engine.Timeout < 0 {
		return fmt.Errorf("invalid engine timeout: %s (must not be negative)", c.Engine.Timeout)
	}

	if c.Output.Format != "" && !contains(pipeline.OutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(pipeline.OutputFormats, ", "))
	}
	validImageFormats := append([]string{"jpeg"}, render.ImageFormats...)
	if c.Output.ImageFormat != "" && !contains(validImageFormats, strings.ToLower(c.Output.ImageFormat)) {
		return fmt.Errorf("invalid image format: %s (must be one of: %s)", c.Output.ImageFormat, strings.Join(render.ImageFormats, ", "))
	}
	if strings.ContainsAny(c.Output.Name, `/\`) {
		return fmt.Errorf("invalid output name: %s (must not contain path separators)", c.Output.Name)
	}
	if c.Output.Quality < 0 || c.Output.Quality > 100 {
		return fmt.Errorf("invalid output quality: %d (must be between 0 and 100)", c.Output.Quality)
	}
	if _, err := c.ToStyle(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}

	return nil
}

// ToEngineConfig converts the engine section to engine.Config.
func (c *Config) ToEngineConfig() (engine.Config, error) {
	formats, err := barcode.ParseFormats(c.Engine.Formats)
	if err != nil {
		return engine.Config{}, err
	}
	cfg := engine.DefaultConfig()
	cfg.Name = strings.ToLower(c.Engine.Name)
	cfg.Formats = formats
	cfg.TryHarder = c.Engine.TryHarder
	cfg.UseDocker = c.Engine.UseDocker
	if c.Engine.JarDir != "" {
		cfg.JarDir = c.Engine.JarDir
	}
	if len(c.Engine.Jars) > 0 {
		cfg.Jars = c.Engine.Jars
	}
	if c.Engine.DockerImage != "" {
		cfg.DockerImage = c.Engine.DockerImage
	}
	if c.Engine.JavaBin != "" {
		cfg.JavaBin = c.Engine.JavaBin
	}
	if c.Engine.Timeout > 0 {
		cfg.Timeout = c.Engine.Timeout
	}
	return cfg, nil
}

// ToStyle converts the output colours and encoder settings to render.Style.
func (c *Config) ToStyle() (render.Style, error) {
	st, err := render.NewStyle(c.Output.PolygonColor, c.Output.LabelColor, c.Output.LineWidth, c.Output.Quality)
	if err != nil {
		return render.Style{}, fmt.Errorf("invalid output colors: %w", err)
	}
	return st, nil
}

// ToPDFCredentials returns the configured PDF passwords, or nil when unset.
func (c *Config) ToPDFCredentials() *pdf.PasswordCredentials {
	if c.PDF.UserPassword == "" && c.PDF.OwnerPassword == "" {
		return nil
	}
	return &pdf.PasswordCredentials{UserPassword: c.PDF.UserPassword, OwnerPassword: c.PDF.OwnerPassword}
}

// ToPipelineBuilder returns a pipeline builder carrying the output settings.
// The caller still has to supply the engine.
func (c *Config) ToPipelineBuilder() (*pipeline.Builder, error) {
	st, err := c.ToStyle()
	if err != nil {
		return nil, err
	}
	return pipeline.NewBuilder().
		WithOutputDir(c.Output.Dir).
		WithOutputName(c.Output.Name).
		WithImageFormat(c.Output.ImageFormat).
		WithFields(c.Output.Fields).
		WithAnnotate(c.Output.Annotate).
		WithStyle(st).
		WithTempDir(c.TempDir).
		WithPDFCredentials(c.ToPDFCredentials()), nil
}

// Helper functions

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
