//nolint:lll
package config

import "time"

// Config represents the complete configuration for codescan. It covers every
// command (image, pdf, transcript, engines, serve) and is loaded from
// configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	// TempDir is the parent directory for per-scan candidate workspaces.
	TempDir string `mapstructure:"temp_dir" yaml:"temp_dir" json:"temp_dir"`

	// Decoder engine configuration
	Engine EngineConfig `mapstructure:"engine" yaml:"engine" json:"engine"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// PDF input configuration
	PDF PDFConfig `mapstructure:"pdf" yaml:"pdf" json:"pdf"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// EngineConfig selects and tunes the decoder engine.
type EngineConfig struct {
	Name      string   `mapstructure:"name" yaml:"name" json:"name"`
	Formats   []string `mapstructure:"formats" yaml:"formats" json:"formats"`
	TryHarder bool     `mapstructure:"try_harder" yaml:"try_harder" json:"try_harder"`

	// ZXing CLI settings
	JarDir      string        `mapstructure:"jar_dir" yaml:"jar_dir" json:"jar_dir"`
	Jars        []string      `mapstructure:"jars" yaml:"jars" json:"jars"`
	UseDocker   bool          `mapstructure:"use_docker" yaml:"use_docker" json:"use_docker"`
	DockerImage string        `mapstructure:"docker_image" yaml:"docker_image" json:"docker_image"`
	JavaBin     string        `mapstructure:"java_bin" yaml:"java_bin" json:"java_bin"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// OutputConfig contains artifact and result formatting settings.
type OutputConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Name        string `mapstructure:"name" yaml:"name" json:"name"`
	ImageFormat string `mapstructure:"image_format" yaml:"image_format" json:"image_format"`
	Annotate    bool   `mapstructure:"annotate" yaml:"annotate" json:"annotate"`
	Fields      bool   `mapstructure:"fields" yaml:"fields" json:"fields"`
	Format      string `mapstructure:"format" yaml:"format" json:"format"`
	Progress    bool   `mapstructure:"progress" yaml:"progress" json:"progress"`

	PolygonColor string `mapstructure:"polygon_color" yaml:"polygon_color" json:"polygon_color"`
	LabelColor   string `mapstructure:"label_color" yaml:"label_color" json:"label_color"`
	LineWidth    int    `mapstructure:"line_width" yaml:"line_width" json:"line_width"`
	Quality      int    `mapstructure:"quality" yaml:"quality" json:"quality"`
}

// PDFConfig contains PDF input settings.
type PDFConfig struct {
	Pages         string `mapstructure:"pages" yaml:"pages" json:"pages"`
	UserPassword  string `mapstructure:"user_password" yaml:"user_password" json:"-"`
	OwnerPassword string `mapstructure:"owner_password" yaml:"owner_password" json:"-"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	OverlayEnabled  bool   `mapstructure:"overlay_enabled" yaml:"overlay_enabled" json:"overlay_enabled"`
}
