package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "codescan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "CODESCAN"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader on the global viper instance,
// so that flags bound by the root command are honoured.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader on an isolated viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load loads configuration from files, environment variables, and defaults,
// then validates it.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.LoadWithoutValidation()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithoutValidation loads configuration from the search paths without
// validating it.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars still apply.
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	cfg, err := l.LoadWithFileWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFileWithoutValidation loads configuration from a specific file path without validation.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	if configFile == "" {
		return l.LoadWithoutValidation()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Get returns a value from the configuration.
func (l *Loader) Get(key string) any {
	return l.v.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// engine.try_harder -> CODESCAN_ENGINE_TRY_HARDER
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options. Every key
// needs a default so AutomaticEnv can find it during Unmarshal.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("log_format", defaults.LogFormat)
	l.v.SetDefault("verbose", defaults.Verbose)
	l.v.SetDefault("temp_dir", defaults.TempDir)

	l.v.SetDefault("engine.name", defaults.Engine.Name)
	l.v.SetDefault("engine.formats", defaults.Engine.Formats)
	l.v.SetDefault("engine.try_harder", defaults.Engine.TryHarder)
	l.v.SetDefault("engine.jar_dir", defaults.Engine.JarDir)
	l.v.SetDefault("engine.jars", defaults.Engine.Jars)
	l.v.SetDefault("engine.use_docker", defaults.Engine.UseDocker)
	l.v.SetDefault("engine.docker_image", defaults.Engine.DockerImage)
	l.v.SetDefault("engine.java_bin", defaults.Engine.JavaBin)
	l.v.SetDefault("engine.timeout", defaults.Engine.Timeout)

	l.v.SetDefault("output.dir", defaults.Output.Dir)
	l.v.SetDefault("output.name", defaults.Output.Name)
	l.v.SetDefault("output.image_format", defaults.Output.ImageFormat)
	l.v.SetDefault("output.annotate", defaults.Output.Annotate)
	l.v.SetDefault("output.fields", defaults.Output.Fields)
	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.progress", defaults.Output.Progress)
	l.v.SetDefault("output.polygon_color", defaults.Output.PolygonColor)
	l.v.SetDefault("output.label_color", defaults.Output.LabelColor)
	l.v.SetDefault("output.line_width", defaults.Output.LineWidth)
	l.v.SetDefault("output.quality", defaults.Output.Quality)

	l.v.SetDefault("pdf.pages", defaults.PDF.Pages)
	l.v.SetDefault("pdf.user_password", defaults.PDF.UserPassword)
	l.v.SetDefault("pdf.owner_password", defaults.PDF.OwnerPassword)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
	l.v.SetDefault("server.overlay_enabled", defaults.Server.OverlayEnabled)
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// GenerateDefaultConfigFile writes the default configuration as YAML.
// Existing files are not overwritten unless force is set.
func GenerateDefaultConfigFile(filename string, force bool) (string, error) {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	if _, err := os.Stat(filename); err == nil && !force {
		return "", fmt.Errorf("config file already exists: %s (use --force to overwrite)", filename)
	}

	data, err := MarshalYAML(DefaultConfig())
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	return filename, nil
}

// MarshalYAML renders cfg with a short header comment.
func MarshalYAML(cfg Config) ([]byte, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	header := "# codescan configuration\n# Environment variables override file values, e.g. " + EnvPrefix + "_ENGINE_NAME=cli\n"
	return append([]byte(header), body...), nil
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "codescan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "codescan"))
	}

	paths = append(paths, "/etc/codescan")

	return paths
}
