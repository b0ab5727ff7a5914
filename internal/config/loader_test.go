package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

const (
	infoLevel  = "info"
	debugLevel = "debug"
)

// clearCodescanEnvVars unsets every CODESCAN_ variable for the duration of the test.
func clearCodescanEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			name, _, _ := strings.Cut(env, "=")
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
}

func newTestLoader() *Loader { return NewLoaderWithViper(viper.New()) }

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codescan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// TestNewLoader tests loader creation.
func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.GetViper() != viper.GetViper() {
		t.Error("NewLoader() should use the global viper instance")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	clearCodescanEnvVars(t)
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Engine.Name != "auto" {
		t.Errorf("Expected default engine 'auto', got %s", cfg.Engine.Name)
	}
	if cfg.Engine.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %s", cfg.Engine.Timeout)
	}
	if cfg.Output.Name != "code" {
		t.Errorf("Expected default output name 'code', got %s", cfg.Output.Name)
	}
}

// TestLoadFindsFileInWorkingDirectory tests the search path lookup.
func TestLoadFindsFileInWorkingDirectory(t *testing.T) {
	clearCodescanEnvVars(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "codescan.yaml"), []byte("log_level: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	loader := newTestLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level 'warn', got %s", cfg.LogLevel)
	}
	if !strings.HasSuffix(loader.GetConfigFileUsed(), "codescan.yaml") {
		t.Errorf("Unexpected config file used: %s", loader.GetConfigFileUsed())
	}
}

// TestLoadWithValidYAMLFile tests loading from a valid YAML file.
func TestLoadWithValidYAMLFile(t *testing.T) {
	clearCodescanEnvVars(t)
	configFile := writeConfig(t, `
log_level: debug
verbose: true
engine:
  name: cli
  formats: [aztec, datamatrix]
  try_harder: false
  jar_dir: /opt/zxing
  use_docker: false
  timeout: 45s
output:
  dir: /tmp/out
  name: aztec
  image_format: webp
  fields: true
server:
  host: 0.0.0.0
  port: 9090
`)

	cfg, err := newTestLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected log level '%s', got %s", debugLevel, cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose to be true")
	}
	if cfg.Engine.Name != "cli" {
		t.Errorf("Expected engine 'cli', got %s", cfg.Engine.Name)
	}
	if len(cfg.Engine.Formats) != 2 || cfg.Engine.Formats[0] != "aztec" {
		t.Errorf("Unexpected formats: %v", cfg.Engine.Formats)
	}
	if cfg.Engine.TryHarder {
		t.Error("Expected try_harder to be false")
	}
	if cfg.Engine.JarDir != "/opt/zxing" {
		t.Errorf("Expected jar dir '/opt/zxing', got %s", cfg.Engine.JarDir)
	}
	if cfg.Engine.Timeout != 45*time.Second {
		t.Errorf("Expected timeout 45s, got %s", cfg.Engine.Timeout)
	}
	if cfg.Output.ImageFormat != "webp" || cfg.Output.Name != "aztec" || !cfg.Output.Fields {
		t.Errorf("Unexpected output config: %+v", cfg.Output)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("Unexpected server config: %+v", cfg.Server)
	}
	// Untouched keys keep their defaults.
	if cfg.Engine.DockerImage != "openjdk:17" {
		t.Errorf("Expected default docker image, got %s", cfg.Engine.DockerImage)
	}
}

// TestLoadWithInvalidYAMLFile tests loading from an invalid YAML file.
func TestLoadWithInvalidYAMLFile(t *testing.T) {
	configFile := writeConfig(t, `
log_level: debug
  invalid indentation
    more bad indentation
`)

	if _, err := newTestLoader().LoadWithFile(configFile); err == nil {
		t.Error("LoadWithFile() expected error for invalid YAML, got nil")
	}
}

// TestLoadWithNonExistentFile tests loading from a non-existent file.
func TestLoadWithNonExistentFile(t *testing.T) {
	_, err := newTestLoader().LoadWithFile("/nonexistent/path/to/config.yaml")
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("LoadWithFile() expected missing file error, got %v", err)
	}
}

// TestLoadWithValidationFailure tests loading with validation failure.
func TestLoadWithValidationFailure(t *testing.T) {
	clearCodescanEnvVars(t)
	configFile := writeConfig(t, "log_level: invalid_level\nserver:\n  port: 0\n")

	_, err := newTestLoader().LoadWithFile(configFile)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("LoadWithFile() expected validation error, got %v", err)
	}
}

// TestLoadWithoutValidation tests loading without validation.
func TestLoadWithoutValidation(t *testing.T) {
	clearCodescanEnvVars(t)
	configFile := writeConfig(t, "log_level: invalid_level\nengine:\n  name: nope\n")

	cfg, err := newTestLoader().LoadWithFileWithoutValidation(configFile)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.LogLevel != "invalid_level" || cfg.Engine.Name != "nope" {
		t.Errorf("Expected raw values to survive, got %+v", cfg)
	}
}

// TestEnvironmentVariables tests CODESCAN_ overrides on top of a file.
func TestEnvironmentVariables(t *testing.T) {
	clearCodescanEnvVars(t)
	configFile := writeConfig(t, "log_level: debug\nengine:\n  name: local\n")

	t.Setenv("CODESCAN_LOG_LEVEL", "error")
	t.Setenv("CODESCAN_ENGINE_NAME", "cli")
	t.Setenv("CODESCAN_ENGINE_USE_DOCKER", "false")
	t.Setenv("CODESCAN_ENGINE_TIMEOUT", "5s")
	t.Setenv("CODESCAN_OUTPUT_IMAGE_FORMAT", "jpg")
	t.Setenv("CODESCAN_SERVER_PORT", "7070")

	cfg, err := newTestLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("Expected env log level 'error', got %s", cfg.LogLevel)
	}
	if cfg.Engine.Name != "cli" {
		t.Errorf("Expected env engine 'cli', got %s", cfg.Engine.Name)
	}
	if cfg.Engine.UseDocker {
		t.Error("Expected use_docker false from env")
	}
	if cfg.Engine.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %s", cfg.Engine.Timeout)
	}
	if cfg.Output.ImageFormat != "jpg" {
		t.Errorf("Expected image format 'jpg', got %s", cfg.Output.ImageFormat)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected port 7070, got %d", cfg.Server.Port)
	}
}

// TestGenerateDefaultConfigFile tests that the generated file loads back.
func TestGenerateDefaultConfigFile(t *testing.T) {
	clearCodescanEnvVars(t)
	path := filepath.Join(t.TempDir(), "conf", "codescan.yaml")

	written, err := GenerateDefaultConfigFile(path, false)
	if err != nil {
		t.Fatalf("GenerateDefaultConfigFile() unexpected error: %v", err)
	}
	if written != path {
		t.Errorf("Expected %s, got %s", path, written)
	}

	if _, err := GenerateDefaultConfigFile(path, false); err == nil {
		t.Error("Expected error when file exists without force")
	}
	if _, err := GenerateDefaultConfigFile(path, true); err != nil {
		t.Errorf("Expected overwrite with force, got %v", err)
	}

	cfg, err := newTestLoader().LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile(generated) unexpected error: %v", err)
	}
	def := DefaultConfig()
	if cfg.Engine.Timeout != def.Engine.Timeout || cfg.Output.Quality != def.Output.Quality {
		t.Errorf("Generated config does not round-trip defaults: %+v", cfg)
	}
}

// TestGetConfigSearchPaths tests the search path list.
func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	if paths[0] != "." {
		t.Errorf("Expected '.' first, got %s", paths[0])
	}
	want := []string{filepath.Join("/xdg", "codescan"), "/etc/codescan"}
	for _, w := range want {
		found := false
		for _, p := range paths {
			if p == w {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %s in search paths %v", w, paths)
		}
	}
}
