package engine

import (
	"time"

	"github.com/MeKo-Tech/codescan/internal/barcode"
)

// Engine names accepted by Select.
const (
	NameAuto  = "auto"
	NameLocal = "local"
	NameCLI   = "cli"
)

// DefaultJars are the ZXing jars expected in JarDir.
var DefaultJars = []string{"javase-3.5.0.jar", "core-3.5.0.jar", "jcommander-1.82.jar"}

// Config holds engine selection and invocation settings.
type Config struct {
	Name      string
	Formats   []barcode.Format
	TryHarder bool

	// ZXing CLI settings
	JarDir      string
	Jars        []string
	UseDocker   bool
	DockerImage string
	JavaBin     string
	Timeout     time.Duration
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Name:        NameAuto,
		TryHarder:   true,
		JarDir:      ".",
		Jars:        append([]string(nil), DefaultJars...),
		UseDocker:   true,
		DockerImage: "openjdk:17",
		JavaBin:     "java",
		Timeout:     30 * time.Second,
	}
}

func (c Config) jars() []string {
	if len(c.Jars) == 0 {
		return DefaultJars
	}
	return c.Jars
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}
