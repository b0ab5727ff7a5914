package engine

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/decode"
)

// Status describes whether one engine can run on this host.
type Status struct {
	Name      string   `json:"name" yaml:"name"`
	Available bool     `json:"available" yaml:"available"`
	Runners   []string `json:"runners,omitempty" yaml:"runners,omitempty"`
	Formats   []string `json:"formats" yaml:"formats"`
	Reason    string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Remedy    string   `json:"remedy,omitempty" yaml:"remedy,omitempty"`
}

// Availability reports the availability of every engine for cfg.
func Availability(cfg Config) []Status {
	return availability(cfg, osRunner{})
}

func availability(cfg Config, r commandRunner) []Status {
	local := Status{Name: NameLocal, Available: true}
	for _, f := range LocalFormats() {
		local.Formats = append(local.Formats, f.String())
	}

	cli := &CLI{cfg: cfg, exec: r}
	remote := Status{Name: NameCLI}
	for _, f := range barcode.All() {
		remote.Formats = append(remote.Formats, f.String())
	}
	for _, run := range cli.runners() {
		remote.Runners = append(remote.Runners, run.name)
	}
	switch missing := cli.missingJars(); {
	case len(missing) > 0:
		remote.Reason = fmt.Sprintf("missing ZXing jars in %s: %s", cfg.JarDir, strings.Join(missing, ", "))
		remote.Remedy = "download " + strings.Join(cfg.jars(), ", ") + " into engine.jar_dir"
	case len(remote.Runners) == 0:
		remote.Reason = "neither docker nor " + cli.javaBin() + " found on PATH"
		remote.Remedy = "install Docker or a Java 17 JDK"
	default:
		remote.Available = true
	}

	return []Status{local, remote}
}

// Select returns the engine cfg asks for. With NameAuto the in-process engine
// wins whenever it reads every requested format; otherwise the CLI engine is
// used if it is available.
func Select(cfg Config) (decode.Engine, error) {
	return selectEngine(cfg, osRunner{})
}

func selectEngine(cfg Config, r commandRunner) (decode.Engine, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	if name == "" {
		name = NameAuto
	}

	switch name {
	case NameLocal:
		return NewLocal(cfg)
	case NameCLI:
		return availableCLI(cfg, r)
	case NameAuto:
		if allLocal(cfg.Formats) {
			return NewLocal(cfg)
		}
		return availableCLI(cfg, r)
	default:
		return nil, fmt.Errorf("unknown engine %q (must be one of: %s, %s, %s)", cfg.Name, NameAuto, NameLocal, NameCLI)
	}
}

func availableCLI(cfg Config, r commandRunner) (decode.Engine, error) {
	for _, st := range availability(cfg, r) {
		if st.Name != NameCLI {
			continue
		}
		if !st.Available {
			return nil, &decode.EngineUnavailableError{Engine: NameCLI, Reason: st.Reason, Remedy: st.Remedy}
		}
	}
	return &CLI{cfg: cfg, exec: r}, nil
}

func allLocal(fs []barcode.Format) bool {
	for _, f := range fs {
		if !LocalSupports(f) {
			return false
		}
	}
	return true
}
