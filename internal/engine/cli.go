package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/codescan/internal/decode"
)

const (
	zxingMainClass = "com.google.zxing.client.j2se.CommandLineRunner"

	containerJarDir  = "/app"
	containerDataDir = "/data"
)

// CLI decodes candidates with the ZXing CommandLineRunner. Each attempt tries
// docker first and falls back to a local JVM.
type CLI struct {
	cfg  Config
	exec commandRunner
}

// NewCLI creates the out-of-process engine.
func NewCLI(cfg Config) *CLI {
	return &CLI{cfg: cfg, exec: osRunner{}}
}

// Name implements decode.Engine.
func (e *CLI) Name() string { return NameCLI }

// runner is one way of launching the CommandLineRunner.
type runner struct {
	name string
	bin  string
	args func(imagePath string) ([]string, error)
}

// Decode implements decode.Engine.
func (e *CLI) Decode(ctx context.Context, c *decode.Candidate) (string, error) {
	if missing := e.missingJars(); len(missing) > 0 {
		return "", &decode.EngineUnavailableError{
			Engine: NameCLI,
			Reason: "missing ZXing jars in " + e.cfg.JarDir + ": " + strings.Join(missing, ", "),
			Remedy: "download " + strings.Join(e.cfg.jars(), ", ") + " into engine.jar_dir",
		}
	}

	runners := e.runners()
	if len(runners) == 0 {
		return "", &decode.EngineUnavailableError{
			Engine: NameCLI,
			Reason: "neither docker nor " + e.javaBin() + " found on PATH",
			Remedy: "install Docker or a Java 17 JDK",
		}
	}

	path, err := c.Path()
	if err != nil {
		return "", &decode.EngineExecutionError{Engine: NameCLI, Rotation: c.Rotation, Err: err}
	}

	var lastErr *decode.EngineExecutionError
	for _, r := range runners {
		res, err := e.run(ctx, r, path)
		if err == nil && (res.ExitCode == 0 || strings.Contains(string(res.Stdout), decode.NoSymbolSentinel)) {
			slog.Debug("ZXing runner finished", "runner", r.name, "rotation", c.Rotation.String(), "exit_code", res.ExitCode)
			return strings.TrimSpace(string(res.Stdout)), nil
		}

		lastErr = &decode.EngineExecutionError{Engine: NameCLI + "/" + r.name, Rotation: c.Rotation, Err: err}
		if res != nil {
			lastErr.ExitCode = res.ExitCode
			lastErr.Stderr = string(res.Stderr)
		}
		if ctx.Err() != nil {
			return "", lastErr
		}
		slog.Warn("ZXing runner failed, trying next runner", "runner", r.name, "error", lastErr)
	}
	return "", lastErr
}

// run launches one runner, bounded by the configured timeout.
func (e *CLI) run(ctx context.Context, r runner, imagePath string) (*execResult, error) {
	args, err := r.args(imagePath)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout())
	defer cancel()
	return e.exec.Run(ctx, r.bin, args...)
}

// runners returns the launchers available on this host, docker first.
func (e *CLI) runners() []runner {
	var out []runner
	if e.cfg.UseDocker {
		if bin, err := e.exec.LookPath("docker"); err == nil {
			out = append(out, runner{name: "docker", bin: bin, args: e.dockerArgs})
		}
	}
	if bin, err := e.exec.LookPath(e.javaBin()); err == nil {
		out = append(out, runner{name: "java", bin: bin, args: e.javaArgs})
	}
	return out
}

// dockerArgs mounts the jar directory and the candidate's directory into
// the container. Both mounts must be absolute or docker reads them as named
// volumes.
func (e *CLI) dockerArgs(imagePath string) ([]string, error) {
	jarDir, err := filepath.Abs(e.cfg.JarDir)
	if err != nil {
		return nil, fmt.Errorf("resolve jar directory: %w", err)
	}
	dataDir, err := filepath.Abs(filepath.Dir(imagePath))
	if err != nil {
		return nil, fmt.Errorf("resolve candidate directory: %w", err)
	}
	jars := make([]string, 0, len(e.cfg.jars()))
	for _, j := range e.cfg.jars() {
		jars = append(jars, containerJarDir+"/"+j)
	}
	args := []string{
		"run", "--rm",
		"-v", jarDir + ":" + containerJarDir + ":ro",
		"-v", dataDir + ":" + containerDataDir + ":ro",
		e.dockerImage(),
		"java", "-cp", strings.Join(jars, ":"),
		zxingMainClass,
	}
	args = append(args, e.zxingFlags()...)
	return append(args, containerDataDir+"/"+filepath.Base(imagePath)), nil
}

func (e *CLI) javaArgs(imagePath string) ([]string, error) {
	jars := make([]string, 0, len(e.cfg.jars()))
	for _, j := range e.cfg.jars() {
		jars = append(jars, filepath.Join(e.cfg.JarDir, j))
	}
	args := []string{"-cp", strings.Join(jars, string(os.PathListSeparator)), zxingMainClass}
	args = append(args, e.zxingFlags()...)
	return append(args, fileURI(imagePath)), nil
}

func (e *CLI) zxingFlags() []string {
	var flags []string
	if e.cfg.TryHarder {
		flags = append(flags, "--try_harder")
	}
	if len(e.cfg.Formats) > 0 {
		names := make([]string, 0, len(e.cfg.Formats))
		for _, f := range e.cfg.Formats {
			names = append(names, f.ZXingName())
		}
		flags = append(flags, "--possible_formats="+strings.Join(names, ","))
	}
	return flags
}

func (e *CLI) missingJars() []string {
	var missing []string
	for _, j := range e.cfg.jars() {
		if _, err := os.Stat(filepath.Join(e.cfg.JarDir, j)); err != nil {
			missing = append(missing, j)
		}
	}
	return missing
}

func (e *CLI) javaBin() string {
	if e.cfg.JavaBin == "" {
		return "java"
	}
	return e.cfg.JavaBin
}

func (e *CLI) dockerImage() string {
	if e.cfg.DockerImage == "" {
		return "openjdk:17"
	}
	return e.cfg.DockerImage
}

// fileURI builds a file:// URI ZXing accepts on every OS, including Windows
// drive-letter paths.
func fileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

var _ decode.Engine = (*CLI)(nil)
