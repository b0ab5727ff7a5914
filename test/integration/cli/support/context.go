package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastStdout    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	WorkingDir string
	TempDir    string
	BinPath    string
	EnvVars    []string

	// Server management
	ServerProcess *os.Process
	ServerPort    int
	ServerHost    string

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string

	// Test artifacts
	CreatedFiles       []string
	CreatedDirectories []string
}

// NewTestContext creates a new test context rooted at the module directory.
func NewTestContext() (*TestContext, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	currentDir := workingDir
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "go.mod")); err == nil {
			workingDir = currentDir
			break
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	tempDir, err := os.MkdirTemp("", "codescan-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	binPath := os.Getenv("CODESCAN_BIN")
	if binPath == "" {
		binPath = filepath.Join(workingDir, "bin", "codescan")
	}

	return &TestContext{
		WorkingDir: workingDir,
		TempDir:    tempDir,
		BinPath:    binPath,
		EnvVars:    []string{"CODESCAN_LOG_LEVEL=error"},
		ServerHost: "localhost",
	}, nil
}

// Cleanup stops the server and removes everything the scenario created.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.ServerProcess != nil {
		if err := testCtx.StopServer(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server: %w", err))
		}
	}

	for _, file := range testCtx.CreatedFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove file %s: %w", file, err))
		}
	}
	for _, dir := range testCtx.CreatedDirectories {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove directory %s: %w", dir, err))
		}
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// AddEnvVar adds an environment variable for command execution. A later
// value for the same name wins.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// TrackFile adds a file to be cleaned up after the scenario.
func (testCtx *TestContext) TrackFile(filename string) {
	testCtx.CreatedFiles = append(testCtx.CreatedFiles, testCtx.resolvePath(filename))
}

// TrackDirectory adds a directory to be cleaned up after the scenario.
func (testCtx *TestContext) TrackDirectory(dirname string) {
	testCtx.CreatedDirectories = append(testCtx.CreatedDirectories, testCtx.resolvePath(dirname))
}

// TempPath returns name inside the scenario temp directory.
func (testCtx *TestContext) TempPath(name string) string {
	return filepath.Join(testCtx.TempDir, name)
}

// resolvePath expands the {tmp} placeholder and anchors relative paths at
// the temp directory.
func (testCtx *TestContext) resolvePath(p string) string {
	p = strings.ReplaceAll(p, "{tmp}", testCtx.TempDir)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(testCtx.TempDir, p)
}

// substituteCommandVariables expands placeholders in a step's command line.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	command = strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
	command = strings.ReplaceAll(command, "{port}", fmt.Sprint(testCtx.ServerPort))
	return command
}
