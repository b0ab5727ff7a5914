package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// execResult is the captured output of one external process.
type execResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// commandRunner starts external programs. The CLI engine talks to the host
// only through this interface.
type commandRunner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) (*execResult, error)
}

type osRunner struct{}

func (osRunner) LookPath(file string) (string, error) { return exec.LookPath(file) }

// Run executes name with args and captures both streams. A non-zero exit is
// reported through ExitCode, not as an error; errors mean the process could
// not be started or was killed by ctx.
func (osRunner) Run(ctx context.Context, name string, args ...string) (*execResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", name, ctxErr)
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to execute %s: %w", name, err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &execResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
	}, nil
}
