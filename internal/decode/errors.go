package decode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrImageLoad marks failures to read or decode the input image.
var ErrImageLoad = errors.New("image load failed")

// EngineUnavailableError means no decoding backend can be reached.
type EngineUnavailableError struct {
	Engine string
	Reason string
	Remedy string
}

func (e *EngineUnavailableError) Error() string {
	msg := fmt.Sprintf("decoder engine %q unavailable: %s", e.Engine, e.Reason)
	if e.Remedy != "" {
		msg += " (" + e.Remedy + ")"
	}
	return msg
}

// EngineExecutionError means the engine was reachable but one invocation failed.
type EngineExecutionError struct {
	Engine   string
	Rotation Rotation
	ExitCode int
	Stderr   string
	Err      error
}

func (e *EngineExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "decoder engine %q failed on candidate %s", e.Engine, e.Rotation)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		b.WriteString(": ")
		b.WriteString(firstLine(s))
	}
	return b.String()
}

func (e *EngineExecutionError) Unwrap() error { return e.Err }

// TranscriptFormatError reports a point line whose coordinates do not parse.
type TranscriptFormatError struct {
	Line int
	Text string
	Err  error
}

func (e *TranscriptFormatError) Error() string {
	return fmt.Sprintf("transcript line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *TranscriptFormatError) Unwrap() error { return e.Err }

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
