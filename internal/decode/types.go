package decode

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"
)

// Point is an integer vertex in image pixel coordinates.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Result is the structured form of one decode attempt.
type Result struct {
	// Payload is the best-guess decoded string, empty when nothing was decoded.
	Payload string `json:"payload" yaml:"payload"`
	// Polygon is either empty or holds at least four vertices in order.
	Polygon []Point `json:"polygon,omitempty" yaml:"polygon,omitempty"`
	// Fields carries raw/parsed variants and header metadata from the transcript.
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// HasPolygon reports whether the result carries a usable polygon.
func (r Result) HasPolygon() bool { return len(r.Polygon) >= minPolygonPoints }

// Rotation is a clockwise rotation applied to a candidate, in degrees.
type Rotation int

const (
	Rotate0     Rotation = 0
	Rotate90CW  Rotation = 90
	Rotate180   Rotation = 180
	Rotate90CCW Rotation = 270
)

// CandidateOrder is the fixed order in which orientations are attempted.
var CandidateOrder = []Rotation{Rotate0, Rotate90CW, Rotate90CCW, Rotate180}

func (r Rotation) String() string {
	switch r {
	case Rotate0:
		return "0"
	case Rotate90CW:
		return "90cw"
	case Rotate90CCW:
		return "90ccw"
	case Rotate180:
		return "180"
	default:
		return fmt.Sprintf("%ddeg", int(r))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Rotation) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Candidate is one orientation of the input image submitted to an engine.
// It is built by the Controller and only lives for a single attempt.
type Candidate struct {
	Image    image.Image
	Rotation Rotation
	Index    int

	source string // original file, only set for the unrotated candidate
	ws     *workspace
	path   string
}

// zxingReadable lists extensions the ZXing javase loader can read directly.
var zxingReadable = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true}

// Path returns an absolute file path holding the candidate image. The
// unrotated candidate reuses the source file when it has a readable format;
// everything else is written into the call's workspace and removed when the
// Controller returns.
func (c *Candidate) Path() (string, error) {
	if c.path != "" {
		return c.path, nil
	}
	if c.source != "" && zxingReadable[strings.ToLower(filepath.Ext(c.source))] {
		abs, err := filepath.Abs(c.source)
		if err != nil {
			return "", fmt.Errorf("resolve source path: %w", err)
		}
		c.path = abs
		return c.path, nil
	}
	if c.ws == nil {
		return "", fmt.Errorf("candidate %s has no workspace", c.Rotation)
	}
	p, err := c.ws.write(fmt.Sprintf("candidate_%d_%s.png", c.Index, c.Rotation), c.Image)
	if err != nil {
		return "", err
	}
	c.path = p
	return c.path, nil
}

// Engine decodes a single candidate and returns the engine's raw transcript.
//
// A transcript containing NoSymbolSentinel (or an empty one) means "no symbol"
// and is not an error. Engines report a failed invocation with
// *EngineExecutionError and a missing backend with *EngineUnavailableError.
type Engine interface {
	Name() string
	Decode(ctx context.Context, c *Candidate) (string, error)
}

// AttemptStatus describes how a single candidate attempt ended.
type AttemptStatus string

const (
	AttemptDecoded  AttemptStatus = "decoded"
	AttemptNoSymbol AttemptStatus = "no_symbol"
	AttemptError    AttemptStatus = "error"
)

// Attempt records one candidate attempt.
type Attempt struct {
	Index      int           `json:"index" yaml:"index"`
	Rotation   Rotation      `json:"rotation" yaml:"rotation"`
	Status     AttemptStatus `json:"status" yaml:"status"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Warning    string        `json:"warning,omitempty" yaml:"warning,omitempty"`
	DurationMs int64         `json:"duration_ms" yaml:"duration_ms"`
}

func newAttempt(c *Candidate, status AttemptStatus, d time.Duration) Attempt {
	return Attempt{Index: c.Index, Rotation: c.Rotation, Status: status, DurationMs: d.Milliseconds()}
}

// Observer is notified after every attempt, in order.
type Observer func(Attempt)

// Outcome is the result of a full fallback run.
type Outcome struct {
	Result   `yaml:",inline"`
	Found    bool      `json:"found" yaml:"found"`
	Rotation Rotation  `json:"rotation" yaml:"rotation"`
	Width    int       `json:"width" yaml:"width"`
	Height   int       `json:"height" yaml:"height"`
	Attempts []Attempt `json:"attempts" yaml:"attempts"`
}
