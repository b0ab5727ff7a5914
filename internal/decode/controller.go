package decode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"
)

// Controller runs the orientation fallback chain against one Engine.
// It holds no per-run state and may be shared between goroutines.
type Controller struct {
	engine   Engine
	observer Observer
	tempDir  string
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers a callback invoked after each attempt.
func WithObserver(fn Observer) Option {
	return func(c *Controller) { c.observer = fn }
}

// WithTempDir sets the parent directory for per-call workspaces.
// Empty means os.TempDir.
func WithTempDir(dir string) Option {
	return func(c *Controller) { c.tempDir = dir }
}

// NewController creates a Controller for the given engine.
func NewController(engine Engine, opts ...Option) *Controller {
	c := &Controller{engine: engine}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine returns the engine the controller drives.
func (c *Controller) Engine() Engine { return c.engine }

// Decode tries every orientation in CandidateOrder until the engine produces
// an accepted transcript. source is the file img was loaded from, or empty.
//
// Finding nothing is not an error: the Outcome has Found == false. Execution
// failures on a candidate move on to the next one; if every candidate failed
// that way the last failure is returned. Unavailable engines and any other
// engine error end the run immediately.
func (c *Controller) Decode(ctx context.Context, img image.Image, source string) (*Outcome, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrImageLoad)
	}
	if c.engine == nil {
		return nil, &EngineUnavailableError{Engine: "none", Reason: "no decoder engine configured"}
	}

	ws := newWorkspace(c.tempDir)
	defer func() {
		if err := ws.Close(); err != nil {
			slog.Warn("Failed to remove candidate workspace", "error", err)
		}
	}()

	bounds := img.Bounds()
	out := &Outcome{Width: bounds.Dx(), Height: bounds.Dy()}
	var lastExecErr error

	for i, rot := range CandidateOrder {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cand := &Candidate{Image: rotateImage(img, rot), Rotation: rot, Index: i, ws: ws}
		if rot == Rotate0 {
			cand.source = source
		}

		start := time.Now()
		transcript, err := c.engine.Decode(ctx, cand)
		elapsed := time.Since(start)

		if err != nil {
			var execErr *EngineExecutionError
			if !errors.As(err, &execErr) {
				return nil, fmt.Errorf("candidate %s: %w", rot, err)
			}
			slog.Warn("Decoder failed on candidate, trying next orientation",
				"engine", c.engine.Name(), "rotation", rot.String(), "error", err)
			att := newAttempt(cand, AttemptError, elapsed)
			att.Error = err.Error()
			c.record(out, att)
			lastExecErr = err
			continue
		}

		if !Accepted(transcript) {
			slog.Debug("No symbol on candidate", "engine", c.engine.Name(), "rotation", rot.String())
			c.record(out, newAttempt(cand, AttemptNoSymbol, elapsed))
			continue
		}

		res, perr := ParseTranscript(transcript)
		att := newAttempt(cand, AttemptDecoded, elapsed)
		if perr != nil {
			slog.Warn("Malformed polygon in transcript, keeping payload only",
				"rotation", rot.String(), "error", perr)
			att.Warning = perr.Error()
		}
		res.Polygon = RemapPolygon(res.Polygon, rot, bounds)
		c.record(out, att)

		out.Result = res
		out.Found = true
		out.Rotation = rot
		slog.Debug("Symbol decoded", "engine", c.engine.Name(), "rotation", rot.String(),
			"payload_len", len(res.Payload), "polygon_points", len(res.Polygon))
		return out, nil
	}

	if lastExecErr != nil && allErrored(out.Attempts) {
		return nil, lastExecErr
	}
	return out, nil
}

func (c *Controller) record(out *Outcome, att Attempt) {
	out.Attempts = append(out.Attempts, att)
	if c.observer != nil {
		c.observer(att)
	}
}

func allErrored(atts []Attempt) bool {
	for _, a := range atts {
		if a.Status != AttemptError {
			return false
		}
	}
	return len(atts) > 0
}
