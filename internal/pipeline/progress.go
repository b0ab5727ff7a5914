package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/MeKo-Tech/codescan/internal/decode"
)

// ConsoleProgress returns an observer that prints one line per attempt,
// e.g. "[2/4] 90cw: no_symbol (12ms)".
func ConsoleProgress(w io.Writer, prefix string) decode.Observer {
	if w == nil {
		w = os.Stderr
	}
	var mu sync.Mutex
	total := len(decode.CandidateOrder)
	return func(att decode.Attempt) {
		mu.Lock()
		defer mu.Unlock()
		line := fmt.Sprintf("%s[%d/%d] %s: %s (%dms)", prefix, att.Index+1, total, att.Rotation, att.Status, att.DurationMs)
		if att.Error != "" {
			line += " " + att.Error
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

// LogProgress returns an observer that logs every attempt with slog.
func LogProgress(logger *slog.Logger, level slog.Level) decode.Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return func(att decode.Attempt) {
		logger.Log(context.Background(), level, "Candidate attempt",
			"index", att.Index, "rotation", att.Rotation.String(), "status", string(att.Status),
			"duration_ms", att.DurationMs, "error", att.Error)
	}
}

// ChainObservers fans one attempt out to every non-nil observer in order.
func ChainObservers(obs ...decode.Observer) decode.Observer {
	return func(att decode.Attempt) {
		for _, o := range obs {
			if o != nil {
				o(att)
			}
		}
	}
}
