package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/decode"
	"github.com/MeKo-Tech/codescan/internal/engine"
	"github.com/MeKo-Tech/codescan/internal/testutil"
)

// fakeEngine answers the candidate at index hit with transcript and every
// other candidate with the no-symbol sentinel.
type fakeEngine struct {
	hit        int
	transcript string
	err        error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Decode(_ context.Context, c *decode.Candidate) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.transcript != "" && c.Index == f.hit {
		return f.transcript, nil
	}
	return "memory: " + decode.NoSymbolSentinel, nil
}

const cardTranscript = `file:///tmp/card.png (format: PDF_417, type: TEXT):
Raw result:
ID4455667 Name JOHNSmith Born 1990
Parsed result:
ID4455667 Name JOHNSmith Born 1990
Found 4 result points.
  Point 0: (10.0,10.0)
  Point 1: (50.0,10.0)
  Point 2: (50.0,40.0)
  Point 3: (10.0,40.0)
`

// scanJSON mirrors the JSON shape of pipeline.ScanResult for assertions.
type scanJSON struct {
	Source    string            `json:"source"`
	Engine    string            `json:"engine"`
	Found     bool              `json:"found"`
	Payload   string            `json:"payload"`
	Rotation  string            `json:"rotation"`
	Polygon   []decode.Point    `json:"polygon"`
	Extracted map[string]string `json:"extracted"`
	Attempts  []struct {
		Rotation string `json:"rotation"`
		Status   string `json:"status"`
	} `json:"attempts"`
	TextPath  string `json:"text_path"`
	ImagePath string `json:"image_path"`
}

func parseScanJSON(t *testing.T, out string) scanJSON {
	t.Helper()
	var res scanJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	return res
}

// useEngine makes the scanning commands use eng instead of probing the host.
func useEngine(t *testing.T, eng decode.Engine) {
	t.Helper()
	prev := selectEngine
	selectEngine = func(engine.Config) (decode.Engine, error) { return eng, nil }
	t.Cleanup(func() { selectEngine = prev })
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and returns stdout and stderr.
func executeCommand(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()

	prevLogger := slog.Default()
	resetConfig()
	resetFlags(rootCmd)
	t.Cleanup(func() {
		resetConfig()
		resetFlags(rootCmd)
		slog.SetDefault(prevLogger)
	})

	var stdout, stderr bytes.Buffer
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// whiteImage writes a plain white PNG and returns its path.
func whiteImage(t *testing.T, dir string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, "blank.png")
	testutil.SaveImage(t, testutil.CreateTestImage(w, h, color.White), path)
	return path
}
