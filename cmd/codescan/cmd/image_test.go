package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/decode"
	"github.com/MeKo-Tech/codescan/internal/engine"
	"github.com/MeKo-Tech/codescan/internal/testutil"
)

func TestImageCommand(t *testing.T) {
	assert.True(t, strings.HasPrefix(imageCmd.Use, "image"))
	assert.NotEmpty(t, imageCmd.Short)
	assert.NotEmpty(t, imageCmd.Long)

	for _, name := range []string{"engine", "formats", "try-harder", "output-dir", "name", "image-format", "fields", "no-annotate", "format", "progress"} {
		assert.NotNil(t, imageCmd.Flags().Lookup(name), "missing flag --%s", name)
	}
}

func TestImageCommand_FoundWritesArtifacts(t *testing.T) {
	useEngine(t, &fakeEngine{hit: 1, transcript: cardTranscript})
	dir := t.TempDir()
	input := whiteImage(t, dir, 80, 60)
	outDir := filepath.Join(dir, "out")

	out, _, err := executeCommand(t, nil, "image", input, "-o", outDir, "--name", "card", "--fields", "-f", "json")
	require.NoError(t, err)

	res := parseScanJSON(t, out)
	assert.True(t, res.Found)
	assert.Equal(t, input, res.Source)
	assert.Equal(t, "90cw", res.Rotation)
	assert.Equal(t, "ID4455667 Name JOHNSmith Born 1990", res.Payload)
	assert.Len(t, res.Polygon, 4)
	assert.Equal(t, "4455667", res.Extracted["identifier"])
	require.Len(t, res.Attempts, 2)

	text, err := os.ReadFile(filepath.Join(outDir, "decoded_card.txt"))
	require.NoError(t, err)
	assert.Equal(t, "ID4455667 Name JOHNSmith Born 1990", strings.TrimSpace(string(text)))
	assert.Equal(t, filepath.Join(outDir, "annotated_card.png"), res.ImagePath)
	assert.FileExists(t, res.ImagePath)
}

func TestImageCommand_NoAnnotate(t *testing.T) {
	useEngine(t, &fakeEngine{transcript: cardTranscript})
	dir := t.TempDir()

	out, _, err := executeCommand(t, nil, "image", whiteImage(t, dir, 80, 60), "-o", dir, "--no-annotate", "-f", "json")
	require.NoError(t, err)

	res := parseScanJSON(t, out)
	assert.NotEmpty(t, res.TextPath)
	assert.Empty(t, res.ImagePath)
	assert.NoFileExists(t, filepath.Join(dir, "annotated_code.png"))
}

func TestImageCommand_NotFound(t *testing.T) {
	useEngine(t, &fakeEngine{})
	dir := t.TempDir()

	out, _, err := executeCommand(t, nil, "image", whiteImage(t, dir, 20, 20), "-o", dir)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, ExitNotFound, ExitCode(err))
	assert.Equal(t, "No barcode found", strings.TrimSpace(out))
	assert.NoFileExists(t, filepath.Join(dir, "decoded_code.txt"))
}

func TestImageCommand_Progress(t *testing.T) {
	useEngine(t, &fakeEngine{hit: 2, transcript: cardTranscript})
	dir := t.TempDir()

	_, stderr, err := executeCommand(t, nil, "--log-level", "error", "image", whiteImage(t, dir, 80, 60), "-o", dir, "--progress")
	require.NoError(t, err)
	assert.Contains(t, stderr, "[1/4] 0: no_symbol")
	assert.Contains(t, stderr, "[2/4] 90cw: no_symbol")
	assert.Contains(t, stderr, "[3/4] 90ccw: decoded")
	assert.NotContains(t, stderr, "[4/4]")
}

func TestImageCommand_Stdin(t *testing.T) {
	useEngine(t, &fakeEngine{transcript: cardTranscript})
	dir := t.TempDir()
	data, err := os.ReadFile(whiteImage(t, dir, 80, 60))
	require.NoError(t, err)

	out, _, err := executeCommand(t, bytes.NewReader(data), "image", "-", "-o", dir, "-f", "json")
	require.NoError(t, err)
	assert.Equal(t, stdinName, parseScanJSON(t, out).Source)
}

func TestImageCommand_Failures(t *testing.T) {
	dir := t.TempDir()
	notImage := testutil.WriteFile(t, dir, "notes.txt", "not an image")

	tests := []struct {
		name    string
		engine  decode.Engine
		args    []string
		message string
	}{
		{name: "missing argument", engine: &fakeEngine{}, args: []string{"image"}, message: "accepts 1 arg"},
		{name: "missing file", engine: &fakeEngine{}, args: []string{"image", filepath.Join(dir, "nope.png")}, message: "failed to scan"},
		{name: "not an image", engine: &fakeEngine{}, args: []string{"image", notImage}, message: "failed to scan"},
		{name: "bad output format", engine: &fakeEngine{}, args: []string{"image", notImage, "-f", "xml"}, message: "invalid output format"},
		{name: "bad barcode format", engine: &fakeEngine{}, args: []string{"image", notImage, "--formats", "qr,telegraph"}, message: "invalid engine formats"},
		{
			name:    "every attempt errored",
			engine:  &fakeEngine{err: &decode.EngineExecutionError{Engine: "cli", ExitCode: 1}},
			args:    []string{"image", whiteImage(t, dir, 8, 8)},
			message: "failed to scan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useEngine(t, tt.engine)
			_, _, err := executeCommand(t, nil, append(tt.args, "-o", dir)...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, ExitCode(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestImageCommand_EngineUnavailable(t *testing.T) {
	prev := selectEngine
	selectEngine = func(engine.Config) (decode.Engine, error) {
		return nil, &decode.EngineUnavailableError{Engine: "cli", Reason: "no docker", Remedy: "install Docker"}
	}
	t.Cleanup(func() { selectEngine = prev })

	dir := t.TempDir()
	_, _, err := executeCommand(t, nil, "image", whiteImage(t, dir, 8, 8), "--engine", "cli")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "install Docker")
}

func TestImageCommand_LocalEngineQR(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteQRCode(t, dir, "qr.png", "CLI-QR-42")

	var gotCfg engine.Config
	prev := selectEngine
	selectEngine = func(cfg engine.Config) (decode.Engine, error) {
		gotCfg = cfg
		return engine.NewLocal(cfg)
	}
	t.Cleanup(func() { selectEngine = prev })

	out, _, err := executeCommand(t, nil, "image", input, "--engine", "local", "--formats", "qr_code", "-o", dir, "-f", "json")
	require.NoError(t, err)

	assert.Equal(t, engine.NameLocal, gotCfg.Name)
	assert.Equal(t, []barcode.Format{barcode.FormatQR}, gotCfg.Formats)

	res := parseScanJSON(t, out)
	assert.True(t, res.Found)
	assert.Equal(t, "CLI-QR-42", res.Payload)
	assert.Equal(t, engine.NameLocal, res.Engine)
	assert.FileExists(t, filepath.Join(dir, "decoded_code.txt"))
}
