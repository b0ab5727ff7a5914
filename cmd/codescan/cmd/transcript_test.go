package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/testutil"
)

func TestTranscriptCommand_File(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "card.txt", cardTranscript)

	out, _, err := executeCommand(t, nil, "transcript", path, "-f", "json")
	require.NoError(t, err)

	res := parseScanJSON(t, out)
	assert.True(t, res.Found)
	assert.Equal(t, transcriptEngine, res.Engine)
	assert.Equal(t, path, res.Source)
	assert.Equal(t, "ID4455667 Name JOHNSmith Born 1990", res.Payload)
	assert.Len(t, res.Polygon, 4)
	assert.Equal(t, "1990", res.Extracted["birth_year"])
	assert.Equal(t, "JOHNSmith", res.Extracted["name"])
}

func TestTranscriptCommand_StdinText(t *testing.T) {
	raw := "file:///x.png (format: QR_CODE, type: TEXT):\nRaw result:\nHELLO123\nParsed result:\nHELLO123\n"

	out, _, err := executeCommand(t, strings.NewReader(raw), "transcript")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "HELLO123\n"), out)
	assert.Contains(t, out, "format: QR_CODE")
	assert.NotContains(t, out, "polygon:")
}

func TestTranscriptCommand_NoSymbol(t *testing.T) {
	for _, raw := range []string{"", "   \n", "file:///x.png: No barcode found\n"} {
		out, _, err := executeCommand(t, strings.NewReader(raw), "transcript", "-")
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, "No barcode found", strings.TrimSpace(out))
	}
}

func TestTranscriptCommand_MalformedPoint(t *testing.T) {
	raw := "Raw result:\nABC\nFound 4 result points.\n  Point 0: (1.0,2.0)\n  Point 1: (x,y)\n  Point 2: (3.0,4.0)\n  Point 3: (5.0,6.0)\n"

	out, stderr, err := executeCommand(t, strings.NewReader(raw), "--log-format", "text", "transcript", "-f", "json")
	require.NoError(t, err)

	res := parseScanJSON(t, out)
	assert.Equal(t, "ABC", res.Payload)
	assert.Empty(t, res.Polygon)
	assert.Contains(t, stderr, "level=WARN")
}

func TestTranscriptCommand_MissingFile(t *testing.T) {
	_, _, err := executeCommand(t, nil, "transcript", filepath.Join(t.TempDir(), "none.txt"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "failed to open transcript")
}
