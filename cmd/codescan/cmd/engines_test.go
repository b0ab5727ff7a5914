package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/engine"
)

func stubAvailability(t *testing.T) *engine.Config {
	t.Helper()
	var got engine.Config
	prev := engineAvailability
	engineAvailability = func(cfg engine.Config) []engine.Status {
		got = cfg
		return []engine.Status{
			{Name: engine.NameLocal, Available: true, Formats: []string{"qr", "aztec"}},
			{
				Name: engine.NameCLI, Formats: []string{"qr", "pdf417"},
				Reason: "neither docker nor java found on PATH", Remedy: "install Docker or a Java 17 JDK",
			},
		}
	}
	t.Cleanup(func() { engineAvailability = prev })
	return &got
}

func TestEnginesCommand_Text(t *testing.T) {
	got := stubAvailability(t)

	out, _, err := executeCommand(t, nil, "engines", "--jar-dir", "/opt/zxing")
	require.NoError(t, err)

	assert.Equal(t, "/opt/zxing", got.JarDir)
	assert.Contains(t, out, "local  available")
	assert.Contains(t, out, "cli    unavailable")
	assert.Contains(t, out, "formats: qr, aztec")
	assert.Contains(t, out, "remedy:  install Docker or a Java 17 JDK")
}

func TestEnginesCommand_JSON(t *testing.T) {
	stubAvailability(t)

	out, _, err := executeCommand(t, nil, "engines", "-f", "json")
	require.NoError(t, err)

	var statuses []engine.Status
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Available)
	assert.False(t, statuses[1].Available)
	assert.NotEmpty(t, statuses[1].Reason)
}

func TestEnginesCommand_YAML(t *testing.T) {
	stubAvailability(t)

	out, _, err := executeCommand(t, nil, "engines", "-f", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: local")
	assert.Contains(t, out, "available: false")
}
