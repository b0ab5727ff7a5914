package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/decode"
)

func TestAvailability(t *testing.T) {
	cfg := testCLIConfig(t)
	statuses := availability(cfg, &fakeRunner{bins: map[string]string{"java": "java"}})
	require.Len(t, statuses, 2)

	local, cli := statuses[0], statuses[1]
	assert.Equal(t, NameLocal, local.Name)
	assert.True(t, local.Available)
	assert.NotContains(t, local.Formats, "pdf417")

	assert.Equal(t, NameCLI, cli.Name)
	assert.True(t, cli.Available)
	assert.Equal(t, []string{"java"}, cli.Runners)
	assert.Contains(t, cli.Formats, "maxicode")

	cfg.JarDir = t.TempDir()
	cli = availability(cfg, &fakeRunner{bins: map[string]string{"java": "java"}})[1]
	assert.False(t, cli.Available)
	assert.Contains(t, cli.Reason, "javase-3.5.0.jar")
	assert.NotEmpty(t, cli.Remedy)
}

func TestSelect(t *testing.T) {
	withJava := &fakeRunner{bins: map[string]string{"java": "java"}}
	nothing := &fakeRunner{}

	tests := []struct {
		name     string
		engine   string
		formats  []barcode.Format
		runner   *fakeRunner
		want     string
		wantErr  bool
		wantUnav bool
	}{
		{name: "auto with no formats is local", engine: NameAuto, runner: nothing, want: NameLocal},
		{name: "empty name means auto", engine: "", formats: []barcode.Format{barcode.FormatQR}, runner: nothing, want: NameLocal},
		{name: "auto falls back to cli for pdf417", engine: NameAuto, formats: []barcode.Format{barcode.FormatPDF417}, runner: withJava, want: NameCLI},
		{name: "auto without cli is unavailable", engine: NameAuto, formats: []barcode.Format{barcode.FormatMaxiCode}, runner: nothing, wantErr: true, wantUnav: true},
		{name: "explicit cli", engine: "CLI", runner: withJava, want: NameCLI},
		{name: "explicit local with pdf417", engine: NameLocal, formats: []barcode.Format{barcode.FormatPDF417}, runner: withJava, wantErr: true, wantUnav: true},
		{name: "unknown engine", engine: "tesseract", runner: withJava, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testCLIConfig(t)
			cfg.Name = tt.engine
			cfg.Formats = tt.formats

			eng, err := selectEngine(cfg, tt.runner)
			if tt.wantErr {
				require.Error(t, err)
				var unavailable *decode.EngineUnavailableError
				assert.Equal(t, tt.wantUnav, errors.As(err, &unavailable))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, eng.Name())
		})
	}
}
