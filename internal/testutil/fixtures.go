package testutil

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// ScanFixture is a generated image together with what a scan should report.
type ScanFixture struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputFile   string `json:"input_file"`
	Payload     string `json:"payload"`
	// Rotation is the clockwise rotation, in degrees, applied to an upright code.
	Rotation int  `json:"rotation"`
	Found    bool `json:"found"`

	Image image.Image `json:"-"`
}

// RotatedQRFixtures returns the same QR payload turned into each orientation
// the decoder tries, plus a blank image with no code on it.
func RotatedQRFixtures(t *testing.T, payload string) []ScanFixture {
	t.Helper()

	upright := QRCode(t, payload)
	fixtures := []ScanFixture{
		{Name: "qr_upright", Description: "upright QR code", Rotation: 0, Image: upright},
		{Name: "qr_cw", Description: "QR code turned 90 degrees clockwise", Rotation: 90, Image: imaging.Rotate270(upright)},
		{Name: "qr_upside_down", Description: "QR code upside down", Rotation: 180, Image: imaging.Rotate180(upright)},
		{Name: "qr_ccw", Description: "QR code turned 90 degrees counter-clockwise", Rotation: 270, Image: imaging.Rotate90(upright)},
	}
	for i := range fixtures {
		fixtures[i].Payload = payload
		fixtures[i].Found = true
		fixtures[i].InputFile = fixtures[i].Name + ".png"
	}

	return append(fixtures, ScanFixture{
		Name:        "blank",
		Description: "text only, no code",
		InputFile:   "blank.png",
		Image:       CreateTestImageWithText("no code here", 320, 240),
	})
}

// WriteFixtures saves every fixture image plus a fixtures.json manifest into dir.
func WriteFixtures(t *testing.T, dir string, fixtures []ScanFixture) {
	t.Helper()

	for _, f := range fixtures {
		require.NotNil(t, f.Image, "fixture %s has no image", f.Name)
		SaveImage(t, f.Image, filepath.Join(dir, f.InputFile))
	}

	data, err := json.MarshalIndent(fixtures, "", "  ")
	require.NoError(t, err, "Failed to marshal fixtures")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixtures.json"), data, 0o600))
}

// LoadFixtures reads a manifest written by WriteFixtures. Images are not loaded.
func LoadFixtures(t *testing.T, dir string) []ScanFixture {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, "fixtures.json")) //nolint:gosec // G304: controlled test path
	require.NoError(t, err, "Failed to read fixture manifest in %s", dir)

	var fixtures []ScanFixture
	require.NoError(t, json.Unmarshal(data, &fixtures), "Failed to parse fixture manifest")
	return fixtures
}
