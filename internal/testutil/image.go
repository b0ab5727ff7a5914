package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultQRSize is the edge length of generated QR test images.
const DefaultQRSize = 240

// GenerateQRCode renders text as a QR code of size×size pixels, quiet zone
// included.
func GenerateQRCode(text string, size int) (*image.NRGBA, error) {
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		return nil, fmt.Errorf("encode QR code: %w", err)
	}
	img := image.NewNRGBA(matrix.Bounds())
	draw.Draw(img, img.Bounds(), matrix, matrix.Bounds().Min, draw.Src)
	return img, nil
}

// QRCode is GenerateQRCode for tests.
func QRCode(t *testing.T, text string) *image.NRGBA {
	t.Helper()

	img, err := GenerateQRCode(text, DefaultQRSize)
	require.NoError(t, err, "Failed to generate QR code for %q", text)
	return img
}

// WriteQRCode writes a QR code PNG for text into dir and returns its path.
func WriteQRCode(t *testing.T, dir, name, text string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	SaveImage(t, QRCode(t, text), path)
	return path
}

// CreateTestImage creates a plain image of the given size and color.
func CreateTestImage(width, height int, backgroundColor color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)
	return img
}

// CreateTestImageWithText creates a white image with centered black text and
// no machine-readable code on it.
func CreateTestImageWithText(text string, width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	textHeight := face.Metrics().Height.Ceil()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P((width-textWidth)/2, (height+textHeight)/2),
	}
	drawer.DrawString(text)
	return img
}

// SaveImage saves an image as PNG to the specified path.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	dir := filepath.Dir(path)
	require.NoError(t, EnsureDir(dir), "Failed to create directory %s", dir)

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // G304: Test file reading with controlled path
	require.NoError(t, err, "Failed to open image file %s", path)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err, "Failed to decode image")
	return img
}

// CompareImages reports whether two images of equal bounds differ by at most
// tolerance (0..1) on average.
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	bounds := img1.Bounds()
	if bounds != img2.Bounds() {
		return false
	}

	var totalDiff, pixelCount float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r1, g1, b1, a1 := img1.At(x, y).RGBA()
			r2, g2, b2, a2 := img2.At(x, y).RGBA()

			dr := float64(r1) - float64(r2)
			dg := float64(g1) - float64(g2)
			db := float64(b1) - float64(b2)
			da := float64(a1) - float64(a2)
			totalDiff += math.Sqrt(dr*dr + dg*dg + db*db + da*da)
			pixelCount++
		}
	}
	if pixelCount == 0 {
		return true
	}

	maxDiff := math.Sqrt(4 * 65535 * 65535)
	return (totalDiff/pixelCount)/maxDiff <= tolerance
}
