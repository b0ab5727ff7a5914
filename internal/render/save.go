package render

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ImageFormats lists the annotated image formats SaveImage can write.
var ImageFormats = []string{"png", "jpg", "webp"}

// ArtifactPaths returns the fixed text and image artifact paths for a run.
func ArtifactPaths(dir, name, imageFormat string) (textPath, imagePath string) {
	ext := NormalizeFormat(imageFormat)
	return filepath.Join(dir, "decoded_"+name+".txt"), filepath.Join(dir, "annotated_"+name+"."+ext)
}

// NormalizeFormat maps aliases such as "jpeg" onto ImageFormats, defaulting to png.
func NormalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), ".")); f {
	case "jpg", "jpeg":
		return "jpg"
	case "webp":
		return "webp"
	default:
		return "png"
	}
}

// SaveImage writes img to path, choosing the encoder from the extension.
// The parent directory is created when missing.
func SaveImage(img image.Image, path string, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if quality <= 0 {
		quality = DefaultStyle().Quality
	}

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, err := os.Create(path) //nolint:gosec // G304: output path chosen by the user
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := webp.Encode(f, img, &webp.Options{Quality: float32(quality)}); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode webp %s: %w", path, err)
		}
		return f.Close()
	}

	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// EncodeImage writes img to w in the given format (png, jpg or webp).
func EncodeImage(w io.Writer, img image.Image, format string, quality int) error {
	if quality <= 0 {
		quality = DefaultStyle().Quality
	}
	switch NormalizeFormat(format) {
	case "webp":
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	case "jpg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return imaging.Encode(w, img, imaging.PNG)
	}
}

// ContentType returns the MIME type for an image format.
func ContentType(format string) string {
	switch NormalizeFormat(format) {
	case "webp":
		return "image/webp"
	case "jpg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// WriteText writes payload as UTF-8 to path, creating the parent directory.
func WriteText(path, payload string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil { //nolint:gosec // G306: artifact meant to be readable
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
