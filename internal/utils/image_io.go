package utils

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/MeKo-Tech/codescan/internal/decode"
)

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff", ".webp"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	return slices.Contains(SupportedImageExtensions, strings.ToLower(filepath.Ext(path)))
}

// ImageLoadError reports an input image that could not be read or decoded.
// It matches decode.ErrImageLoad with errors.Is.
type ImageLoadError struct {
	Path      string
	Operation string
	Err       error
}

func (e *ImageLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("image load error in %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("image load error in %s for %s: %v", e.Operation, e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// Is makes every ImageLoadError match decode.ErrImageLoad.
func (e *ImageLoadError) Is(target error) bool { return target == decode.ErrImageLoad }

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Format    string `json:"format" yaml:"format"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
}

// LoadImage opens and decodes an image file, returning the image and metadata.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	if path == "" {
		return nil, ImageMetadata{}, &ImageLoadError{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupportedImage(path) {
		err := &ImageLoadError{Path: path, Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
		return nil, ImageMetadata{}, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided image file path is expected
	if err != nil {
		return nil, ImageMetadata{}, &ImageLoadError{Path: path, Operation: "load", Err: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("Error closing image file", "path", path, "error", err)
		}
	}()

	fi, err := f.Stat()
	if err != nil {
		return nil, ImageMetadata{}, &ImageLoadError{Path: path, Operation: "load", Err: err}
	}

	img, meta, err := DecodeImage(f)
	if err != nil {
		var le *ImageLoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, ImageMetadata{}, err
	}
	meta.Path = path
	meta.SizeBytes = fi.Size()
	return img, meta, nil
}

// DecodeImage decodes an image from r in any registered format.
func DecodeImage(r io.Reader) (image.Image, ImageMetadata, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, ImageMetadata{}, &ImageLoadError{Operation: "decode", Err: err}
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ImageMetadata{}, &ImageLoadError{Operation: "decode", Err: errors.New("image has no pixels")}
	}
	return img, ImageMetadata{Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}

// DecodeUpload decodes an uploaded image and rejects it when it falls outside
// DefaultImageConstraints, before any decode attempt runs.
func DecodeUpload(r io.Reader) (image.Image, ImageMetadata, error) {
	img, meta, err := DecodeImage(r)
	if err != nil {
		return nil, ImageMetadata{}, err
	}
	if err := ValidateImageConstraints(img, DefaultImageConstraints()); err != nil {
		return nil, ImageMetadata{}, err
	}
	return img, meta, nil
}

// ValidateImageConstraints checks dimensions against the provided constraints.
func ValidateImageConstraints(img image.Image, constraints ImageConstraints) error {
	if img == nil {
		return &ImageProcessingError{Operation: "validate", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < constraints.MinWidth || h < constraints.MinHeight {
		return &ImageProcessingError{
			Operation: "validate",
			Err:       fmt.Errorf("image too small: %dx%d < %dx%d", w, h, constraints.MinWidth, constraints.MinHeight),
		}
	}
	if (constraints.MaxWidth > 0 && w > constraints.MaxWidth) || (constraints.MaxHeight > 0 && h > constraints.MaxHeight) {
		return &ImageProcessingError{
			Operation: "validate",
			Err:       fmt.Errorf("image too large: %dx%d > %dx%d", w, h, constraints.MaxWidth, constraints.MaxHeight),
		}
	}
	return nil
}
