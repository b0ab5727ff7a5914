package utils

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/MeKo-Tech/codescan/internal/decode"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// Is makes a rejected input match decode.ErrImageLoad.
func (e *ImageProcessingError) Is(target error) bool { return target == decode.ErrImageLoad }

// ImageConstraints bounds the dimensions of accepted input images.
// A zero maximum means unbounded.
type ImageConstraints struct {
	MaxWidth  int
	MaxHeight int
	MinWidth  int
	MinHeight int
}

// DefaultImageConstraints returns the limits DecodeUpload applies.
// Codes need a few pixels per module, so tiny images are rejected early.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		MaxWidth:  12000,
		MaxHeight: 12000,
		MinWidth:  16,
		MinHeight: 16,
	}
}

// ToRGBA returns a copy of img as *image.RGBA with the same bounds.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
