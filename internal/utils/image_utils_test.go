package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

var red = color.RGBA{R: 255, A: 255}

func isRed(img *image.RGBA, x, y int) bool {
	return img.RGBAAt(x, y) == red
}

func TestDrawPolygonClosesShape(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	pts := []image.Point{{2, 2}, {15, 2}, {15, 15}, {2, 15}}
	DrawPolygon(dst, pts, red, 1)

	for _, p := range pts {
		assert.True(t, isRed(dst, p.X, p.Y), "vertex %v", p)
	}
	// Closing edge from the last vertex back to the first.
	assert.True(t, isRed(dst, 2, 8))
	assert.False(t, isRed(dst, 8, 8))
}

func TestDrawPolygonClipsOutOfBounds(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.NotPanics(t, func() {
		DrawPolygon(dst, []image.Point{{-5, -5}, {30, 4}, {4, 30}}, red, 3)
	})

	single := image.NewRGBA(image.Rect(0, 0, 4, 4))
	DrawPolygon(single, []image.Point{{1, 1}}, red, 1)
	assert.False(t, isRed(single, 1, 1))
}

func TestFillRect(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	FillRect(dst, image.Rect(2, 2, 10, 10), red)
	assert.True(t, isRed(dst, 3, 3))
	assert.False(t, isRed(dst, 1, 1))
}

func TestToRGBA(t *testing.T) {
	src := image.NewGray(image.Rect(2, 3, 6, 8))
	src.SetGray(2, 3, color.Gray{Y: 255})
	dst := ToRGBA(src)
	assert.Equal(t, src.Bounds(), dst.Bounds())
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, dst.RGBAAt(2, 3))
}
