package decode

import (
	"image"

	"github.com/disintegration/imaging"
)

// rotateImage returns img rotated clockwise by r. Rotate0 returns img as is.
// imaging rotates counter-clockwise, so 90° clockwise is imaging.Rotate270.
func rotateImage(img image.Image, r Rotation) image.Image {
	switch r {
	case Rotate90CW:
		return imaging.Rotate270(img)
	case Rotate90CCW:
		return imaging.Rotate90(img)
	case Rotate180:
		return imaging.Rotate180(img)
	default:
		return img
	}
}

// RotatePoint maps a pixel of a w×h original image into the frame of the
// same image rotated clockwise by r.
func RotatePoint(p Point, r Rotation, w, h int) Point {
	switch r {
	case Rotate90CW:
		return Point{X: h - 1 - p.Y, Y: p.X}
	case Rotate90CCW:
		return Point{X: p.Y, Y: w - 1 - p.X}
	case Rotate180:
		return Point{X: w - 1 - p.X, Y: h - 1 - p.Y}
	default:
		return p
	}
}

// RemapPoint is the inverse of RotatePoint: it takes a point found on a
// candidate rotated by r and returns it in the w×h original frame.
func RemapPoint(p Point, r Rotation, w, h int) Point {
	switch r {
	case Rotate90CW:
		return Point{X: p.Y, Y: h - 1 - p.X}
	case Rotate90CCW:
		return Point{X: w - 1 - p.Y, Y: p.X}
	case Rotate180:
		return Point{X: w - 1 - p.X, Y: h - 1 - p.Y}
	default:
		return p
	}
}

// RemapPolygon maps every vertex back into the original frame, whose origin
// is bounds.Min. Vertex order is preserved.
func RemapPolygon(poly []Point, r Rotation, bounds image.Rectangle) []Point {
	if len(poly) == 0 {
		return nil
	}
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]Point, len(poly))
	for i, p := range poly {
		q := RemapPoint(p, r, w, h)
		out[i] = Point{X: q.X + bounds.Min.X, Y: q.Y + bounds.Min.Y}
	}
	return out
}
