package render

import (
	"image"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/codescan/internal/decode"
	"github.com/MeKo-Tech/codescan/internal/utils"
)

const (
	// MaxLabelRunes caps the payload text drawn next to the polygon.
	MaxLabelRunes = 50
	labelOffsetY  = 10
	labelPadding  = 2
)

// Annotate returns a copy of img with polygon drawn as a closed shape in the
// supplied vertex order and label written 10px above the first vertex.
// Polygon coordinates are in img's coordinate space.
func Annotate(img image.Image, polygon []decode.Point, label string, st Style) *image.RGBA {
	if img == nil {
		return nil
	}
	dst := utils.ToRGBA(img)
	if st.PolygonColor == nil || st.LabelColor == nil {
		def := DefaultStyle()
		if st.PolygonColor == nil {
			st.PolygonColor = def.PolygonColor
		}
		if st.LabelColor == nil {
			st.LabelColor = def.LabelColor
		}
	}

	pts := make([]image.Point, len(polygon))
	for i, p := range polygon {
		pts[i] = image.Pt(p.X, p.Y)
	}
	utils.DrawPolygon(dst, pts, st.PolygonColor, st.LineWidth)

	if label != "" && len(pts) > 0 {
		drawLabel(dst, TruncateLabel(label), pts[0], st)
	}
	return dst
}

// TruncateLabel shortens s to MaxLabelRunes runes.
func TruncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= MaxLabelRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxLabelRunes])
}

// drawLabel writes text with its baseline labelOffsetY above anchor, kept
// inside the frame.
func drawLabel(dst *image.RGBA, text string, anchor image.Point, st Style) {
	face := basicfont.Face7x13
	b := dst.Bounds()
	width := font.MeasureString(face, text).Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	descent := face.Metrics().Descent.Ceil()

	x := anchor.X
	if x+width > b.Max.X {
		x = b.Max.X - width
	}
	if x < b.Min.X {
		x = b.Min.X
	}
	y := anchor.Y - labelOffsetY
	if y-ascent < b.Min.Y {
		y = b.Min.Y + ascent
	}
	if y+descent > b.Max.Y {
		y = b.Max.Y - descent
	}

	if st.LabelBackground != nil {
		box := image.Rect(x-labelPadding, y-ascent-labelPadding, x+width+labelPadding, y+descent+labelPadding)
		utils.FillRect(dst, box, st.LabelBackground)
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(st.LabelColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
