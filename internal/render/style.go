package render

import (
	"fmt"
	"image/color"
	"strings"
)

// Style controls how annotations are drawn and encoded.
type Style struct {
	PolygonColor    color.Color
	LabelColor      color.Color
	LabelBackground color.Color // nil draws the label without a backdrop
	LineWidth       int
	// Quality is used for jpg and webp output (1-100).
	Quality int
}

// DefaultStyle returns green polygons with a red label, as the decoder
// scripts have always drawn them.
func DefaultStyle() Style {
	return Style{
		PolygonColor:    color.RGBA{0, 255, 0, 255},
		LabelColor:      color.RGBA{255, 0, 0, 255},
		LabelBackground: color.RGBA{255, 255, 255, 200},
		LineWidth:       2,
		Quality:         90,
	}
}

// NewStyle builds a Style from hex colors; empty strings keep the defaults.
func NewStyle(polygonHex, labelHex string, lineWidth, quality int) (Style, error) {
	st := DefaultStyle()
	if polygonHex != "" {
		c, err := ParseHexColor(polygonHex)
		if err != nil {
			return Style{}, err
		}
		st.PolygonColor = c
	}
	if labelHex != "" {
		c, err := ParseHexColor(labelHex)
		if err != nil {
			return Style{}, err
		}
		st.LabelColor = c
	}
	if lineWidth > 0 {
		st.LineWidth = lineWidth
	}
	if quality > 0 {
		st.Quality = quality
	}
	return st, nil
}

// ParseHexColor parses colors like "#RRGGBB" or "RRGGBB".
func ParseHexColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return nil, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	var rv, gv, bv int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{uint8(rv), uint8(gv), uint8(bv), 255}, nil //nolint:gosec // G115: two hex digits fit in uint8
}
