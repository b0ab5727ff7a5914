package pipeline

import (
	"image"

	"github.com/MeKo-Tech/codescan/internal/render"
	"github.com/MeKo-Tech/codescan/internal/utils"
)

// RenderOverlay draws the result polygon and payload label over img and
// returns an RGBA copy. The polygon is already in img's original frame.
func RenderOverlay(img image.Image, res *ScanResult, st render.Style) *image.RGBA {
	if img == nil {
		return nil
	}
	if res == nil || !res.HasPolygon() {
		return utils.ToRGBA(img)
	}
	return render.Annotate(img, res.Polygon, res.Payload, st)
}
