// Package raster rasterizes a layer's ExPolygon set into an anti-aliased
// grayscale pixel plane (spec.md §4.10), the per-layer image an SLA printer
// driver projects. Archive packaging (.sl1/.sl2 zipping) is out of scope
// per spec.md's Non-goals; this package only produces in-memory planes.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/noctua3d/slasupport/geom"
)

// Resolution describes the pixel plane's dimensions and the millimetre
// extent they cover (spec.md §4.10 "display parameters").
type Resolution struct {
	WidthPx, HeightPx int
	WidthMm, HeightMm float64
}

func (r Resolution) pxPerMM() (float64, float64) {
	return float64(r.WidthPx) / r.WidthMm, float64(r.HeightPx) / r.HeightMm
}

// Mirroring flips the drawn plane about one or both axes (spec.md §4.10),
// matching how an SLA printer's LCD/mirror optics present the image.
type Mirroring int

const (
	MirrorNone Mirroring = iota
	MirrorX
	MirrorY
	MirrorXY
)

// Layer rasterizes every polygon in polys (already positioned in bed-space
// millimetres) onto a single Resolution-sized grayscale plane, even-odd
// filled so holes render correctly. mirror and gamma are applied at draw
// time rather than post-hoc, per spec.md §4.10: mirror flips the ring
// coordinates before they reach the path, and gamma reshapes the resulting
// per-pixel coverage. gamma <= 0 is treated as 1 (no reshaping).
func Layer(polys []geom.ExPolygon, res Resolution, mirror Mirroring, gamma float64) *image.Gray {
	dc := gg.NewContext(res.WidthPx, res.HeightPx)
	dc.SetColor(color.Black)
	dc.Clear()
	dc.SetColor(color.White)
	dc.SetFillRuleEvenOdd()

	sx, sy := res.pxPerMM()
	for _, poly := range polys {
		drawRing(dc, poly.Contour.Points, sx, sy, res.WidthPx, res.HeightPx, mirror)
		for _, h := range poly.Holes {
			drawRing(dc, h.Points, sx, sy, res.WidthPx, res.HeightPx, mirror)
		}
		dc.Fill()
	}

	return toGray(dc.Image(), gamma)
}

func drawRing(dc *gg.Context, pts []geom.Point2, sx, sy float64, widthPx, heightPx int, mirror Mirroring) {
	if len(pts) == 0 {
		return
	}
	flipX := mirror == MirrorX || mirror == MirrorXY
	flipY := mirror == MirrorY || mirror == MirrorXY
	for i, p := range pts {
		v := p.ToVec2()
		x := v.X() * sx
		y := float64(heightPx) - v.Y()*sy
		if flipX {
			x = float64(widthPx) - x
		}
		if flipY {
			y = float64(heightPx) - y
		}
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}

func toGray(src image.Image, gamma float64) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
	applyGamma(dst, gamma)
	return dst
}

// applyGamma reshapes every pixel's coverage value by v -> 255*(v/255)^gamma,
// matching the "analytic area-sampling" plane's documented draw-time gamma
// (spec.md §4.10). gamma <= 0 is a no-op, preserving the linear mapping
// Layer's raster_white_area/geometric-area equivalence depends on.
func applyGamma(img *image.Gray, gamma float64) {
	if gamma <= 0 || gamma == 1 {
		return
	}
	for i, v := range img.Pix {
		img.Pix[i] = uint8(math.Round(255 * math.Pow(float64(v)/255, gamma)))
	}
}
