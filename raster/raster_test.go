package raster

import (
	"testing"

	"github.com/noctua3d/slasupport/geom"
)

func square(x0, y0, side float64) geom.Polygon {
	return geom.Polygon{Points: []geom.Point2{
		{geom.ToCoord(x0), geom.ToCoord(y0)},
		{geom.ToCoord(x0 + side), geom.ToCoord(y0)},
		{geom.ToCoord(x0 + side), geom.ToCoord(y0 + side)},
		{geom.ToCoord(x0), geom.ToCoord(y0 + side)},
	}}
}

func TestLayerDimensionsMatchResolution(t *testing.T) {
	res := Resolution{WidthPx: 100, HeightPx: 100, WidthMm: 10, HeightMm: 10}
	img := Layer(nil, res, MirrorNone, 1)
	b := img.Bounds()
	if b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("expected a 100x100 image, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestLayerFillsInsidePolygonWhiteAndOutsideBlack(t *testing.T) {
	res := Resolution{WidthPx: 100, HeightPx: 100, WidthMm: 10, HeightMm: 10}
	poly := geom.ExPolygon{Contour: square(2, 2, 6)}
	img := Layer([]geom.ExPolygon{poly}, res, MirrorNone, 1)

	insideV := img.GrayAt(50, 50).Y
	outsideV := img.GrayAt(5, 5).Y
	if insideV < 200 {
		t.Fatalf("expected a point inside the filled square to be near-white, got %d", insideV)
	}
	if outsideV > 50 {
		t.Fatalf("expected a point outside the square to be near-black, got %d", outsideV)
	}
}

func TestLayerHoleRendersBlack(t *testing.T) {
	res := Resolution{WidthPx: 100, HeightPx: 100, WidthMm: 10, HeightMm: 10}
	poly := geom.ExPolygon{Contour: square(1, 1, 8), Holes: []geom.Polygon{square(4, 4, 2)}}
	img := Layer([]geom.ExPolygon{poly}, res, MirrorNone, 1)

	holeV := img.GrayAt(50, 50).Y
	if holeV > 50 {
		t.Fatalf("expected the hole's centre to render near-black, got %d", holeV)
	}
}

func TestLayerMirrorXFlipsHorizontally(t *testing.T) {
	res := Resolution{WidthPx: 100, HeightPx: 100, WidthMm: 10, HeightMm: 10}
	// A square near the left edge in bed-space: MirrorX should move its
	// bright pixels to the right edge of the plane.
	poly := geom.ExPolygon{Contour: square(0, 4, 2)}
	img := Layer([]geom.ExPolygon{poly}, res, MirrorX, 1)

	leftV := img.GrayAt(5, 50).Y
	rightV := img.GrayAt(95, 50).Y
	if leftV > 50 {
		t.Fatalf("expected the mirrored plane's left edge to be dark, got %d", leftV)
	}
	if rightV < 200 {
		t.Fatalf("expected the mirrored plane's right edge to be bright, got %d", rightV)
	}
}

func TestLayerGammaDarkensMidtones(t *testing.T) {
	res := Resolution{WidthPx: 10, HeightPx: 10, WidthMm: 10, HeightMm: 10}
	poly := geom.ExPolygon{Contour: square(2.5, 2.5, 5)}

	linear := Layer([]geom.ExPolygon{poly}, res, MirrorNone, 1)
	gammaed := Layer([]geom.ExPolygon{poly}, res, MirrorNone, 2.2)

	// Deep interior pixels are saturated white/black either way; compare the
	// full plane sum instead, which gamma > 1 must reduce.
	var sumLinear, sumGamma int
	for i := range linear.Pix {
		sumLinear += int(linear.Pix[i])
		sumGamma += int(gammaed.Pix[i])
	}
	if sumGamma >= sumLinear {
		t.Fatalf("expected gamma 2.2 to darken the plane relative to gamma 1, got sums %d (linear) vs %d (gamma)", sumLinear, sumGamma)
	}
}
