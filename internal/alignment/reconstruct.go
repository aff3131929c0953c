package alignment

import (
	"errors"
	"fmt"
	"math"

	"omr-grader/internal/layout"
	"omr-grader/pkg/geometry"
)

// ErrInsufficientMarkers is returned when fewer than two sheet corners were observed.
var ErrInsufficientMarkers = errors.New("insufficient markers")

// Corner is one sheet corner observation: a known point or unknown.
type Corner struct {
	Point geometry.Point2D
	Known bool
}

// Known returns an observed corner.
func Known(p geometry.Point2D) Corner {
	return Corner{Point: p, Known: true}
}

// Unknown is a corner that was not observed.
var Unknown = Corner{}

// Corner indices, in the order used by Quad.
const (
	cornerTL = iota
	cornerTR
	cornerBL
	cornerBR
)

// ReconstructQuad completes a sheet outline from 2-4 observed corners.
//
// Corners are indexed top-left, top-right, bottom-left, bottom-right; ratio is
// the canonical width / height. With 3 corners the fourth follows from the
// parallelogram identity. With 2 corners on one edge the opposite edge is
// projected perpendicular to it; with 2 diagonal corners the diagonal is split
// into width and height by the ratio.
//
// The result assumes the sheet is close to a rectangle in the photo. Strong
// perspective skew makes estimated corners less accurate; this is not detected.
func ReconstructQuad(c [4]Corner, ratio float64) (geometry.Quad, error) {
	known := ObservedCount(c)
	if known < layout.MinMarkers {
		return geometry.Quad{}, fmt.Errorf("%w: %d of 4 corners observed", ErrInsufficientMarkers, known)
	}
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return geometry.Quad{}, fmt.Errorf("invalid aspect ratio %v", ratio)
	}

	tl, tr, bl, br := c[cornerTL].Point, c[cornerTR].Point, c[cornerBL].Point, c[cornerBR].Point
	has := func(i int) bool { return c[i].Known }

	switch known {
	case 4:
		// nothing to estimate
	case 3:
		switch {
		case !has(cornerTL):
			tl = tr.Add(bl.Sub(br))
		case !has(cornerTR):
			tr = tl.Add(br.Sub(bl))
		case !has(cornerBL):
			bl = tl.Add(br.Sub(tr))
		case !has(cornerBR):
			br = tr.Add(bl.Sub(tl))
		}
	case 2:
		switch {
		case has(cornerTL) && has(cornerTR):
			off := edgeOffset(tr.Sub(tl), 1/ratio)
			bl, br = tl.Add(off), tr.Add(off)
		case has(cornerBL) && has(cornerBR):
			off := edgeOffset(br.Sub(bl), 1/ratio)
			tl, tr = bl.Sub(off), br.Sub(off)
		case has(cornerTL) && has(cornerBL):
			off := edgeOffset(bl.Sub(tl), ratio).Scale(-1)
			tr, br = tl.Add(off), bl.Add(off)
		case has(cornerTR) && has(cornerBR):
			off := edgeOffset(br.Sub(tr), ratio).Scale(-1)
			tl, bl = tr.Sub(off), br.Sub(off)
		case has(cornerTL) && has(cornerBR):
			u, w, h := diagonalAxes(br.Sub(tl), geometry.Point2D{X: ratio, Y: 1}, ratio)
			tr = tl.Add(u.Scale(w))
			bl = tl.Add(u.Perp().Scale(h))
		case has(cornerTR) && has(cornerBL):
			u, w, _ := diagonalAxes(bl.Sub(tr), geometry.Point2D{X: -ratio, Y: 1}, ratio)
			tl = tr.Sub(u.Scale(w))
			br = bl.Add(u.Scale(w))
		}
	}

	return geometry.Quad{TopLeft: tl, TopRight: tr, BottomLeft: bl, BottomRight: br}, nil
}

// edgeOffset returns the vector perpendicular (+90 degrees) to edge with
// length |edge| * factor.
func edgeOffset(edge geometry.Point2D, factor float64) geometry.Point2D {
	return edge.Unit().Perp().Scale(edge.Norm() * factor)
}

// diagonalAxes splits an observed diagonal into the sheet's horizontal unit
// axis and the width and height along it. canonical is the diagonal's
// direction on an upright sheet.
func diagonalAxes(diag, canonical geometry.Point2D, ratio float64) (u geometry.Point2D, width, height float64) {
	d := diag.Norm()
	k := math.Sqrt(1 + ratio*ratio)
	width = d * ratio / k
	height = d / k

	phi := diag.Angle() - canonical.Angle()
	u = geometry.Point2D{X: 1, Y: 0}.Rotate(phi)
	return u, width, height
}
