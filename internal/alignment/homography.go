package alignment

import (
	"errors"
	"fmt"
	"math"

	"omr-grader/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateQuadrilateral is returned when four corners cannot define an
// invertible perspective mapping.
var ErrDegenerateQuadrilateral = errors.New("degenerate quadrilateral")

// collinearTolerance is the largest triangle height, relative to its longest
// side, at which three corners are treated as lying on one line.
const collinearTolerance = 1e-3

// minQuadArea is the smallest outline, in square source pixels, that is
// worth rectifying onto a full canonical sheet.
const minQuadArea = 400

// CanonicalQuad returns the corners of a width x height canonical image.
func CanonicalQuad(width, height int) geometry.Quad {
	w, h := float64(width-1), float64(height-1)
	return geometry.Quad{
		TopLeft:     geometry.Point2D{X: 0, Y: 0},
		TopRight:    geometry.Point2D{X: w, Y: 0},
		BottomLeft:  geometry.Point2D{X: 0, Y: h},
		BottomRight: geometry.Point2D{X: w, Y: h},
	}
}

// ComputeHomography computes the perspective transform that maps the source
// quadrilateral onto the corners of a width x height canonical image.
func ComputeHomography(src geometry.Quad, width, height int) (geometry.Homography, error) {
	if width < 2 || height < 2 {
		return geometry.Homography{}, fmt.Errorf("canonical size %dx%d too small", width, height)
	}
	if err := CheckQuad(src); err != nil {
		return geometry.Homography{}, err
	}
	return computeHomographyFromPoints(src.Points(), CanonicalQuad(width, height).Points())
}

// CheckQuad rejects outlines that cannot be rectified: any three corners on
// one line, corners out of order so the outline crosses itself, or an
// outline too small to hold a readable sheet.
func CheckQuad(q geometry.Quad) error {
	pts := q.Outline()
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			for k := j + 1; k < len(pts); k++ {
				if geometry.Collinear(pts[i], pts[j], pts[k], collinearTolerance) {
					return fmt.Errorf("%w: corners %v, %v, %v are collinear",
						ErrDegenerateQuadrilateral, pts[i], pts[j], pts[k])
				}
			}
		}
	}
	if !geometry.IsConvex(pts) {
		return fmt.Errorf("%w: outline is not convex", ErrDegenerateQuadrilateral)
	}
	if area := geometry.PolygonArea(pts); area < minQuadArea {
		return fmt.Errorf("%w: outline encloses only %.0f px²", ErrDegenerateQuadrilateral, area)
	}
	return nil
}

// computeHomographyFromPoints solves for the 8 homography parameters from
// exactly 4 point pairs. Points are normalized first so pixel-scale
// coordinates do not make the system ill-conditioned.
func computeHomographyFromPoints(src, dst [4]geometry.Point2D) (geometry.Homography, error) {
	ts, srcN := normalizePoints(src)
	td, dstN := normalizePoints(dst)

	// Build matrix equation for [a b c d e f g h]:
	// x' = (a*x + b*y + c) / (g*x + h*y + 1)
	// y' = (d*x + e*y + f) / (g*x + h*y + 1)
	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := srcN[i].X, srcN[i].Y
		xp, yp := dstN[i].X, dstN[i].Y

		A.SetRow(i*2, []float64{x, y, 1, 0, 0, 0, -x * xp, -y * xp})
		B.SetVec(i*2, xp)

		A.SetRow(i*2+1, []float64{0, 0, 0, x, y, 1, -x * yp, -y * yp})
		B.SetVec(i*2+1, yp)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return geometry.Homography{}, fmt.Errorf("%w: %v", ErrDegenerateQuadrilateral, err)
	}

	hn := mat.NewDense(3, 3, []float64{
		params.AtVec(0), params.AtVec(1), params.AtVec(2),
		params.AtVec(3), params.AtVec(4), params.AtVec(5),
		params.AtVec(6), params.AtVec(7), 1,
	})

	// Undo normalization: H = inv(Td) * Hn * Ts
	var tdInv mat.Dense
	if err := tdInv.Inverse(td); err != nil {
		return geometry.Homography{}, fmt.Errorf("%w: %v", ErrDegenerateQuadrilateral, err)
	}
	var tmp, full mat.Dense
	tmp.Mul(hn, ts)
	full.Mul(&tdInv, &tmp)

	scale := full.At(2, 2)
	if math.Abs(scale) < 1e-12 {
		return geometry.Homography{}, fmt.Errorf("%w: transform maps to infinity", ErrDegenerateQuadrilateral)
	}

	var h geometry.Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h.M[r][c] = full.At(r, c) / scale
		}
	}

	det := h.Determinant()
	if math.IsNaN(det) || math.Abs(det) < 1e-12 {
		return geometry.Homography{}, fmt.Errorf("%w: transform is not invertible", ErrDegenerateQuadrilateral)
	}
	return h, nil
}

// normalizePoints translates points to their centroid and scales them to a
// mean distance of sqrt(2). It returns the similarity applied and the
// transformed points.
func normalizePoints(pts [4]geometry.Point2D) (*mat.Dense, [4]geometry.Point2D) {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= 4
	cy /= 4

	var meanDist float64
	for _, p := range pts {
		meanDist += math.Hypot(p.X-cx, p.Y-cy)
	}
	meanDist /= 4

	s := 1.0
	if meanDist > 0 {
		s = math.Sqrt2 / meanDist
	}

	var out [4]geometry.Point2D
	for i, p := range pts {
		out[i] = geometry.Point2D{X: (p.X - cx) * s, Y: (p.Y - cy) * s}
	}

	t := mat.NewDense(3, 3, []float64{
		s, 0, -s * cx,
		0, s, -s * cy,
		0, 0, 1,
	})
	return t, out
}

// ProjectionError returns the mean distance between the canonical corners
// and the source corners mapped through h.
func ProjectionError(h geometry.Homography, src geometry.Quad, width, height int) float64 {
	want := CanonicalQuad(width, height).Points()
	var total float64
	for i, p := range src.Points() {
		got, ok := h.Apply(p)
		if !ok {
			return math.Inf(1)
		}
		total += got.Distance(want[i])
	}
	return total / 4
}
