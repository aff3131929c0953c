package geometry

import "math"

// IsConvex returns true if the polygon vertices form a convex polygon.
// The polygon is assumed to be simple (non-self-intersecting).
func IsConvex(polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	n := len(polygon)
	var sign int

	for i := 0; i < n; i++ {
		cross := crossProduct(
			polygon[i],
			polygon[(i+1)%n],
			polygon[(i+2)%n],
		)

		if cross != 0 {
			currentSign := 1
			if cross < 0 {
				currentSign = -1
			}

			if sign == 0 {
				sign = currentSign
			} else if currentSign != sign {
				return false
			}
		}
	}

	return true
}

// Collinear reports whether three points lie on one line, within a tolerance
// relative to the length of the longest side.
func Collinear(a, b, c Point2D, tolerance float64) bool {
	longest := math.Max(a.Distance(b), math.Max(b.Distance(c), a.Distance(c)))
	if longest == 0 {
		return true
	}
	// |cross| = twice the triangle area; divide by the base for the height.
	height := math.Abs(crossProduct(a, b, c)) / longest
	return height <= tolerance*longest
}

// PolygonArea returns the unsigned area of a simple polygon (shoelace formula).
func PolygonArea(polygon []Point2D) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
