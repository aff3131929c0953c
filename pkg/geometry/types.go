// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"image"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Norm returns the length of the point treated as a vector.
func (p Point2D) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Angle returns the direction of the vector in radians.
func (p Point2D) Angle() float64 {
	return math.Atan2(p.Y, p.X)
}

// Rotate returns the vector rotated by the given angle around the origin.
// In image coordinates (Y down) a positive angle turns clockwise on screen.
func (p Point2D) Rotate(radians float64) Point2D {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Point2D{
		X: cos*p.X - sin*p.Y,
		Y: sin*p.X + cos*p.Y,
	}
}

// Perp returns the vector rotated by +90 degrees: (x, y) -> (-y, x).
func (p Point2D) Perp() Point2D {
	return Point2D{X: -p.Y, Y: p.X}
}

// Unit returns the vector scaled to length 1. A zero vector is returned unchanged.
func (p Point2D) Unit() Point2D {
	n := p.Norm()
	if n == 0 {
		return p
	}
	return Point2D{X: p.X / n, Y: p.Y / n}
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRectFromCorners builds a RectInt from inclusive top-left and exclusive
// bottom-right coordinates.
func NewRectFromCorners(x1, y1, x2, y2 int) RectInt {
	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Rectangle converts to an image.Rectangle.
func (r RectInt) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Overlaps returns true if the two rectangles share any interior area.
func (r RectInt) Overlaps(other RectInt) bool {
	return r.Rectangle().Overlaps(other.Rectangle())
}

// Empty returns true if the rectangle has no area.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// Ratio returns width / height, or 0 for a zero height.
func (s Size) Ratio() float64 {
	if s.Height == 0 {
		return 0
	}
	return s.Width / s.Height
}

// Quad is a sheet outline in source-image pixels.
// Corner order is top-left, top-right, bottom-left, bottom-right.
type Quad struct {
	TopLeft     Point2D `json:"top_left"`
	TopRight    Point2D `json:"top_right"`
	BottomLeft  Point2D `json:"bottom_left"`
	BottomRight Point2D `json:"bottom_right"`
}

// Points returns the corners in TL, TR, BL, BR order.
func (q Quad) Points() [4]Point2D {
	return [4]Point2D{q.TopLeft, q.TopRight, q.BottomLeft, q.BottomRight}
}

// Outline returns the corners in cyclic order (TL, TR, BR, BL), suitable
// for polygon routines.
func (q Quad) Outline() []Point2D {
	return []Point2D{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// Homography represents a 3x3 perspective transformation matrix.
// [a b c]
// [d e f]
// [g h 1]
type Homography struct {
	M [3][3]float64
}

// Apply maps a point through the homography. The second return value is
// false when the point maps to infinity.
func (h Homography) Apply(p Point2D) (Point2D, bool) {
	m := h.M
	w := m[2][0]*p.X + m[2][1]*p.Y + m[2][2]
	if math.Abs(w) < 1e-12 {
		return Point2D{}, false
	}
	return Point2D{
		X: (m[0][0]*p.X + m[0][1]*p.Y + m[0][2]) / w,
		Y: (m[1][0]*p.X + m[1][1]*p.Y + m[1][2]) / w,
	}, true
}

// Determinant returns the determinant of the matrix.
func (h Homography) Determinant() float64 {
	m := h.M
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}
