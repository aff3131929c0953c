package alignment

import (
	"errors"
	"testing"

	"omr-grader/pkg/geometry"
)

func TestComputeHomography_Rectangle(t *testing.T) {
	src := geometry.Quad{
		TopLeft:     geometry.Point2D{X: 100, Y: 50},
		TopRight:    geometry.Point2D{X: 1280, Y: 50},
		BottomLeft:  geometry.Point2D{X: 100, Y: 1744},
		BottomRight: geometry.Point2D{X: 1280, Y: 1744},
	}

	h, err := ComputeHomography(src, 2360, 3388)
	if err != nil {
		t.Fatalf("ComputeHomography failed: %v", err)
	}
	if e := ProjectionError(h, src, 2360, 3388); e > 1e-6 {
		t.Errorf("projection error: got %g, want ~0", e)
	}

	// The sheet centre maps to the canonical centre.
	mid, ok := h.Apply(geometry.Point2D{X: 690, Y: 897})
	if !ok {
		t.Fatal("centre mapped to infinity")
	}
	if d := mid.Distance(geometry.Point2D{X: 2359.0 / 2, Y: 3387.0 / 2}); d > 1e-6 {
		t.Errorf("centre: got %+v (off by %g)", mid, d)
	}
}

func TestComputeHomography_Perspective(t *testing.T) {
	src := geometry.Quad{
		TopLeft:     geometry.Point2D{X: 320, Y: 210},
		TopRight:    geometry.Point2D{X: 2710, Y: 160},
		BottomLeft:  geometry.Point2D{X: 150, Y: 3900},
		BottomRight: geometry.Point2D{X: 2950, Y: 3820},
	}

	h, err := ComputeHomography(src, 2360, 3388)
	if err != nil {
		t.Fatalf("ComputeHomography failed: %v", err)
	}
	if e := ProjectionError(h, src, 2360, 3388); e > 1e-6 {
		t.Errorf("projection error: got %g, want ~0", e)
	}
}

func TestComputeHomography_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		quad geometry.Quad
	}{
		{"collinear", geometry.Quad{
			TopLeft:     geometry.Point2D{X: 0, Y: 0},
			TopRight:    geometry.Point2D{X: 100, Y: 0},
			BottomLeft:  geometry.Point2D{X: 200, Y: 0},
			BottomRight: geometry.Point2D{X: 300, Y: 50},
		}},
		{"coincident", geometry.Quad{}},
		{"crossed", geometry.Quad{
			TopLeft:     geometry.Point2D{X: 100, Y: 0},
			TopRight:    geometry.Point2D{X: 0, Y: 0},
			BottomLeft:  geometry.Point2D{X: 0, Y: 100},
			BottomRight: geometry.Point2D{X: 100, Y: 100},
		}},
		{"tiny", geometry.Quad{
			TopLeft:     geometry.Point2D{X: 50, Y: 50},
			TopRight:    geometry.Point2D{X: 62, Y: 50},
			BottomLeft:  geometry.Point2D{X: 50, Y: 67},
			BottomRight: geometry.Point2D{X: 62, Y: 67},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeHomography(tt.quad, 2360, 3388)
			if !errors.Is(err, ErrDegenerateQuadrilateral) {
				t.Errorf("expected ErrDegenerateQuadrilateral, got %v", err)
			}
		})
	}
}
