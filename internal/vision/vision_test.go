package vision

import (
	"image"
	"image/color"
	"math"
	"testing"

	"gocv.io/x/gocv"

	"omr-grader/internal/layout"
	"omr-grader/pkg/geometry"
)

// createTestMat returns a white single-channel w x h Mat.
func createTestMat(w, h int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), h, w, gocv.MatTypeCV8UC1)
}

func TestCircleParams_ForLayout(t *testing.T) {
	p := DefaultCircleParams()
	if p.MinRadius != 16 || p.MaxRadius != 26 {
		t.Errorf("default radius range: got %d-%d, want 16-26", p.MinRadius, p.MaxRadius)
	}

	a5 := p.ForLayout(layout.A5Spec())
	if a5.MinRadius != 21 || a5.MaxRadius != 31 {
		t.Errorf("A5 radius range: got %d-%d, want 21-31", a5.MinRadius, a5.MaxRadius)
	}
	if p.MinRadius != 16 {
		t.Error("ForLayout modified the receiver")
	}
}

func TestTwoTone(t *testing.T) {
	src := gocv.NewMatWithSize(1, 3, gocv.MatTypeCV8UC1)
	defer src.Close()
	src.SetUCharAt(0, 0, 10)
	src.SetUCharAt(0, 1, 140)
	src.SetUCharAt(0, 2, 200)

	dst, err := TwoTone(src, 140)
	if err != nil {
		t.Fatalf("TwoTone: %v", err)
	}
	defer dst.Close()

	img, err := MatToGray(dst)
	if err != nil {
		t.Fatalf("MatToGray: %v", err)
	}
	want := []uint8{0, 0, 255}
	for x, w := range want {
		if got := img.GrayAt(x, 0).Y; got != w {
			t.Errorf("pixel %d: got %d, want %d", x, got, w)
		}
	}
}

func TestMatToGray_RejectsColor(t *testing.T) {
	m := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
	defer m.Close()
	if _, err := MatToGray(m); err == nil {
		t.Error("expected error for a 3-channel Mat")
	}
}

func TestRectify_Scale(t *testing.T) {
	src := createTestMat(100, 100)
	defer src.Close()
	// Dark square at (20,20)-(40,40)
	gocv.Rectangle(&src, image.Rect(20, 20, 40, 40), color.RGBA{0, 0, 0, 255}, -1)

	// Map source pixels to a frame twice the size.
	h := geometry.Homography{M: [3][3]float64{{2, 0, 0}, {0, 2, 0}, {0, 0, 1}}}
	dst, err := Rectify(src, h, 200, 200)
	if err != nil {
		t.Fatalf("Rectify: %v", err)
	}
	defer dst.Close()

	if dst.Cols() != 200 || dst.Rows() != 200 {
		t.Fatalf("size: got %dx%d", dst.Cols(), dst.Rows())
	}
	if v := dst.GetUCharAt(60, 60); v > 50 {
		t.Errorf("centre of scaled square: got %d, want dark", v)
	}
	if v := dst.GetUCharAt(150, 150); v < 200 {
		t.Errorf("background: got %d, want white", v)
	}
}

func TestRectify_Errors(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := Rectify(empty, geometry.Homography{}, 10, 10); err == nil {
		t.Error("expected error for empty image")
	}

	src := createTestMat(10, 10)
	defer src.Close()
	if _, err := Rectify(src, geometry.Homography{}, 0, 10); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestDetectCircles_TwoToneRings(t *testing.T) {
	src := createTestMat(400, 120)
	defer src.Close()

	centres := []image.Point{{60, 60}, {160, 60}, {260, 60}, {360, 60}}
	for _, c := range centres {
		gocv.Circle(&src, c, 20, color.RGBA{0, 0, 0, 255}, 3)
	}

	sheet, err := TwoTone(src, 140)
	if err != nil {
		t.Fatalf("TwoTone: %v", err)
	}
	defer sheet.Close()

	blobs, err := detectCircles(sheet, DefaultCircleParams().WithRadius(16))
	if err != nil {
		t.Fatalf("detectCircles: %v", err)
	}
	if len(blobs) != len(centres) {
		t.Fatalf("circles: got %d, want %d (%v)", len(blobs), len(centres), blobs)
	}

	for _, c := range centres {
		found := false
		for _, b := range blobs {
			if math.Hypot(b.X-float64(c.X), b.Y-float64(c.Y)) < 6 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no circle detected near %v", c)
		}
	}
}

func TestCircleDetector_DetectColumnsOutOfBounds(t *testing.T) {
	src := createTestMat(100, 100)
	defer src.Close()

	d := NewCircleDetector(DefaultCircleParams())
	if _, err := d.DetectColumns(src, layout.A4Spec()); err == nil {
		t.Error("expected error when columns lie outside the image")
	}
}

func TestMarkerIDs(t *testing.T) {
	ids := MarkerIDs([]layout.Marker{{ID: 3}, {ID: 1}})
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 1 {
		t.Errorf("got %v", ids)
	}
}
