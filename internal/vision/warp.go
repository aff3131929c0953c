package vision

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"omr-grader/pkg/geometry"
)

// Rectify resamples src through the homography h into a width x height image.
// Pixels that map from outside src are filled white so they never read as
// pencil marks.
func Rectify(src gocv.Mat, h geometry.Homography, width, height int) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.Mat{}, fmt.Errorf("empty input image")
	}
	if width <= 0 || height <= 0 {
		return gocv.Mat{}, fmt.Errorf("invalid output size %dx%d", width, height)
	}

	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer m.Close()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.SetDoubleAt(r, c, h.M[r][c])
		}
	}

	dst := gocv.NewMat()
	gocv.WarpPerspectiveWithParams(src, &dst, m, image.Point{width, height},
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return dst, nil
}
