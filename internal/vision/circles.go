package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"omr-grader/internal/grid"
	"omr-grader/internal/layout"
)

// CircleDetector finds answer bubbles with the Hough gradient method.
type CircleDetector struct {
	Params CircleParams
}

// NewCircleDetector creates a detector with the given parameters.
func NewCircleDetector(params CircleParams) *CircleDetector {
	return &CircleDetector{Params: params}
}

// detectCircles returns the circles in src, in src pixel coordinates.
func detectCircles(src gocv.Mat, params CircleParams) ([]grid.Blob, error) {
	if src.Empty() {
		return nil, fmt.Errorf("empty input image")
	}

	gray := src
	if src.Channels() > 1 {
		gray = gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := params.BlurKernel
	gocv.GaussianBlur(gray, &blurred, image.Point{k, k}, params.BlurSigma, params.BlurSigma, gocv.BorderDefault)

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(blurred, &circles, gocv.HoughGradient,
		params.DP, params.MinDist,
		params.Param1, params.Param2,
		params.MinRadius, params.MaxRadius)

	if circles.Empty() || circles.Cols() == 0 {
		return nil, nil
	}

	blobs := make([]grid.Blob, circles.Cols())
	for i := 0; i < circles.Cols(); i++ {
		blobs[i] = grid.Blob{
			X: float64(circles.GetFloatAt(0, i*3)),
			Y: float64(circles.GetFloatAt(0, i*3+1)),
			R: float64(circles.GetFloatAt(0, i*3+2)),
		}
	}
	return blobs, nil
}

// DetectColumns runs circle detection inside each column of the layout on a
// rectified two-tone sheet. Blobs are reported in column-local pixels, keyed by
// column index. The radius range follows the layout's bubble size.
func (d *CircleDetector) DetectColumns(canonical gocv.Mat, spec *layout.Spec) (map[int][]grid.Blob, error) {
	params := d.Params.ForLayout(spec)
	bounds := image.Rect(0, 0, canonical.Cols(), canonical.Rows())
	out := make(map[int][]grid.Blob, len(spec.Columns))

	for i, col := range spec.Columns {
		rect := col.Bounds.Rectangle()
		if !rect.In(bounds) {
			return nil, fmt.Errorf("column %d %v outside %dx%d image", i+1, rect, bounds.Dx(), bounds.Dy())
		}

		roi := canonical.Region(rect)
		blobs, err := detectCircles(roi, params)
		roi.Close()
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		out[i] = blobs
	}
	return out, nil
}
