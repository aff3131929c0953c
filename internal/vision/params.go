// Package vision wraps the OpenCV operations used to read a photographed
// answer sheet: fiducial detection, rectification, binarization and bubble
// detection.
package vision

import "omr-grader/internal/layout"

// CircleParams tunes Hough circle detection of answer bubbles.
type CircleParams struct {
	// Pre-blur applied before the Hough transform
	BlurKernel int     // Odd kernel size in pixels
	BlurSigma  float64 // Gaussian sigma

	// Hough gradient parameters
	DP      float64 // Inverse accumulator resolution
	MinDist float64 // Minimum distance between circle centres
	Param1  float64 // Upper Canny threshold
	Param2  float64 // Accumulator threshold; lower finds more circles

	MinRadius int // Smallest accepted radius in pixels
	MaxRadius int // Largest accepted radius in pixels
}

// RadiusBand is added to the minimum bubble radius to get the maximum.
const RadiusBand = 10

// DefaultCircleParams returns parameters tuned for printed bubbles on a
// canonical 2360 x 3388 sheet.
func DefaultCircleParams() CircleParams {
	return CircleParams{
		BlurKernel: 9,
		BlurSigma:  5,

		DP:      1.2,
		MinDist: 40,
		Param1:  50,
		Param2:  30,

		MinRadius: layout.A4BubbleDiam / 2,
		MaxRadius: layout.A4BubbleDiam/2 + RadiusBand,
	}
}

// WithRadius returns a copy of params accepting radii from minRadius to
// minRadius+RadiusBand.
func (p CircleParams) WithRadius(minRadius int) CircleParams {
	if minRadius < 1 {
		minRadius = 1
	}
	p.MinRadius = minRadius
	p.MaxRadius = minRadius + RadiusBand
	return p
}

// ForLayout returns a copy of params sized for the layout's bubbles.
func (p CircleParams) ForLayout(spec *layout.Spec) CircleParams {
	return p.WithRadius(spec.BubbleRadius)
}
