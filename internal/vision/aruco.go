package vision

import (
	"fmt"

	"gocv.io/x/gocv"

	"omr-grader/internal/layout"
	"omr-grader/pkg/geometry"
)

// MarkerDetector finds the ArUco fiducials printed in the sheet corners.
type MarkerDetector struct {
	detector gocv.ArucoDetector
}

// NewMarkerDetector creates a detector for the 6x6 (250 IDs) dictionary the
// sheets are printed with. Call Close when done.
func NewMarkerDetector() *MarkerDetector {
	dict := gocv.GetPredefinedDictionary(gocv.ArucoDict6x6_250)
	params := gocv.NewArucoDetectorParameters()
	return &MarkerDetector{detector: gocv.NewArucoDetectorWithParams(dict, params)}
}

// Close releases the underlying OpenCV detector.
func (d *MarkerDetector) Close() error {
	return d.detector.Close()
}

// DetectMarkers returns every marker found in a BGR or grayscale image.
// Corners are in detection order: marker top-left, top-right, bottom-right,
// bottom-left.
func (d *MarkerDetector) DetectMarkers(src gocv.Mat) ([]layout.Marker, error) {
	if src.Empty() {
		return nil, fmt.Errorf("empty input image")
	}

	corners, ids, _ := d.detector.DetectMarkers(src)
	if len(corners) != len(ids) {
		return nil, fmt.Errorf("marker detector returned %d corner sets for %d ids", len(corners), len(ids))
	}

	markers := make([]layout.Marker, 0, len(ids))
	for i, id := range ids {
		if len(corners[i]) != 4 {
			continue
		}
		m := layout.Marker{ID: id}
		for j, c := range corners[i] {
			m.Corners[j] = geometry.Point2D{X: float64(c.X), Y: float64(c.Y)}
		}
		markers = append(markers, m)
	}
	return markers, nil
}

// MarkerIDs lists the IDs of the given markers in detection order.
func MarkerIDs(markers []layout.Marker) []int {
	ids := make([]int, len(markers))
	for i, m := range markers {
		ids[i] = m.ID
	}
	return ids
}
