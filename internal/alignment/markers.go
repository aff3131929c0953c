package alignment

import (
	"omr-grader/internal/layout"
)

// CornerObservations maps detected markers onto the four sheet corners of a
// layout. Markers that do not belong to the layout are ignored; when a marker
// ID is reported more than once the first detection is used.
func CornerObservations(markers []layout.Marker, spec *layout.Spec) [4]Corner {
	var corners [4]Corner
	for _, m := range markers {
		pos, ok := spec.PositionOf(m.ID)
		if !ok || corners[pos].Known {
			continue
		}
		anchor := spec.AnchorCorners[pos]
		corners[pos] = Known(m.Corners[anchor])
	}
	return corners
}

// ObservedCount returns the number of known corners.
func ObservedCount(corners [4]Corner) int {
	n := 0
	for _, c := range corners {
		if c.Known {
			n++
		}
	}
	return n
}
