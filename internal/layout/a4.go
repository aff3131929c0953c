package layout

import "omr-grader/pkg/geometry"

// A4 answer sheet
// Physical Characteristics:
// - Four ArUco markers (6x6 dictionary), IDs 1-4
// - 4 columns x 30 questions, 4 options per question
// - Rectified to a 2360 x 3388 canonical frame

const (
	// Canonical frame shared by all built-in layouts
	CanonicalWidth  = 2360
	CanonicalHeight = 3388

	A4QuestionsPerColumn = 30
	A4ColumnTop          = 1180
	A4ColumnBottom       = 3180

	A4FillThreshold = 120 // dark-sample level on the two-tone image
	A4BubbleDiam    = 33  // printed bubble diameter in canonical pixels
)

// Shared tuning for the built-in layouts
const (
	DefaultBinarizeThreshold = 140
	DefaultRowTolerance      = 15
)

// DefaultAnchorCorners maps each Position to the marker corner that lies on
// the sheet corner, for the marker orientation used by the printed sheets.
var DefaultAnchorCorners = [4]int{0, 3, 1, 2}

// A4Spec returns the built-in A4 layout.
func A4Spec() *Spec {
	xs := [][2]int{{200, 600}, {740, 1140}, {1313, 1713}, {1860, 2260}}
	// Rows spread evenly over the column window; decoding re-measures the
	// pitch from the detected rows.
	pitch := float64(A4ColumnBottom-A4ColumnTop) / A4QuestionsPerColumn

	columns := make([]ColumnRegion, len(xs))
	for i, x := range xs {
		columns[i] = ColumnRegion{
			Bounds:             geometry.NewRectFromCorners(x[0], A4ColumnTop, x[1], A4ColumnBottom),
			QuestionsPerColumn: A4QuestionsPerColumn,
			FirstRowY:          pitch / 2,
			RowPitch:           pitch,
		}
	}

	return &Spec{
		Name:              "A4",
		SizeClass:         SizeA4,
		MarkerIDs:         [4]int{1, 2, 3, 4},
		AnchorCorners:     DefaultAnchorCorners,
		CanonicalWidth:    CanonicalWidth,
		CanonicalHeight:   CanonicalHeight,
		Columns:           columns,
		FillThreshold:     A4FillThreshold,
		BinarizeThreshold: DefaultBinarizeThreshold,
		BubbleRadius:      A4BubbleDiam / 2,
		RowTolerance:      DefaultRowTolerance,
	}
}
