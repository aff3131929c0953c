package layout

import "omr-grader/pkg/geometry"

// A5 answer sheet
// Physical Characteristics:
// - Four ArUco markers (6x6 dictionary), IDs 5-8
// - 3 columns x 20 questions, larger bubbles than A4
// - Rectified to the same canonical frame as A4

const (
	A5QuestionsPerColumn = 20
	A5ColumnTop          = 1430
	A5ColumnBottom       = 3190

	A5FillThreshold = 60 // dark-sample level on the two-tone image
	A5BubbleDiam    = 42
)

// A5Spec returns the built-in A5 layout.
func A5Spec() *Spec {
	xs := [][2]int{{250, 750}, {950, 1480}, {1680, 2220}}
	// Rows spread evenly over the column window; decoding re-measures the
	// pitch from the detected rows.
	pitch := float64(A5ColumnBottom-A5ColumnTop) / A5QuestionsPerColumn

	columns := make([]ColumnRegion, len(xs))
	for i, x := range xs {
		columns[i] = ColumnRegion{
			Bounds:             geometry.NewRectFromCorners(x[0], A5ColumnTop, x[1], A5ColumnBottom),
			QuestionsPerColumn: A5QuestionsPerColumn,
			FirstRowY:          pitch / 2,
			RowPitch:           pitch,
		}
	}

	return &Spec{
		Name:              "A5",
		SizeClass:         SizeA5,
		MarkerIDs:         [4]int{5, 6, 7, 8},
		AnchorCorners:     DefaultAnchorCorners,
		CanonicalWidth:    CanonicalWidth,
		CanonicalHeight:   CanonicalHeight,
		Columns:           columns,
		FillThreshold:     A5FillThreshold,
		BinarizeThreshold: DefaultBinarizeThreshold,
		BubbleRadius:      A5BubbleDiam / 2,
		RowTolerance:      DefaultRowTolerance,
	}
}
