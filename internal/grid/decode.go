package grid

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MinRowFraction is the share of printed rows below which a column is
// reported as poorly detected.
const MinRowFraction = 0.7

// Column describes one printed column for decoding.
type Column struct {
	Base      int     // Questions printed before this column
	Questions int     // Rows printed in this column
	FirstRowY float64 // Expected column-local centre of the first row
	RowPitch  float64 // Expected distance between row centres; 0 numbers rows in found order
}

// ColumnDecode is the result of decoding one column.
type ColumnDecode struct {
	Assignments []Assignment `json:"assignments"`
	Rows        int          `json:"rows"` // Rows mapped to a question
	Advisories  []Advisory   `json:"advisories,omitempty"`
}

// GroupRows sorts blobs top to bottom and splits them into rows wherever the
// vertical gap to the previous blob exceeds tolerance. Each row is sorted
// left to right. The input slice is not modified.
func GroupRows(blobs []Blob, tolerance float64) [][]Blob {
	if len(blobs) == 0 {
		return nil
	}

	sorted := make([]Blob, len(blobs))
	copy(sorted, blobs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y < sorted[j].Y
	})

	var rows [][]Blob
	current := []Blob{sorted[0]}
	for _, b := range sorted[1:] {
		if b.Y-current[len(current)-1].Y > tolerance {
			rows = append(rows, current)
			current = []Blob{b}
			continue
		}
		current = append(current, b)
	}
	rows = append(rows, current)

	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool {
			return row[i].X < row[j].X
		})
	}
	return rows
}

// rowCandidate is a row waiting for its question index.
type rowCandidate struct {
	blobs []Blob
	y     float64
	dist  float64 // distance from the calibrated row centre
}

// rowFit is the row geometry measured from the detected rows of a column.
type rowFit struct {
	rel    []int   // index of each row relative to the first detected row
	origin float64 // fitted centre of relative row 0
	pitch  float64 // fitted distance between row centres
	shift  int     // absolute index of relative row 0
}

func (f rowFit) centre(idx int) float64 {
	return f.origin + float64(idx-f.shift)*f.pitch
}

// calibrateRows fits the row centres ys (top to bottom) to evenly spaced
// bands. The configured FirstRowY and RowPitch only seed the fit: the pitch
// is re-measured from the gaps between detected rows, and the first row is
// anchored to the nearest configured band.
func calibrateRows(ys []float64, col Column) rowFit {
	fit := rowFit{rel: make([]int, len(ys)), origin: ys[0], pitch: col.RowPitch}

	// Two passes: steps against the configured pitch, then against the
	// median per-step spacing those steps imply.
	for pass := 0; pass < 2; pass++ {
		var spacings []float64
		for i := 1; i < len(ys); i++ {
			gap := ys[i] - ys[i-1]
			if k := math.Round(gap / fit.pitch); k >= 1 {
				spacings = append(spacings, gap/k)
			}
		}
		if len(spacings) == 0 {
			break
		}
		sort.Float64s(spacings)
		fit.pitch = stat.Quantile(0.5, stat.Empirical, spacings, nil)
	}

	for i := 1; i < len(ys); i++ {
		fit.rel[i] = fit.rel[i-1] + int(math.Round((ys[i]-ys[i-1])/fit.pitch))
	}

	span := fit.rel[len(fit.rel)-1]
	if span > 0 {
		xs := make([]float64, len(ys))
		for i, k := range fit.rel {
			xs[i] = float64(k)
		}
		fit.origin, fit.pitch = stat.LinearRegression(xs, ys, nil, false)
	} else {
		fit.origin = mean(ys)
	}

	fit.shift = int(math.Round((fit.origin - col.FirstRowY) / col.RowPitch))
	if span < col.Questions {
		// A print whose first row sits slightly off the configured band
		// can round one row out; pull it back when the rows still fit.
		if fit.shift == -1 {
			fit.shift = 0
		}
		if last := col.Questions - 1 - span; fit.shift == last+1 {
			fit.shift = last
		}
	}
	if span == 0 {
		// One band measured: nothing to calibrate against.
		fit.origin = col.FirstRowY + float64(fit.shift)*col.RowPitch
		fit.pitch = col.RowPitch
	}
	return fit
}

// DecodeColumn assigns each blob of a column to a slot.
//
// The question number of a row comes from where the row is, not from how
// many rows came before it: with a configured RowPitch the rows are fitted
// to evenly spaced bands calibrated from the rows themselves, so a missing
// row never shifts the numbering of other rows and a print whose spacing
// differs from the configured one still maps row for row. Within a row the
// k-th blob from the left is option k; blobs past the fourth are ignored.
func DecodeColumn(blobs []Blob, col Column, tolerance float64) ColumnDecode {
	var out ColumnDecode
	rows := GroupRows(blobs, tolerance)

	ys := make([]float64, len(rows))
	for i, row := range rows {
		ys[i] = meanY(row)
	}

	var fit rowFit
	if col.RowPitch > 0 && len(rows) > 0 {
		fit = calibrateRows(ys, col)
	}

	byIndex := make(map[int]rowCandidate)
	for i, row := range rows {
		y := ys[i]
		idx, dist := i, 0.0
		if col.RowPitch > 0 {
			idx = fit.shift + fit.rel[i]
			dist = math.Abs(y - fit.centre(idx))
		}

		if idx < 0 || idx >= col.Questions {
			out.Advisories = append(out.Advisories, Advisory{
				Kind:    AdvisoryRowOutOfRange,
				Message: fmt.Sprintf("row at y=%.0f with %d blobs lies outside questions %d-%d", y, len(row), col.Base+1, col.Base+col.Questions),
			})
			continue
		}

		cand := rowCandidate{blobs: row, y: y, dist: dist}
		if prev, ok := byIndex[idx]; ok {
			kept := prev
			if cand.dist < prev.dist {
				kept = cand
			}
			byIndex[idx] = kept
			out.Advisories = append(out.Advisories, Advisory{
				Kind:     AdvisoryRowConflict,
				Question: col.Base + idx + 1,
				Message:  fmt.Sprintf("rows at y=%.0f and y=%.0f both fall on question %d; kept y=%.0f", prev.y, cand.y, col.Base+idx+1, kept.y),
			})
			continue
		}
		byIndex[idx] = cand
	}

	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var drift float64
	for _, idx := range indices {
		row := byIndex[idx].blobs
		question := col.Base + idx + 1
		drift += math.Abs(byIndex[idx].y - (col.FirstRowY + float64(idx)*col.RowPitch))
		if len(row) < 2 {
			out.Advisories = append(out.Advisories, Advisory{
				Kind:     AdvisoryShortRow,
				Question: question,
				Message:  fmt.Sprintf("question %d has only %d bubble(s) detected", question, len(row)),
			})
		}
		for k, b := range row {
			opt := OptionAt(k)
			if opt == OptionNone {
				break
			}
			out.Assignments = append(out.Assignments, Assignment{
				Slot: Slot{Question: question, Option: opt},
				Blob: b,
			})
		}
	}
	out.Rows = len(indices)

	if col.RowPitch > 0 && out.Rows > 0 && drift/float64(out.Rows) > col.RowPitch/4 {
		out.Advisories = append(out.Advisories, Advisory{
			Kind:    AdvisoryRowDrift,
			Message: fmt.Sprintf("rows for questions %d-%d sit %.0f px from the configured bands on average; measured pitch %.1f, configured %.1f", col.Base+1, col.Base+col.Questions, drift/float64(out.Rows), fit.pitch, col.RowPitch),
		})
	}

	if float64(out.Rows) < MinRowFraction*float64(col.Questions) {
		out.Advisories = append(out.Advisories, Advisory{
			Kind:    AdvisoryLowRowCount,
			Message: fmt.Sprintf("only %d of %d rows detected for questions %d-%d", out.Rows, col.Questions, col.Base+1, col.Base+col.Questions),
		})
	}

	return out
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func meanY(row []Blob) float64 {
	var sum float64
	for _, b := range row {
		sum += b.Y
	}
	return sum / float64(len(row))
}
