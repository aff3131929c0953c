// Package omr turns the bubbles found on a rectified sheet into graded answers.
package omr

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"omr-grader/internal/fill"
	"omr-grader/internal/grading"
	"omr-grader/internal/grid"
	"omr-grader/internal/layout"
)

// ErrNoCanonical is returned when a decode has no rectified image to sample.
var ErrNoCanonical = errors.New("no canonical image")

// DecodeContext carries everything a single sheet decode reads. It is passed
// by value and never modified.
type DecodeContext struct {
	Layout    *layout.Spec
	Key       grading.Key
	Canonical *image.Gray // two-tone rectified sheet, Layout.CanonicalWidth x CanonicalHeight
	SheetID   string
}

// Result is the outcome of decoding one sheet.
type Result struct {
	Layout     string                    `json:"layout"`
	SizeClass  layout.SizeClass          `json:"size_class"`
	SheetID    string                    `json:"sheet_id,omitempty"`
	Verdicts   []grading.QuestionVerdict `json:"verdicts"`
	Fills      []fill.State              `json:"fills,omitempty"`
	Advisories []grid.Advisory           `json:"advisories,omitempty"`
}

// Summary returns the result in the front end's summary format.
func (r Result) Summary() grading.Summary {
	return grading.Summarize(r.SheetID, r.Verdicts)
}

// ColumnFor returns the grid decoding parameters of layout column col.
func ColumnFor(spec *layout.Spec, col int) grid.Column {
	c := spec.Columns[col]
	return grid.Column{
		Base:      spec.QuestionBase(col),
		Questions: c.QuestionsPerColumn,
		FirstRowY: c.FirstRowY,
		RowPitch:  c.RowPitch,
	}
}

// Evaluate decodes and grades a sheet. columnBlobs maps a column index to the
// blobs found inside that column, in column-local pixels. Columns are decoded
// independently and merged by question number, so their order does not
// matter.
func Evaluate(ctx DecodeContext, columnBlobs map[int][]grid.Blob) (Result, error) {
	if err := checkContext(ctx); err != nil {
		return Result{}, err
	}
	if err := ctx.Key.Validate(0, ctx.Layout.Capacity()); err != nil {
		return Result{}, err
	}

	res, filled := classify(ctx, columnBlobs)
	res.Verdicts = grading.Aggregate(filled, ctx.Key)
	return res, nil
}

// CaptureKey decodes a master sheet and returns its marks as an answer key
// for the first questions questions. Every captured question must carry
// exactly one mark.
func CaptureKey(ctx DecodeContext, columnBlobs map[int][]grid.Blob, questions int) (grading.Key, Result, error) {
	if err := checkContext(ctx); err != nil {
		return nil, Result{}, err
	}
	if questions <= 0 || questions > ctx.Layout.Capacity() {
		return nil, Result{}, fmt.Errorf("%w: cannot capture %d questions from a %d-question sheet",
			grading.ErrAnswerKeyMismatch, questions, ctx.Layout.Capacity())
	}

	res, filled := classify(ctx, columnBlobs)
	key, err := grading.KeyFromResponses(grading.Responses(filled, questions))
	if err != nil {
		return nil, res, err
	}
	res.Verdicts = grading.Aggregate(filled, key)
	return key, res, nil
}

func checkContext(ctx DecodeContext) error {
	if ctx.Layout == nil {
		return fmt.Errorf("decode context has no layout")
	}
	if ctx.Canonical == nil {
		return ErrNoCanonical
	}
	return nil
}

// classify decodes every layout column and samples the fill of each slot.
func classify(ctx DecodeContext, columnBlobs map[int][]grid.Blob) (Result, map[int][]grid.Option) {
	spec := ctx.Layout
	res := Result{
		Layout:    spec.Name,
		SizeClass: spec.SizeClass,
		SheetID:   ctx.SheetID,
	}

	var stray []int
	for col := range columnBlobs {
		if col < 0 || col >= len(spec.Columns) {
			stray = append(stray, col)
		}
	}
	sort.Ints(stray)
	for _, col := range stray {
		res.Advisories = append(res.Advisories, grid.Advisory{
			Kind:    grid.AdvisoryRowOutOfRange,
			Message: fmt.Sprintf("blobs reported for column %d, layout %s has %d columns", col+1, spec.Name, len(spec.Columns)),
		})
	}

	classifier := fill.Classifier{Threshold: spec.FillThreshold, MinFraction: spec.FillFraction}
	for col, region := range spec.Columns {
		decoded := grid.DecodeColumn(columnBlobs[col], ColumnFor(spec, col), spec.RowTolerance)
		res.Advisories = append(res.Advisories, decoded.Advisories...)

		dx, dy := float64(region.Bounds.X), float64(region.Bounds.Y)
		for i := range decoded.Assignments {
			decoded.Assignments[i].Blob = decoded.Assignments[i].Blob.Offset(dx, dy)
		}
		res.Fills = append(res.Fills, classifier.Classify(ctx.Canonical, decoded.Assignments)...)
	}

	sort.SliceStable(res.Fills, func(i, j int) bool {
		a, b := res.Fills[i].Slot, res.Fills[j].Slot
		if a.Question != b.Question {
			return a.Question < b.Question
		}
		return a.Option < b.Option
	})
	return res, fill.FilledOptions(res.Fills)
}
