// Package fill decides whether a printed bubble has been pencilled in.
package fill

import (
	"image"
	"math"

	"omr-grader/internal/grid"
)

// State records the fill decision for one slot.
type State struct {
	Slot   grid.Slot `json:"slot"`
	Filled bool      `json:"filled"`
}

// DefaultMinFraction is the share of dark samples that marks a bubble filled.
const DefaultMinFraction = 0.5

// Classifier samples a bubble at its centre and at half the radius in the
// four cardinal directions. A sample is dark when its intensity is below
// Threshold. A bubble is filled when at least MinFraction of the in-bounds
// samples are dark.
type Classifier struct {
	Threshold   uint8
	MinFraction float64 // zero means DefaultMinFraction
}

// Count returns the number of dark samples and the number of samples that
// fell inside the image.
func (c Classifier) Count(img *image.Gray, b grid.Blob) (dark, valid int) {
	if img == nil {
		return 0, 0
	}
	cx := int(math.Round(b.X))
	cy := int(math.Round(b.Y))
	off := int(b.R) / 2

	samples := [5]image.Point{
		{cx, cy},
		{cx - off, cy},
		{cx + off, cy},
		{cx, cy - off},
		{cx, cy + off},
	}

	bounds := img.Bounds()
	for _, p := range samples {
		if !p.In(bounds) {
			continue
		}
		valid++
		if img.GrayAt(p.X, p.Y).Y < c.Threshold {
			dark++
		}
	}
	return dark, valid
}

// IsFilled reports whether the bubble b is marked. A bubble whose samples
// all fall outside the image is never filled.
func (c Classifier) IsFilled(img *image.Gray, b grid.Blob) bool {
	dark, valid := c.Count(img, b)
	if valid == 0 {
		return false
	}
	frac := c.MinFraction
	if frac <= 0 {
		frac = DefaultMinFraction
	}
	return float64(dark) >= frac*float64(valid)
}

// Classify returns the fill state of every assignment, in input order.
func (c Classifier) Classify(img *image.Gray, assignments []grid.Assignment) []State {
	states := make([]State, len(assignments))
	for i, a := range assignments {
		states[i] = State{Slot: a.Slot, Filled: c.IsFilled(img, a.Blob)}
	}
	return states
}

// FilledOptions groups the filled slots by question. Options are listed in
// the order they appear in states.
func FilledOptions(states []State) map[int][]grid.Option {
	out := make(map[int][]grid.Option)
	for _, s := range states {
		if s.Filled {
			out[s.Slot.Question] = append(out[s.Slot.Question], s.Slot.Option)
		}
	}
	return out
}
