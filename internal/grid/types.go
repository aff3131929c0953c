// Package grid maps detected bubble blobs to (question, option) slots.
package grid

import "fmt"

// Option is one answer choice within a question row.
type Option int

const (
	OptionNone Option = iota
	OptionA
	OptionB
	OptionC
	OptionD
)

// OptionsPerQuestion is the number of printed choices per row.
const OptionsPerQuestion = 4

func (o Option) String() string {
	switch o {
	case OptionA:
		return "A"
	case OptionB:
		return "B"
	case OptionC:
		return "C"
	case OptionD:
		return "D"
	default:
		return "-"
	}
}

// Numeric returns the stable numeric code of the option (A=1 .. D=4, none=0).
func (o Option) Numeric() int {
	if o < OptionA || o > OptionD {
		return 0
	}
	return int(o)
}

// OptionAt returns the option for the k-th blob (0-based) of a row, or
// OptionNone when k is outside the printed choices.
func OptionAt(k int) Option {
	if k < 0 || k >= OptionsPerQuestion {
		return OptionNone
	}
	return Option(k + 1)
}

// ParseOption converts a numeric answer code (1-4) to an Option.
func ParseOption(n int) (Option, error) {
	if n < 1 || n > OptionsPerQuestion {
		return OptionNone, fmt.Errorf("option %d outside 1-%d", n, OptionsPerQuestion)
	}
	return Option(n), nil
}

// Blob is a circle candidate reported by the circle detector, in column-local pixels.
type Blob struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

// Offset returns the blob translated by (dx, dy).
func (b Blob) Offset(dx, dy float64) Blob {
	return Blob{X: b.X + dx, Y: b.Y + dy, R: b.R}
}

// Slot is the logical address of a printed bubble.
type Slot struct {
	Question int    `json:"question"`
	Option   Option `json:"option"`
}

func (s Slot) String() string {
	return fmt.Sprintf("%d%s", s.Question, s.Option)
}

// Assignment pairs a blob with the slot it was mapped to.
type Assignment struct {
	Slot Slot `json:"slot"`
	Blob Blob `json:"blob"`
}

// AdvisoryKind classifies a non-fatal scan-quality warning.
type AdvisoryKind int

const (
	AdvisoryLowRowCount AdvisoryKind = iota // Far fewer rows than printed
	AdvisoryShortRow                        // Row with fewer than 2 blobs
	AdvisoryRowOutOfRange                   // Row outside the printed question band
	AdvisoryRowConflict                     // Two rows claimed the same question
	AdvisoryRowDrift                        // Rows far from the configured row bands
)

func (k AdvisoryKind) String() string {
	switch k {
	case AdvisoryLowRowCount:
		return "low row count"
	case AdvisoryShortRow:
		return "short row"
	case AdvisoryRowOutOfRange:
		return "row out of range"
	case AdvisoryRowConflict:
		return "row conflict"
	case AdvisoryRowDrift:
		return "row drift"
	default:
		return "unknown"
	}
}

// Advisory is a scan-quality warning. It never changes the blob mapping.
type Advisory struct {
	Kind     AdvisoryKind `json:"kind"`
	Question int          `json:"question,omitempty"` // 0 when not tied to one question
	Message  string       `json:"message"`
}

func (a Advisory) String() string {
	return a.Kind.String() + ": " + a.Message
}
