// Package layout provides answer-sheet layout definitions and management.
package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"omr-grader/pkg/geometry"
)

// SizeClass identifies the printed paper format of a sheet.
type SizeClass string

const (
	SizeA4 SizeClass = "A4"
	SizeA5 SizeClass = "A5"
)

func (c SizeClass) String() string {
	switch c {
	case SizeA4, SizeA5:
		return string(c)
	default:
		return "Unknown"
	}
}

// Position is the logical sheet corner a fiducial marker sits on.
type Position int

const (
	TopLeft Position = iota
	TopRight
	BottomLeft
	BottomRight
)

func (p Position) String() string {
	switch p {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	default:
		return "unknown"
	}
}

// Marker is one fiducial found by the marker detector.
// Corners are in the detector's order: marker TL, TR, BR, BL.
type Marker struct {
	ID      int                 `json:"id"`
	Corners [4]geometry.Point2D `json:"corners"`
}

// ColumnRegion is one column of bubbles on the canonical sheet.
//
// Column c (0-based) owns questions Base+1 .. Base+QuestionsPerColumn where
// Base is the sum of QuestionsPerColumn over the preceding columns.
type ColumnRegion struct {
	Bounds             geometry.RectInt `json:"bounds"`               // Canonical pixel box
	QuestionsPerColumn int              `json:"questions_per_column"` // Printed rows in this column

	// Expected row geometry in column-local pixels. The grid decoder
	// re-measures it from the detected rows; when RowPitch is zero it falls
	// back to numbering rows in the order they are found.
	FirstRowY float64 `json:"first_row_y,omitempty"` // Centre of the first question row
	RowPitch  float64 `json:"row_pitch,omitempty"`   // Distance between row centres
}

// Spec defines a printed sheet layout.
type Spec struct {
	Name      string    `json:"name"`
	SizeClass SizeClass `json:"size_class"`

	// MarkerIDs holds the fiducial ID printed at each Position.
	MarkerIDs [4]int `json:"marker_ids"`

	// AnchorCorners holds, per Position, which of the marker's four detected
	// corners lies on the sheet corner.
	AnchorCorners [4]int `json:"anchor_corners"`

	CanonicalWidth  int `json:"canonical_width"`
	CanonicalHeight int `json:"canonical_height"`

	Columns []ColumnRegion `json:"columns"`

	// Pixel intensities below FillThreshold count as pencil marks.
	FillThreshold uint8 `json:"fill_threshold"`
	// Share of dark samples needed to call a bubble filled; zero means one half.
	FillFraction float64 `json:"fill_fraction,omitempty"`
	// Level used to reduce the rectified image to two tones.
	BinarizeThreshold uint8 `json:"binarize_threshold"`
	// Smallest expected bubble radius in canonical pixels.
	BubbleRadius int `json:"bubble_radius"`
	// Maximum vertical gap between blobs of one row.
	RowTolerance float64 `json:"row_tolerance"`

	// Optional printed sheet code, read by OCR when no QR code decodes.
	CodeRegion *geometry.RectInt `json:"code_region,omitempty"`
}

// AspectRatio returns canonical width / height.
func (s *Spec) AspectRatio() float64 {
	return geometry.NewSize(float64(s.CanonicalWidth), float64(s.CanonicalHeight)).Ratio()
}

// Capacity returns the number of printed questions across all columns.
func (s *Spec) Capacity() int {
	total := 0
	for _, c := range s.Columns {
		total += c.QuestionsPerColumn
	}
	return total
}

// QuestionBase returns the number of questions printed before column index col.
func (s *Spec) QuestionBase(col int) int {
	base := 0
	for i := 0; i < col && i < len(s.Columns); i++ {
		base += s.Columns[i].QuestionsPerColumn
	}
	return base
}

// QuestionRange returns the inclusive question numbers owned by column col.
func (s *Spec) QuestionRange(col int) (first, last int) {
	base := s.QuestionBase(col)
	return base + 1, base + s.Columns[col].QuestionsPerColumn
}

// PositionOf returns the Position a marker ID is printed at.
func (s *Spec) PositionOf(id int) (Position, bool) {
	for i, m := range s.MarkerIDs {
		if m == id {
			return Position(i), true
		}
	}
	return 0, false
}

// Validate checks a layout for internal consistency.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("layout name is required")
	}
	if s.CanonicalWidth <= 0 || s.CanonicalHeight <= 0 {
		return fmt.Errorf("canonical dimensions must be positive")
	}
	seen := make(map[int]bool)
	for _, id := range s.MarkerIDs {
		if seen[id] {
			return fmt.Errorf("duplicate marker id %d", id)
		}
		seen[id] = true
	}
	for i, a := range s.AnchorCorners {
		if a < 0 || a > 3 {
			return fmt.Errorf("anchor corner for %s must be 0-3, got %d", Position(i), a)
		}
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("at least one column is required")
	}
	canvas := geometry.RectInt{Width: s.CanonicalWidth, Height: s.CanonicalHeight}
	for i, c := range s.Columns {
		if c.QuestionsPerColumn <= 0 {
			return fmt.Errorf("column %d: questions per column must be positive", i+1)
		}
		if c.Bounds.Empty() {
			return fmt.Errorf("column %d: bounds must have positive size", i+1)
		}
		if !c.Bounds.Rectangle().In(canvas.Rectangle()) {
			return fmt.Errorf("column %d: bounds outside canonical sheet", i+1)
		}
		if c.RowPitch < 0 {
			return fmt.Errorf("column %d: row pitch must not be negative", i+1)
		}
		for j := 0; j < i; j++ {
			if c.Bounds.Overlaps(s.Columns[j].Bounds) {
				return fmt.Errorf("columns %d and %d overlap", j+1, i+1)
			}
		}
	}
	if s.FillFraction < 0 || s.FillFraction > 1 {
		return fmt.Errorf("fill fraction must be between 0 and 1")
	}
	if s.BubbleRadius <= 0 {
		return fmt.Errorf("bubble radius must be positive")
	}
	if s.RowTolerance <= 0 {
		return fmt.Errorf("row tolerance must be positive")
	}
	return nil
}

// SaveToFile saves the layout to a JSON file.
func (s *Spec) SaveToFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFromFile loads a layout from a JSON file.
func LoadFromFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}

	return &spec, nil
}

// Registry of known layouts
var registry = make(map[string]*Spec)

// Register adds a layout to the registry.
func Register(spec *Spec) {
	registry[spec.Name] = spec
}

// GetSpec returns a layout by name.
func GetSpec(name string) *Spec {
	return registry[name]
}

// ListSpecs returns all registered layouts ordered by name.
func ListSpecs() []*Spec {
	specs := make([]*Spec, 0, len(registry))
	for _, s := range registry {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Name < specs[j].Name
	})
	return specs
}

// ValidateSet checks that no two layouts share a marker ID. Resolution by
// observed IDs is only unambiguous when the sets are disjoint.
func ValidateSet(specs []*Spec) error {
	owner := make(map[int]string)
	var errs []error
	for _, s := range specs {
		for _, id := range s.MarkerIDs {
			if other, ok := owner[id]; ok && other != s.Name {
				errs = append(errs, fmt.Errorf("marker id %d used by %q and %q", id, other, s.Name))
				continue
			}
			owner[id] = s.Name
		}
	}
	return errors.Join(errs...)
}

// ValidateRegistry checks the registered layouts with ValidateSet.
func ValidateRegistry() error {
	return ValidateSet(ListSpecs())
}

func init() {
	// Register built-in layouts
	Register(A4Spec())
	Register(A5Spec())
}
