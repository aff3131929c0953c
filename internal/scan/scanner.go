// Package scan runs the full answer-sheet pipeline on one photograph:
// marker detection, layout resolution, rectification, bubble detection,
// sheet identification and grading.
package scan

import (
	"fmt"
	"image"
	"log"

	"gocv.io/x/gocv"

	"omr-grader/internal/alignment"
	"omr-grader/internal/grading"
	"omr-grader/internal/grid"
	"omr-grader/internal/layout"
	"omr-grader/internal/omr"
	"omr-grader/internal/vision"
	"omr-grader/pkg/geometry"
)

// MarkerDetector finds fiducial markers in a photograph.
type MarkerDetector interface {
	DetectMarkers(src gocv.Mat) ([]layout.Marker, error)
}

// BlobDetector finds bubble candidates in each column of a rectified,
// two-tone sheet, reported in column-local pixels.
type BlobDetector interface {
	DetectColumns(canonical gocv.Mat, spec *layout.Spec) (map[int][]grid.Blob, error)
}

// CodeReader decodes a machine-readable sheet identifier.
type CodeReader interface {
	Decode(img image.Image) (string, error)
}

// TextReader reads printed text inside a region.
type TextReader interface {
	RecognizeRegion(img image.Image, bounds geometry.RectInt) (string, error)
}

// Scanner holds the detectors used to read sheets. It keeps no per-sheet
// state, so one Scanner may read many sheets in sequence.
type Scanner struct {
	markers MarkerDetector
	blobs   BlobDetector
	qr      CodeReader
	text    TextReader
	layouts []*layout.Spec
	logger  *log.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithCodeReader enables QR decoding of the sheet identifier.
func WithCodeReader(r CodeReader) Option {
	return func(s *Scanner) { s.qr = r }
}

// WithTextReader enables OCR of the printed sheet code when the layout
// defines a code region and no QR code decodes.
func WithTextReader(r TextReader) Option {
	return func(s *Scanner) { s.text = r }
}

// WithLayouts restricts resolution to the given layouts instead of the
// registered ones.
func WithLayouts(specs ...*layout.Spec) Option {
	return func(s *Scanner) { s.layouts = specs }
}

// WithLogger sends progress and advisories to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// New creates a Scanner.
func New(markers MarkerDetector, blobs BlobDetector, opts ...Option) *Scanner {
	s := &Scanner{
		markers: markers,
		blobs:   blobs,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.layouts) == 0 {
		s.layouts = layout.ListSpecs()
	}
	return s
}

// Report is the outcome of scanning one photograph.
type Report struct {
	omr.Result
	Markers []layout.Marker `json:"markers"`
	Quad    geometry.Quad   `json:"quad"`
}

// Scan reads one photograph and grades it against key.
func (s *Scanner) Scan(src gocv.Mat, key grading.Key) (*Report, error) {
	sheet, err := s.prepare(src)
	if err != nil {
		return nil, err
	}

	res, err := omr.Evaluate(sheet.context(key), sheet.blobs)
	if err != nil {
		return nil, fmt.Errorf("grade sheet: %w", err)
	}
	s.logAdvisories(res.Advisories)

	return &Report{Result: res, Markers: sheet.markers, Quad: sheet.quad}, nil
}

// CaptureKey reads a filled master sheet and returns its marks as an answer
// key for the first questions questions.
func (s *Scanner) CaptureKey(src gocv.Mat, questions int) (grading.Key, *Report, error) {
	sheet, err := s.prepare(src)
	if err != nil {
		return nil, nil, err
	}

	key, res, err := omr.CaptureKey(sheet.context(nil), sheet.blobs, questions)
	s.logAdvisories(res.Advisories)
	if err != nil {
		return nil, nil, fmt.Errorf("capture key: %w", err)
	}
	return key, &Report{Result: res, Markers: sheet.markers, Quad: sheet.quad}, nil
}

// preparedSheet is a rectified sheet with its bubbles detected.
type preparedSheet struct {
	spec      *layout.Spec
	markers   []layout.Marker
	quad      geometry.Quad
	canonical *image.Gray
	blobs     map[int][]grid.Blob
	sheetID   string
}

func (p *preparedSheet) context(key grading.Key) omr.DecodeContext {
	return omr.DecodeContext{
		Layout:    p.spec,
		Key:       key,
		Canonical: p.canonical,
		SheetID:   p.sheetID,
	}
}

func (s *Scanner) prepare(src gocv.Mat) (*preparedSheet, error) {
	if src.Empty() {
		return nil, fmt.Errorf("empty input image")
	}

	markers, err := s.markers.DetectMarkers(src)
	if err != nil {
		return nil, fmt.Errorf("detect markers: %w", err)
	}
	ids := vision.MarkerIDs(markers)
	s.logger.Printf("scan: %d markers detected %v", len(markers), ids)

	spec, err := layout.Resolve(ids, s.layouts...)
	if err != nil {
		return nil, fmt.Errorf("resolve layout: %w", err)
	}

	corners := alignment.CornerObservations(markers, spec)
	quad, err := alignment.ReconstructQuad(corners, spec.AspectRatio())
	if err != nil {
		return nil, fmt.Errorf("reconstruct sheet corners: %w", err)
	}
	s.logger.Printf("scan: layout %s, %d of 4 corners observed, quad TL=(%.0f,%.0f) TR=(%.0f,%.0f) BL=(%.0f,%.0f) BR=(%.0f,%.0f)",
		spec.Name, alignment.ObservedCount(corners),
		quad.TopLeft.X, quad.TopLeft.Y, quad.TopRight.X, quad.TopRight.Y,
		quad.BottomLeft.X, quad.BottomLeft.Y, quad.BottomRight.X, quad.BottomRight.Y)

	h, err := alignment.ComputeHomography(quad, spec.CanonicalWidth, spec.CanonicalHeight)
	if err != nil {
		return nil, fmt.Errorf("rectify: %w", err)
	}
	s.logger.Printf("scan: homography corner error %.3f px",
		alignment.ProjectionError(h, quad, spec.CanonicalWidth, spec.CanonicalHeight))

	rectified, err := vision.Rectify(src, h, spec.CanonicalWidth, spec.CanonicalHeight)
	if err != nil {
		return nil, fmt.Errorf("rectify: %w", err)
	}
	defer rectified.Close()

	twoTone, err := vision.TwoTone(rectified, spec.BinarizeThreshold)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}
	defer twoTone.Close()

	canonical, err := vision.MatToGray(twoTone)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}

	blobs, err := s.blobs.DetectColumns(twoTone, spec)
	if err != nil {
		return nil, fmt.Errorf("detect bubbles: %w", err)
	}
	for col := range spec.Columns {
		first, last := spec.QuestionRange(col)
		s.logger.Printf("scan: column %d (questions %d-%d): %d bubbles", col+1, first, last, len(blobs[col]))
	}

	return &preparedSheet{
		spec:      spec,
		markers:   markers,
		quad:      quad,
		canonical: canonical,
		blobs:     blobs,
		sheetID:   s.identify(rectified, src, spec),
	}, nil
}

// identify reads the sheet identifier: a QR code on the rectified sheet,
// then on the original photo, then OCR of the layout's code region.
// It returns "" when nothing can be read.
func (s *Scanner) identify(rectified, src gocv.Mat, spec *layout.Spec) string {
	var canonical image.Image
	if img, err := rectified.ToImage(); err == nil {
		canonical = img
	}

	if s.qr != nil {
		if canonical != nil {
			if id, err := s.qr.Decode(canonical); err == nil {
				s.logger.Printf("scan: sheet id %q from QR on rectified sheet", id)
				return id
			}
		}
		if img, err := src.ToImage(); err == nil {
			if id, err := s.qr.Decode(img); err == nil {
				s.logger.Printf("scan: sheet id %q from QR on original photo", id)
				return id
			}
		}
	}

	if s.text != nil && spec.CodeRegion != nil && canonical != nil {
		id, err := s.text.RecognizeRegion(canonical, *spec.CodeRegion)
		if err != nil {
			s.logger.Printf("scan: sheet code OCR failed: %v", err)
			return ""
		}
		if id != "" {
			s.logger.Printf("scan: sheet id %q from OCR", id)
		}
		return id
	}
	return ""
}

func (s *Scanner) logAdvisories(advisories []grid.Advisory) {
	for _, a := range advisories {
		s.logger.Printf("scan: advisory: %s", a)
	}
}
