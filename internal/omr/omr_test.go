package omr

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"omr-grader/internal/grading"
	"omr-grader/internal/grid"
	"omr-grader/internal/layout"
)

// sheet is a synthetic rectified answer sheet.
type sheet struct {
	spec  *layout.Spec
	img   *image.Gray
	blobs map[int][]grid.Blob
}

func newSheet(spec *layout.Spec) *sheet {
	img := image.NewGray(image.Rect(0, 0, spec.CanonicalWidth, spec.CanonicalHeight))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return &sheet{spec: spec, img: img, blobs: make(map[int][]grid.Blob)}
}

// optionX is the column-local x centre of option k (0-based).
func optionX(k int) float64 {
	return 50 + float64(k)*100
}

// printRow adds the four blobs of question row (0-based) in column col and
// pencils in the listed options.
func (s *sheet) printRow(col, row int, marked ...grid.Option) {
	c := s.spec.Columns[col]
	y := c.FirstRowY + float64(row)*c.RowPitch
	for k := 0; k < grid.OptionsPerQuestion; k++ {
		s.blobs[col] = append(s.blobs[col], grid.Blob{X: optionX(k), Y: y, R: float64(s.spec.BubbleRadius)})
	}
	for _, opt := range marked {
		cx := c.Bounds.X + int(optionX(opt.Numeric()-1))
		cy := c.Bounds.Y + int(y)
		s.fillDisk(cx, cy, s.spec.BubbleRadius-2)
	}
}

func (s *sheet) fillDisk(cx, cy, r int) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r {
				s.img.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
}

func (s *sheet) context(key grading.Key) DecodeContext {
	return DecodeContext{Layout: s.spec, Key: key, Canonical: s.img, SheetID: "TEST"}
}

// cyclicKey returns a key of n questions cycling through A-D.
func cyclicKey(n int) grading.Key {
	key := make(grading.Key, n)
	for i := range key {
		key[i] = i%4 + 1
	}
	return key
}

func TestEvaluate_A4FoldedCorner(t *testing.T) {
	spec := layout.A4Spec()
	key := cyclicKey(spec.Capacity())
	s := newSheet(spec)

	// Every question answered correctly, except that a fold hides the last
	// two rows of the first column (questions 29 and 30).
	for col := range spec.Columns {
		for row := 0; row < spec.Columns[col].QuestionsPerColumn; row++ {
			if col == 0 && row >= 28 {
				continue
			}
			q := spec.QuestionBase(col) + row + 1
			s.printRow(col, row, key.Option(q))
		}
	}

	res, err := Evaluate(s.context(key), s.blobs)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(res.Verdicts) != 120 {
		t.Fatalf("verdicts: got %d, want 120", len(res.Verdicts))
	}

	for _, v := range res.Verdicts {
		want := grading.Correct
		if v.Question == 29 || v.Question == 30 {
			want = grading.Unanswered
		}
		if v.Verdict != want {
			t.Errorf("question %d: got %s, want %s", v.Question, v.Verdict, want)
		}
	}
	if v := res.Verdicts[30]; v.Question != 31 || v.Chosen != key[30] {
		t.Errorf("question 31: got %+v, want chosen %d", v, key[30])
	}

	sum := res.Summary()
	if len(sum.Right) != 118 || len(sum.Unanswered) != 2 {
		t.Errorf("summary: %d right, %d unanswered", len(sum.Right), len(sum.Unanswered))
	}
	if sum.SheetID != "TEST" {
		t.Errorf("sheet id: got %q", sum.SheetID)
	}
}

func TestEvaluate_MixedResponses(t *testing.T) {
	spec := layout.A5Spec()
	key := grading.Key{1, 2, 3, 4}
	s := newSheet(spec)

	s.printRow(0, 0, grid.OptionA)               // correct
	s.printRow(0, 1, grid.OptionD)               // wrong
	s.printRow(0, 2, grid.OptionB, grid.OptionC) // multiple
	s.printRow(0, 3)                             // blank

	res, err := Evaluate(s.context(key), s.blobs)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := []grading.Verdict{grading.Correct, grading.Wrong, grading.Multiple, grading.Unanswered}
	for i, w := range want {
		if res.Verdicts[i].Verdict != w {
			t.Errorf("question %d: got %s, want %s", i+1, res.Verdicts[i].Verdict, w)
		}
	}
	if res.SizeClass != layout.SizeA5 {
		t.Errorf("size class: got %s", res.SizeClass)
	}
}

func TestEvaluate_ColumnOrderIndependent(t *testing.T) {
	spec := layout.A5Spec()
	key := cyclicKey(spec.Capacity())
	s := newSheet(spec)
	for col := len(spec.Columns) - 1; col >= 0; col-- {
		for row := 0; row < spec.Columns[col].QuestionsPerColumn; row++ {
			s.printRow(col, row, key.Option(spec.QuestionBase(col)+row+1))
		}
	}

	res, err := Evaluate(s.context(key), s.blobs)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got := len(res.Summary().Right); got != spec.Capacity() {
		t.Errorf("right answers: got %d, want %d", got, spec.Capacity())
	}
	if len(res.Advisories) != 0 {
		t.Errorf("unexpected advisories: %v", res.Advisories)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	spec := layout.A5Spec()
	s := newSheet(spec)

	if _, err := Evaluate(s.context(cyclicKey(61)), s.blobs); !errors.Is(err, grading.ErrAnswerKeyMismatch) {
		t.Errorf("oversized key: got %v", err)
	}
	if _, err := Evaluate(s.context(grading.Key{1, 9}), s.blobs); !errors.Is(err, grading.ErrAnswerKeyMismatch) {
		t.Errorf("bad entry: got %v", err)
	}
	ctx := s.context(grading.Key{1})
	ctx.Canonical = nil
	if _, err := Evaluate(ctx, s.blobs); !errors.Is(err, ErrNoCanonical) {
		t.Errorf("missing image: got %v", err)
	}
}

func TestEvaluate_StrayColumnAdvisory(t *testing.T) {
	spec := layout.A5Spec()
	s := newSheet(spec)
	s.blobs[7] = []grid.Blob{{X: 10, Y: 10, R: 20}}

	res, err := Evaluate(s.context(grading.Key{1}), s.blobs)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	found := false
	for _, a := range res.Advisories {
		if a.Kind == grid.AdvisoryRowOutOfRange {
			found = true
		}
	}
	if !found {
		t.Errorf("expected advisory for column 8, got %v", res.Advisories)
	}
}

func TestCaptureKey(t *testing.T) {
	spec := layout.A5Spec()
	want := grading.Key{2, 4, 1}
	s := newSheet(spec)
	for i, v := range want {
		s.printRow(0, i, grid.Option(v))
	}

	key, res, err := CaptureKey(s.context(nil), s.blobs, len(want))
	if err != nil {
		t.Fatalf("CaptureKey: %v", err)
	}
	for i := range want {
		if key[i] != want[i] {
			t.Errorf("question %d: got %d, want %d", i+1, key[i], want[i])
		}
	}
	if got := len(res.Summary().Right); got != 3 {
		t.Errorf("master sheet should grade fully correct against itself, got %d right", got)
	}

	if _, _, err := CaptureKey(s.context(nil), s.blobs, 4); !errors.Is(err, grading.ErrAnswerKeyMismatch) {
		t.Errorf("blank master question: got %v", err)
	}
}
