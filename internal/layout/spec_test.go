package layout

import (
	"path/filepath"
	"testing"

	"omr-grader/pkg/geometry"
)

func TestBuiltinSpecsValidate(t *testing.T) {
	for _, s := range ListSpecs() {
		if err := s.Validate(); err != nil {
			t.Errorf("%s: %v", s.Name, err)
		}
	}
	if err := ValidateRegistry(); err != nil {
		t.Errorf("built-in layouts share marker ids: %v", err)
	}
}

func TestQuestionRangesPartition(t *testing.T) {
	for _, s := range ListSpecs() {
		t.Run(s.Name, func(t *testing.T) {
			next := 1
			for c := range s.Columns {
				first, last := s.QuestionRange(c)
				if first != next {
					t.Errorf("column %d starts at %d, want %d", c+1, first, next)
				}
				if last < first {
					t.Errorf("column %d has empty range %d-%d", c+1, first, last)
				}
				next = last + 1
			}
			if next-1 != s.Capacity() {
				t.Errorf("ranges end at %d, capacity is %d", next-1, s.Capacity())
			}
		})
	}
}

func TestA4Ranges(t *testing.T) {
	s := A4Spec()
	if s.Capacity() != 120 {
		t.Fatalf("A4 capacity: got %d, want 120", s.Capacity())
	}
	first, last := s.QuestionRange(1)
	if first != 31 || last != 60 {
		t.Errorf("A4 column 2: got %d-%d, want 31-60", first, last)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Spec)
	}{
		{"overlapping columns", func(s *Spec) {
			s.Columns[1].Bounds = s.Columns[0].Bounds
		}},
		{"duplicate marker", func(s *Spec) {
			s.MarkerIDs[1] = s.MarkerIDs[0]
		}},
		{"column outside sheet", func(s *Spec) {
			s.Columns[0].Bounds = geometry.NewRectFromCorners(2000, 3000, 2500, 3500)
		}},
		{"bad anchor", func(s *Spec) {
			s.AnchorCorners[2] = 7
		}},
		{"no questions", func(s *Spec) {
			s.Columns[0].QuestionsPerColumn = 0
		}},
		{"fill fraction above one", func(s *Spec) {
			s.FillFraction = 1.5
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := A4Spec()
			tt.modify(s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateSet_SharedID(t *testing.T) {
	a := A4Spec()
	b := A5Spec()
	b.MarkerIDs[0] = a.MarkerIDs[3]
	if err := ValidateSet([]*Spec{a, b}); err == nil {
		t.Error("expected error for shared marker id")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a5.json")
	orig := A5Spec()
	if err := orig.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.SizeClass != SizeA5 || loaded.Capacity() != 60 {
		t.Errorf("loaded layout: got %s capacity %d", loaded.SizeClass, loaded.Capacity())
	}
	if loaded.FillThreshold != A5FillThreshold {
		t.Errorf("FillThreshold: got %d, want %d", loaded.FillThreshold, A5FillThreshold)
	}
}
