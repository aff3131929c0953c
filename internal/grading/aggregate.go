package grading

import (
	"sort"

	"omr-grader/internal/grid"
)

// Verdict classifies the response to one question.
type Verdict int

const (
	Unanswered Verdict = iota
	Correct
	Wrong
	Multiple
)

func (v Verdict) String() string {
	switch v {
	case Unanswered:
		return "unanswered"
	case Correct:
		return "correct"
	case Wrong:
		return "wrong"
	case Multiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// MarshalText encodes the verdict by name.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Response is what was marked for one question, before grading.
type Response struct {
	Question int           `json:"question"`
	Selected []grid.Option `json:"selected"`
	Chosen   int           `json:"chosen"` // 1-4 when exactly one option is marked, else 0
}

// QuestionVerdict is a graded Response.
type QuestionVerdict struct {
	Response
	Verdict Verdict `json:"verdict"`
}

// Responses collects the marked options of questions 1..questions. Options
// are reported once each, in A-D order.
func Responses(filled map[int][]grid.Option, questions int) []Response {
	out := make([]Response, 0, questions)
	for q := 1; q <= questions; q++ {
		selected := distinctOptions(filled[q])
		r := Response{Question: q, Selected: selected}
		if len(selected) == 1 {
			r.Chosen = selected[0].Numeric()
		}
		out = append(out, r)
	}
	return out
}

// Aggregate grades questions 1..len(key). Filled options for questions past
// the end of the key are ignored.
func Aggregate(filled map[int][]grid.Option, key Key) []QuestionVerdict {
	responses := Responses(filled, len(key))
	verdicts := make([]QuestionVerdict, len(responses))
	for i, r := range responses {
		verdicts[i] = QuestionVerdict{Response: r, Verdict: judge(r, key.Option(r.Question))}
	}
	return verdicts
}

func judge(r Response, correct grid.Option) Verdict {
	switch len(r.Selected) {
	case 0:
		return Unanswered
	case 1:
		if r.Selected[0] == correct {
			return Correct
		}
		return Wrong
	default:
		return Multiple
	}
}

func distinctOptions(opts []grid.Option) []grid.Option {
	if len(opts) == 0 {
		return nil
	}
	seen := make(map[grid.Option]bool, len(opts))
	var out []grid.Option
	for _, o := range opts {
		if o.Numeric() == 0 || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
