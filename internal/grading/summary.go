package grading

// Summary is the per-sheet result document. Field names follow the format
// consumed by the exam results front end.
type Summary struct {
	SheetID     string `json:"qRCodeData"`
	Right       []int  `json:"rightAnswers"`
	Wrong       []int  `json:"wrongAnswers"`
	Multiple    []int  `json:"multipleAnswers"`
	Unanswered  []int  `json:"unAnswered"`
	UserAnswers []int  `json:"Useranswers"` // chosen option per question, 0 when none or several
}

// Summarize groups verdicts by class. The question lists are in question
// order and are never nil, so they encode as [] rather than null.
func Summarize(sheetID string, verdicts []QuestionVerdict) Summary {
	s := Summary{
		SheetID:     sheetID,
		Right:       []int{},
		Wrong:       []int{},
		Multiple:    []int{},
		Unanswered:  []int{},
		UserAnswers: make([]int, 0, len(verdicts)),
	}
	for _, v := range verdicts {
		switch v.Verdict {
		case Correct:
			s.Right = append(s.Right, v.Question)
		case Wrong:
			s.Wrong = append(s.Wrong, v.Question)
		case Multiple:
			s.Multiple = append(s.Multiple, v.Question)
		default:
			s.Unanswered = append(s.Unanswered, v.Question)
		}
		s.UserAnswers = append(s.UserAnswers, v.Chosen)
	}
	return s
}

// Total returns the number of graded questions.
func (s Summary) Total() int {
	return len(s.Right) + len(s.Wrong) + len(s.Multiple) + len(s.Unanswered)
}

// Percent returns the share of correct answers in the range 0-100.
func (s Summary) Percent() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return 100 * float64(len(s.Right)) / float64(total)
}
