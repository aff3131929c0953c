// Package grading compares filled bubbles against an answer key.
package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"omr-grader/internal/grid"
)

// ErrAnswerKeyMismatch is returned when an answer key cannot be used with a
// sheet: it is empty, has the wrong length, exceeds the printed capacity or
// contains an entry outside 1-4.
var ErrAnswerKeyMismatch = errors.New("answer key mismatch")

// Key holds the correct option (1-4) for each question. Index 0 is question 1.
type Key []int

// Option returns the correct option for a 1-based question number.
func (k Key) Option(question int) grid.Option {
	if question < 1 || question > len(k) {
		return grid.OptionNone
	}
	return grid.Option(k[question-1])
}

// Validate checks the key. expected is the required length and capacity the
// number of printed questions; zero disables either check.
func (k Key) Validate(expected, capacity int) error {
	if len(k) == 0 {
		return fmt.Errorf("%w: key is empty", ErrAnswerKeyMismatch)
	}
	if expected > 0 && len(k) != expected {
		return fmt.Errorf("%w: key has %d entries, expected %d", ErrAnswerKeyMismatch, len(k), expected)
	}
	if capacity > 0 && len(k) > capacity {
		return fmt.Errorf("%w: key has %d entries but the sheet prints %d questions", ErrAnswerKeyMismatch, len(k), capacity)
	}
	for i, v := range k {
		if _, err := grid.ParseOption(v); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrAnswerKeyMismatch, i+1, err)
		}
	}
	return nil
}

// ParseKey decodes a JSON array of options, e.g. [1,3,2,4].
func ParseKey(data []byte) (Key, error) {
	var key Key
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnswerKeyMismatch, err)
	}
	if err := key.Validate(0, 0); err != nil {
		return nil, err
	}
	return key, nil
}

// LoadKey reads an answer key from a JSON file.
func LoadKey(path string) (Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseKey(data)
}

// SaveToFile writes the key as a JSON array.
func (k Key) SaveToFile(path string) error {
	data, err := json.Marshal(k)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// KeyFromResponses builds an answer key from a decoded master sheet, where
// each question carries exactly one filled bubble. Questions that are blank
// or multiply marked are listed in the returned error.
func KeyFromResponses(responses []Response) (Key, error) {
	key := make(Key, len(responses))
	var blank, multiple []int
	for i, r := range responses {
		switch len(r.Selected) {
		case 0:
			blank = append(blank, r.Question)
		case 1:
			key[i] = r.Chosen
		default:
			multiple = append(multiple, r.Question)
		}
	}

	var errs []error
	if len(blank) > 0 {
		errs = append(errs, fmt.Errorf("%w: no answer marked for questions %v", ErrAnswerKeyMismatch, blank))
	}
	if len(multiple) > 0 {
		errs = append(errs, fmt.Errorf("%w: several answers marked for questions %v", ErrAnswerKeyMismatch, multiple))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return key, nil
}
