package exam

import (
	"fmt"

	"proctor/pkg/platform/sentinel"
)

// Option is one selectable answer to a Question.
type Option struct {
	Text      string `yaml:"text" json:"text"`
	IsCorrect bool   `yaml:"correct" json:"-"`
}

// Question is immutable for the lifetime of a session.
type Question struct {
	Text    string   `yaml:"text" json:"text"`
	Options []Option `yaml:"options" json:"options"`
}

// Answers maps a question index to the selected option index. A question
// without an entry is unanswered.
type Answers map[int]int

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for q, opt := range a {
		out[q] = opt
	}
	return out
}

// Validate checks that every question has text, at least two options and
// exactly one correct option.
func Validate(questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("question bank is empty")
	}
	for i, q := range questions {
		if q.Text == "" {
			return fmt.Errorf("question %d: text is required", i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d: at least two options are required", i)
		}
		correct := 0
		for _, opt := range q.Options {
			if opt.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("question %d: exactly one correct option is required, got %d", i, correct)
		}
	}
	return nil
}

// CheckSelection reports whether (question, option) addresses an existing
// option in the bank.
func CheckSelection(questions []Question, question, option int) error {
	if question < 0 || question >= len(questions) {
		return fmt.Errorf("question %d: %w", question, sentinel.ErrNotFound)
	}
	if option < 0 || option >= len(questions[question].Options) {
		return fmt.Errorf("question %d option %d: %w", question, option, sentinel.ErrNotFound)
	}
	return nil
}
