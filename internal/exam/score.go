package exam

import "time"

// Result is the outcome of a submitted exam.
type Result struct {
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percentage  float64   `json:"percentage"`
	Reason      string    `json:"reason"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Score folds answers over the bank. Unanswered questions and selections
// that do not address an option count as incorrect. Neither argument is
// modified.
func Score(questions []Question, answers Answers) (score, total int) {
	total = len(questions)
	for q, opt := range answers {
		if q < 0 || q >= total {
			continue
		}
		options := questions[q].Options
		if opt < 0 || opt >= len(options) {
			continue
		}
		if options[opt].IsCorrect {
			score++
		}
	}
	return score, total
}

// Percentage returns score/total as a percentage, 0 for an empty bank.
func Percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(score) * 100 / float64(total)
}

// Grade builds the Result for a submission.
func Grade(questions []Question, answers Answers, reason string, at time.Time) Result {
	score, total := Score(questions, answers)
	return Result{
		Score:       score,
		Total:       total,
		Percentage:  Percentage(score, total),
		Reason:      reason,
		SubmittedAt: at,
	}
}
