package console

import (
	"fmt"
	"sort"
	"strings"

	"proctor/internal/exam"
	"proctor/internal/integrity"
	"proctor/internal/session"
)

// FormatRemaining renders seconds as MM:SS.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// RenderQuestion shows question index (0-based) with its options. The
// selected option, if any, is marked.
func RenderQuestion(theme Theme, index int, questions []exam.Question, answers exam.Answers) string {
	q := questions[index]
	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Question %d of %d", index+1, len(questions))))
	b.WriteString("\n")
	b.WriteString(theme.Text.Render(q.Text))
	b.WriteString("\n")

	selected, answered := answers[index]
	for i, opt := range q.Options {
		line := fmt.Sprintf("  %d) %s", i+1, opt.Text)
		if answered && selected == i {
			b.WriteString(theme.Selected.Render("> " + strings.TrimPrefix(line, "  ")))
		} else {
			b.WriteString(theme.Text.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderStatus summarizes time, progress and the last check of each loop.
func RenderStatus(theme Theme, snap session.Snapshot, checks map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n",
		theme.Title.Render("Time left "+FormatRemaining(snap.Remaining)),
		theme.Faint.Render(fmt.Sprintf("answered %d/%d", len(snap.Answers), snap.Questions)),
	)

	loops := make([]string, 0, len(checks))
	for loop := range checks {
		loops = append(loops, loop)
	}
	sort.Strings(loops)
	for _, loop := range loops {
		fmt.Fprintf(&b, "%s %s\n", theme.Faint.Render(fmt.Sprintf("%-10s", loop)), checks[loop])
	}
	return b.String()
}

// RenderResult is the final results view.
func RenderResult(theme Theme, result exam.Result) string {
	body := strings.Join([]string{
		theme.Title.Render("Exam submitted"),
		fmt.Sprintf("Score: %d/%d", result.Score, result.Total),
		fmt.Sprintf("Percentage: %.1f%%", result.Percentage),
		theme.Faint.Render("Reason: " + describeReason(result.Reason)),
	}, "\n")
	return theme.Result.Render(body)
}

func describeReason(reason string) string {
	switch reason {
	case integrity.ReasonManualSubmit:
		return "submitted by you"
	case integrity.ReasonCountdownExpired:
		return "time expired"
	case integrity.ReasonForbiddenObject:
		return "forbidden object detected"
	case integrity.ReasonFullscreenExited:
		return "fullscreen exited"
	case integrity.ReasonMismatchConfirmed:
		return "identity mismatch confirmed"
	default:
		return strings.ReplaceAll(reason, "_", " ")
	}
}
