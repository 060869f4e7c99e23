package proctor

import (
	"context"

	"proctor/internal/audit"
	"proctor/internal/exam"
	"proctor/internal/session"
)

// Presenter shows exam state to the examinee. Calls arrive from the
// countdown driver, the monitor loops and the caller's goroutine, so
// implementations must be safe for concurrent use and must not block.
type Presenter interface {
	Started(snap session.Snapshot)
	Tick(remaining int)
	Status(loop, line string)
	Warn(message string)
	// Confirm asks a yes/no question. The answer comes back through
	// Controller.ResolveConfirmation.
	Confirm(message string)
	Submitted(result exam.Result, message string)
}

// Shell is the exam window host. EnterFullscreen may return
// sentinel.ErrUnsupported when the environment has no fullscreen mode; the
// exam then starts without it.
type Shell interface {
	EnterFullscreen(ctx context.Context) error
	RestoreFocus(ctx context.Context)
}

// Auditor accepts audit events without blocking. *audit.Publisher
// satisfies it.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event)
}

type nopPresenter struct{}

func (nopPresenter) Started(session.Snapshot) {}
func (nopPresenter) Tick(int) {}
func (nopPresenter) Status(string, string) {}
func (nopPresenter) Warn(string) {}
func (nopPresenter) Confirm(string) {}
func (nopPresenter) Submitted(exam.Result, string) {}
