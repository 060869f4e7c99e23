// Package guard turns exam-shell boundary events and OS signals into
// environment events for the integrity policy.
package guard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proctor/internal/integrity"
)

// Handler decides on an environment event. The proctoring controller
// implements it.
type Handler interface {
	HandleEnvironment(ctx context.Context, event integrity.EnvironmentEvent) integrity.Decision
}

// Clipboard operations.
const (
	OpCopy  = "copy"
	OpPaste = "paste"
)

// ExitSignals are reported as unload attempts.
var ExitSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

type Guard struct {
	handler Handler
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

func New(handler Handler, opts ...Option) (*Guard, error) {
	if handler == nil {
		return nil, fmt.Errorf("environment handler is required")
	}
	g := &Guard{
		handler: handler,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// FullscreenChanged reports a fullscreen transition. Entering fullscreen is
// not an event.
func (g *Guard) FullscreenChanged(ctx context.Context, active bool) (veto bool) {
	if active {
		return false
	}
	return g.forward(ctx, integrity.EventFullscreenExited, "")
}

// VisibilityChanged reports the exam view being hidden or shown. Becoming
// visible is not an event.
func (g *Guard) VisibilityChanged(ctx context.Context, hidden bool) (veto bool) {
	if !hidden {
		return false
	}
	return g.forward(ctx, integrity.EventTabHidden, "")
}

// BeforeUnload reports an attempt to close or navigate away. When it
// returns true the shell must cancel the navigation.
func (g *Guard) BeforeUnload(ctx context.Context) (veto bool) {
	return g.forward(ctx, integrity.EventUnloadAttempt, "")
}

// Clipboard reports a copy or paste attempt.
func (g *Guard) Clipboard(ctx context.Context, op string) (veto bool) {
	return g.forward(ctx, integrity.EventCopyOrPaste, op)
}

// WatchSignals blocks until an exit signal arrives that the policy does not
// veto, and returns it. While the exam is Active exit signals are vetoed
// and logged. Returns ctx.Err() when ctx ends first.
func (g *Guard) WatchSignals(ctx context.Context) (os.Signal, error) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, ExitSignals...)
	defer signal.Stop(ch)
	return g.watch(ctx, ch)
}

func (g *Guard) watch(ctx context.Context, signals <-chan os.Signal) (os.Signal, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sig := <-signals:
			if g.forward(ctx, integrity.EventUnloadAttempt, sig.String()) {
				g.logger.WarnContext(ctx, "exit blocked during exam", "signal", sig.String())
				continue
			}
			return sig, nil
		}
	}
}

func (g *Guard) forward(ctx context.Context, kind integrity.EnvironmentKind, detail string) bool {
	decision := g.handler.HandleEnvironment(ctx, integrity.EnvironmentEvent{
		Kind:   kind,
		Detail: detail,
		At:     g.now(),
	})
	g.logger.DebugContext(ctx, "environment event",
		"kind", kind,
		"detail", detail,
		"action", decision.Action.String(),
		"veto", decision.Veto,
	)
	return decision.Veto
}
