// Package console is the terminal front end. It reads line commands from
// stdin, forwards them to the exam controller or the environment guard and
// renders exam state with lipgloss.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"proctor/internal/exam"
	"proctor/internal/guard"
	"proctor/internal/proctor"
	"proctor/internal/session"
	"proctor/pkg/platform/sentinel"
)

// Exam is the part of the controller the console drives.
type Exam interface {
	Register(ctx context.Context) error
	Answer(question, option int) error
	ClearAnswer(question int) error
	ManualSubmit(ctx context.Context) (exam.Result, error)
	ResolveConfirmation(ctx context.Context, accept bool) error
	Snapshot() (session.Snapshot, bool)
	Questions() []exam.Question
}

// Environment receives simulated shell events. *guard.Guard satisfies it.
type Environment interface {
	FullscreenChanged(ctx context.Context, active bool) (veto bool)
	VisibilityChanged(ctx context.Context, hidden bool) (veto bool)
	BeforeUnload(ctx context.Context) (veto bool)
	Clipboard(ctx context.Context, op string) (veto bool)
}

const (
	enterAltScreen = "\x1b[?1049h\x1b[H"
	leaveAltScreen = "\x1b[?1049l"
)

// Console implements proctor.Presenter and proctor.Shell.
type Console struct {
	out       io.Writer
	theme     Theme
	logger    *slog.Logger
	altScreen bool

	exam Exam
	env  Environment

	mu        sync.Mutex
	current int
	checks  map[string]string
	inAlt   bool

	started   chan struct{}
	startOnce sync.Once
}

type Option func(*Console)

func WithTheme(theme Theme) Option {
	return func(c *Console) {
		c.theme = theme
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAltScreen makes EnterFullscreen switch the terminal to its alternate
// screen. Without it the console reports fullscreen as unsupported.
func WithAltScreen(enabled bool) Option {
	return func(c *Console) {
		c.altScreen = enabled
	}
}

func New(out io.Writer, opts ...Option) (*Console, error) {
	if out == nil {
		return nil, fmt.Errorf("output writer is required")
	}
	c := &Console{
		out:     out,
		theme:   DefaultTheme(),
		logger:  slog.New(slog.DiscardHandler),
		checks:  map[string]string{},
		started: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Bind attaches the controller and guard. The console is created first so
// it can be handed to the controller as its presenter.
func (c *Console) Bind(exam Exam, env Environment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exam = exam
	c.env = env
}

// Ready is closed once registration succeeds and the exam is running.
func (c *Console) Ready() <-chan struct{} {
	return c.started
}

// Run reads commands from in until ctx is done or in is exhausted.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	c.mu.Lock()
	bound := c.exam != nil && c.env != nil
	c.mu.Unlock()
	if !bound {
		return fmt.Errorf("console is not bound to an exam")
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	c.println(c.theme.Faint.Render("Type start to register your face and begin. Type help for commands."))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		case line := <-lines:
			c.Handle(ctx, line)
		}
	}
}

// Handle executes one input line. Problems are printed, never returned.
func (c *Console) Handle(ctx context.Context, line string) {
	cmd, err := Parse(line)
	if err != nil {
		c.println(c.theme.Warning.Render(err.Error()))
		return
	}
	if cmd.Name == "" {
		return
	}
	c.logger.DebugContext(ctx, "console command", "command", cmd.Name)

	switch cmd.Name {
	case CmdHelp:
		c.println(helpText)
	case CmdStart:
		c.start(ctx)
	case CmdQuestion:
		c.show(cmd.Args[0] - 1)
	case CmdNext:
		c.show(c.position() + 1)
	case CmdPrev:
		c.show(c.position() - 1)
	case CmdAnswer:
		q, opt := cmd.Args[0]-1, cmd.Args[1]-1
		if !c.addressable(q, opt) {
			return
		}
		if err := c.exam.Answer(q, opt); err != nil {
			c.fail(err)
			return
		}
		c.println(c.theme.Success.Render(fmt.Sprintf("Saved answer %d for question %d.", opt+1, q+1)))
	case CmdClear:
		if !c.addressable(cmd.Args[0]-1, 0) {
			return
		}
		if err := c.exam.ClearAnswer(cmd.Args[0] - 1); err != nil {
			c.fail(err)
			return
		}
		c.println(c.theme.Success.Render(fmt.Sprintf("Cleared question %d.", cmd.Args[0])))
	case CmdSubmit:
		if _, err := c.exam.ManualSubmit(ctx); err != nil {
			c.fail(err)
		}
	case CmdYes, CmdNo:
		if err := c.exam.ResolveConfirmation(ctx, cmd.Name == CmdYes); err != nil {
			c.fail(err)
			return
		}
		if cmd.Name == CmdNo {
			c.println(c.theme.Faint.Render("Continuing the exam."))
		}
	case CmdStatus:
		c.status()
	case CmdFullscreenExit:
		c.env.FullscreenChanged(ctx, false)
	case CmdTabHidden:
		c.env.VisibilityChanged(ctx, true)
	case CmdUnload:
		c.env.BeforeUnload(ctx)
	case CmdCopy:
		c.env.Clipboard(ctx, guard.OpCopy)
	case CmdPaste:
		c.env.Clipboard(ctx, guard.OpPaste)
	}
}

func (c *Console) start(ctx context.Context) {
	c.println(c.theme.Faint.Render("Registering your face..."))
	err := c.exam.Register(ctx)
	if err == nil {
		return
	}
	if re, ok := proctor.IsRegistrationError(err); ok {
		c.println(c.theme.Alert.Render(re.Message))
		c.println(c.theme.Faint.Render("Type start to try again."))
		return
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		c.println(c.theme.Faint.Render("The exam is already running."))
		return
	}
	c.fail(err)
}

// addressable prints a 1-based message when (q, opt) is outside the bank.
func (c *Console) addressable(q, opt int) bool {
	questions := c.exam.Questions()
	if q < 0 || q >= len(questions) {
		c.println(c.theme.Warning.Render(fmt.Sprintf("There is no question %d.", q+1)))
		return false
	}
	if opt < 0 || opt >= len(questions[q].Options) {
		c.println(c.theme.Warning.Render(fmt.Sprintf("Question %d has no option %d.", q+1, opt+1)))
		return false
	}
	return true
}

func (c *Console) show(index int) {
	snap, ok := c.exam.Snapshot()
	if !ok {
		c.fail(sentinel.ErrInvalidState)
		return
	}
	questions := c.exam.Questions()
	if index < 0 || index >= len(questions) {
		c.println(c.theme.Warning.Render(fmt.Sprintf("There is no question %d.", index+1)))
		return
	}
	c.mu.Lock()
	c.current = index
	c.mu.Unlock()
	c.print(RenderQuestion(c.theme, index, questions, snap.Answers))
}

func (c *Console) status() {
	snap, ok := c.exam.Snapshot()
	if !ok {
		c.fail(sentinel.ErrInvalidState)
		return
	}
	c.mu.Lock()
	checks := make(map[string]string, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.Unlock()
	c.print(RenderStatus(c.theme, snap, checks))
}

func (c *Console) position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Console) fail(err error) {
	var msg string
	switch {
	case errors.Is(err, sentinel.ErrAlreadySubmitted):
		msg = "The exam has already been submitted."
	case errors.Is(err, sentinel.ErrInvalidState):
		msg = "The exam has not started. Type start."
	case errors.Is(err, sentinel.ErrNotFound):
		msg = "Nothing to do: " + err.Error() + "."
	default:
		msg = err.Error()
	}
	c.println(c.theme.Warning.Render(msg))
}

// Started implements proctor.Presenter.
func (c *Console) Started(snap session.Snapshot) {
	c.mu.Lock()
	c.current = 0
	c.mu.Unlock()
	c.startOnce.Do(func() { close(c.started) })

	c.println(c.theme.Success.Render("Exam started. Time left " + FormatRemaining(snap.Remaining) + "."))
	if c.exam != nil {
		c.print(RenderQuestion(c.theme, 0, c.exam.Questions(), snap.Answers))
	}
}

// Tick prints the remaining time on minute boundaries and during the last
// ten seconds.
func (c *Console) Tick(remaining int) {
	if remaining > 0 && (remaining%60 == 0 || remaining == 30 || remaining <= 10) {
		c.println(c.theme.Faint.Render("Time left " + FormatRemaining(remaining)))
	}
}

func (c *Console) Status(loop, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[loop] = line
}

func (c *Console) Warn(message string) {
	c.println(c.theme.Warning.Render(message))
}

func (c *Console) Confirm(message string) {
	c.println(c.theme.Alert.Render(message))
	c.println(c.theme.Faint.Render("Type yes to submit the exam or no to continue."))
}

func (c *Console) Submitted(result exam.Result, message string) {
	c.mu.Lock()
	wasAlt := c.inAlt
	c.inAlt = false
	c.mu.Unlock()
	if wasAlt {
		c.print(leaveAltScreen)
	}
	if message != "" {
		c.println(c.theme.Alert.Render(message))
	}
	c.println(RenderResult(c.theme, result))
}

// EnterFullscreen implements proctor.Shell.
func (c *Console) EnterFullscreen(_ context.Context) error {
	if !c.altScreen {
		return sentinel.ErrUnsupported
	}
	c.mu.Lock()
	c.inAlt = true
	c.mu.Unlock()
	c.print(enterAltScreen)
	return nil
}

// RestoreFocus redraws the current question.
func (c *Console) RestoreFocus(_ context.Context) {
	snap, ok := c.exam.Snapshot()
	if !ok {
		return
	}
	c.print(RenderQuestion(c.theme, c.position(), c.exam.Questions(), snap.Answers))
}

// Close leaves the alternate screen if it is still active.
func (c *Console) Close() {
	c.mu.Lock()
	wasAlt := c.inAlt
	c.inAlt = false
	c.mu.Unlock()
	if wasAlt {
		c.print(leaveAltScreen)
	}
}

func (c *Console) println(s string) {
	c.print(strings.TrimRight(s, "\n") + "\n")
}

// print serializes writes from the input loop, the countdown and the
// monitor loops.
func (c *Console) print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.out, s); err != nil {
		c.logger.Warn("console write failed", "error", err)
	}
}
