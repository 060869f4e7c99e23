// Package proctor wires registration, the countdown, the monitor loops and
// the environment guard around one exam session. Every input is routed
// through integrity.Decide and the resulting Decision is applied here; this
// is the only package that performs side effects on a decision.
package proctor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"proctor/internal/audit"
	"proctor/internal/capture"
	"proctor/internal/exam"
	"proctor/internal/integrity"
	"proctor/internal/monitor"
	"proctor/internal/platform/metrics"
	"proctor/internal/session"
	"proctor/internal/verification"
	"proctor/pkg/domain"
	"proctor/pkg/platform/sentinel"
)

// Monitor loop names, also used as metric labels and status keys.
const (
	LoopIdentity = "identity"
	LoopObject   = "object"
	LoopHeadPose = "head_pose"
)

// Intervals is the per-loop check cadence.
type Intervals struct {
	Identity time.Duration
	Object   time.Duration
	HeadPose time.Duration
}

// DefaultIntervals keeps identity and object checks more frequent than
// head-pose estimation.
func DefaultIntervals() Intervals {
	return Intervals{
		Identity: 2 * time.Second,
		Object:   1500 * time.Millisecond,
		HeadPose: 5 * time.Second,
	}
}

// Deps are the required collaborators.
type Deps struct {
	Subject   domain.SubjectID
	Questions []exam.Question
	Duration  time.Duration
	Client    verification.Client
	// Frames feeds the monitor loops.
	Frames capture.Source
	// Registration is used for the registration frame. Defaults to Frames.
	Registration capture.Source
}

// Controller owns one exam attempt from registration to result.
type Controller struct {
	deps Deps

	logger    *slog.Logger
	metrics   *metrics.Metrics
	auditor   Auditor
	presenter Presenter
	shell     Shell
	now       func() time.Time
	intervals Intervals
	tick      time.Duration
	threshold int

	mu      sync.Mutex
	session *session.Session
	pending bool
	loops   []*monitor.Loop
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

func WithAuditor(a Auditor) Option {
	return func(c *Controller) {
		c.auditor = a
	}
}

func WithPresenter(p Presenter) Option {
	return func(c *Controller) {
		if p != nil {
			c.presenter = p
		}
	}
}

// WithShell enables fullscreen and focus side effects. Without a shell the
// exam starts without fullscreen.
func WithShell(s Shell) Option {
	return func(c *Controller) {
		c.shell = s
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIntervals overrides the loop cadence. Zero fields keep their default.
func WithIntervals(in Intervals) Option {
	return func(c *Controller) {
		if in.Identity > 0 {
			c.intervals.Identity = in.Identity
		}
		if in.Object > 0 {
			c.intervals.Object = in.Object
		}
		if in.HeadPose > 0 {
			c.intervals.HeadPose = in.HeadPose
		}
	}
}

// WithCountdownTick sets how often the countdown advances by one second.
// Only tests shorten it.
func WithCountdownTick(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithDegradedThreshold is passed to each monitor loop. Zero keeps the
// loop default.
func WithDegradedThreshold(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.threshold = n
		}
	}
}

func New(deps Deps, opts ...Option) (*Controller, error) {
	if deps.Subject == "" {
		return nil, fmt.Errorf("subject id is required")
	}
	if err := exam.Validate(deps.Questions); err != nil {
		return nil, fmt.Errorf("question bank: %w", err)
	}
	if deps.Duration < time.Second {
		return nil, fmt.Errorf("exam duration must be at least 1s")
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("verification client is required")
	}
	if deps.Frames == nil {
		return nil, fmt.Errorf("frame source is required")
	}
	if deps.Registration == nil {
		deps.Registration = deps.Frames
	}

	c := &Controller{
		deps:      deps,
		logger:    slog.New(slog.DiscardHandler),
		presenter: nopPresenter{},
		now:       time.Now,
		intervals: DefaultIntervals(),
		tick:      time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	loops := []monitor.Config{
		{Name: LoopIdentity, Interval: c.intervals.Identity, Capability: verification.CapabilityVerify, Subject: deps.Subject},
		{Name: LoopObject, Interval: c.intervals.Object, Capability: verification.CapabilityObject},
		{Name: LoopHeadPose, Interval: c.intervals.HeadPose, Capability: verification.CapabilityHeadPose},
	}
	for _, cfg := range loops {
		loop, err := monitor.New(cfg, deps.Frames, deps.Client, c.Phase, c.HandleSignal,
			monitor.WithLogger(c.logger),
			monitor.WithMetrics(c.metrics),
			monitor.WithStatus(c.presenter.Status),
			monitor.WithDegradedThreshold(c.threshold),
			monitor.WithClock(c.now),
		)
		if err != nil {
			return nil, fmt.Errorf("build %s loop: %w", cfg.Name, err)
		}
		c.loops = append(c.loops, loop)
	}
	return c, nil
}

// Phase reports Setup until registration succeeds.
func (c *Controller) Phase() domain.Phase {
	sess := c.current()
	if sess == nil {
		return domain.PhaseSetup
	}
	return sess.Phase()
}

// Snapshot returns the session state once the exam has started.
func (c *Controller) Snapshot() (session.Snapshot, bool) {
	sess := c.current()
	if sess == nil {
		return session.Snapshot{}, false
	}
	return sess.Snapshot(), true
}

// Questions returns the bank in display order.
func (c *Controller) Questions() []exam.Question {
	return c.deps.Questions
}

// Register captures a frame and registers the examinee's face. On success
// the session is created, fullscreen is requested and the exam starts. Any
// failure leaves the controller in Setup and may be retried.
func (c *Controller) Register(ctx context.Context) error {
	if c.current() != nil {
		return fmt.Errorf("register: exam already started: %w", sentinel.ErrInvalidState)
	}

	if err := c.registerFace(ctx); err != nil {
		var re *RegistrationError
		if errors.As(err, &re) {
			c.logger.WarnContext(ctx, "registration failed",
				"subject_id", c.deps.Subject,
				"status", re.Status,
				"error", re.Err,
			)
			c.emit(ctx, audit.Event{
				Action:    audit.ActionRegistrationFailed,
				SubjectID: c.deps.Subject,
				Reason:    re.Status,
				Detail:    re.Message,
			})
		}
		return err
	}

	sess, err := session.New(c.deps.Subject, c.deps.Questions, c.deps.Duration)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	if c.shell != nil {
		if err := c.shell.EnterFullscreen(ctx); err != nil && !errors.Is(err, sentinel.ErrUnsupported) {
			return &RegistrationError{
				Status:  RegistrationFullscreenFailed,
				Message: "Could not enter fullscreen mode. Please allow fullscreen and try again.",
				Err:     err,
			}
		}
	}

	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return fmt.Errorf("register: exam already started: %w", sentinel.ErrInvalidState)
	}
	if err := sess.Start(c.now()); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("start session: %w", err)
	}
	c.session = sess
	c.mu.Unlock()

	snap := sess.Snapshot()
	c.logger.InfoContext(ctx, "exam started",
		"session_id", snap.ID,
		"subject_id", snap.SubjectID,
		"remaining_seconds", snap.Remaining,
	)
	c.metrics.SetRemaining(snap.Remaining)
	c.emit(ctx, audit.Event{
		Action:    audit.ActionSessionStarted,
		SessionID: snap.ID,
		SubjectID: snap.SubjectID,
	})
	c.presenter.Started(snap)
	return nil
}

func (c *Controller) registerFace(ctx context.Context) error {
	frame, err := c.deps.Registration.Capture(ctx)
	if err != nil {
		return &RegistrationError{
			Status:  RegistrationCaptureFailed,
			Message: "Could not capture an image from the camera. Please try again.",
			Err:     err,
		}
	}

	outcome, err := c.deps.Client.Send(ctx, verification.CapabilityRegister, frame, c.deps.Subject)
	if err != nil {
		return &RegistrationError{
			Status:  RegistrationUnavailable,
			Message: "Face registration is unavailable right now. Please try again.",
			Err:     err,
		}
	}
	reg, ok := outcome.(verification.RegisterOutcome)
	if !ok {
		return &RegistrationError{
			Status:  RegistrationUnavailable,
			Message: "Face registration returned an unexpected answer. Please try again.",
			Err:     fmt.Errorf("unexpected outcome %T", outcome),
		}
	}

	switch reg.Status {
	case verification.RegisterRegistered:
		return nil
	case verification.RegisterNoFace:
		return &RegistrationError{
			Status:  RegistrationNoFace,
			Message: "No face detected. Please position yourself in front of the camera.",
		}
	case verification.RegisterMultipleFaces:
		return &RegistrationError{
			Status:  RegistrationMultipleFaces,
			Message: "Multiple faces detected. Only you should be visible.",
		}
	default:
		msg := reg.Message
		if msg == "" {
			msg = "Image quality is too low. Please improve lighting and try again."
		}
		return &RegistrationError{Status: RegistrationPoorQuality, Message: msg}
	}
}

// Run drives the countdown and the three monitor loops until the session is
// submitted or ctx is cancelled. It returns the Result on submission and
// ctx's error otherwise.
func (c *Controller) Run(ctx context.Context) (exam.Result, error) {
	sess := c.current()
	if sess == nil {
		return exam.Result{}, fmt.Errorf("run before registration: %w", sentinel.ErrInvalidState)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-sess.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return c.countdown(gctx, sess)
	})
	for _, loop := range c.loops {
		g.Go(func() error {
			return loop.Run(gctx)
		})
	}
	err := g.Wait()

	if result, ok := sess.Result(); ok {
		return result, nil
	}
	if err != nil {
		return exam.Result{}, err
	}
	return exam.Result{}, ctx.Err()
}

func (c *Controller) countdown(ctx context.Context, sess *session.Session) error {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			remaining, expired := sess.Tick()
			c.metrics.SetRemaining(remaining)
			if !sess.Active() {
				return nil
			}
			c.presenter.Tick(remaining)
			if expired {
				c.dispatch(ctx, integrity.Trigger{Kind: integrity.TriggerCountdownExpired, At: c.now()})
				return nil
			}
		}
	}
}

// HandleSignal applies a classified verification result. The monitor loops
// call it; tests may call it directly.
func (c *Controller) HandleSignal(ctx context.Context, sig integrity.Signal) {
	c.dispatch(ctx, sig)
}

// HandleEnvironment applies a shell lifecycle event and returns the
// Decision so the guard can veto the originating action.
func (c *Controller) HandleEnvironment(ctx context.Context, ev integrity.EnvironmentEvent) integrity.Decision {
	return c.dispatch(ctx, ev)
}

// ManualSubmit ends the exam at the examinee's request.
func (c *Controller) ManualSubmit(ctx context.Context) (exam.Result, error) {
	sess := c.current()
	if sess == nil {
		return exam.Result{}, fmt.Errorf("submit before start: %w", sentinel.ErrInvalidState)
	}
	c.dispatch(ctx, integrity.Trigger{Kind: integrity.TriggerManualSubmit, At: c.now()})
	result, ok := sess.Result()
	if !ok {
		return exam.Result{}, fmt.Errorf("submit: %w", sentinel.ErrInvalidState)
	}
	return result, nil
}

func (c *Controller) Answer(question, option int) error {
	sess := c.current()
	if sess == nil {
		return fmt.Errorf("answer before start: %w", sentinel.ErrInvalidState)
	}
	return sess.Answer(question, option)
}

func (c *Controller) ClearAnswer(question int) error {
	sess := c.current()
	if sess == nil {
		return fmt.Errorf("clear before start: %w", sentinel.ErrInvalidState)
	}
	return sess.ClearAnswer(question)
}

// PendingConfirmation reports whether an identity-mismatch prompt is open.
func (c *Controller) PendingConfirmation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// ResolveConfirmation answers the open identity-mismatch prompt. Accepting
// submits the exam; declining keeps it running.
func (c *Controller) ResolveConfirmation(ctx context.Context, accept bool) error {
	c.mu.Lock()
	if !c.pending {
		c.mu.Unlock()
		return fmt.Errorf("no pending confirmation: %w", sentinel.ErrNotFound)
	}
	c.pending = false
	sess := c.session
	c.mu.Unlock()

	if accept {
		c.dispatch(ctx, integrity.Trigger{Kind: integrity.TriggerMismatchConfirmed, At: c.now()})
		return nil
	}

	c.logger.InfoContext(ctx, "identity mismatch declined", "subject_id", c.deps.Subject)
	c.emit(ctx, audit.Event{
		Action:    audit.ActionMismatchDeclined,
		SessionID: sess.ID(),
		SubjectID: c.deps.Subject,
		Reason:    integrity.ReasonIdentityMismatch,
	})
	return nil
}

func (c *Controller) dispatch(ctx context.Context, in integrity.Input) integrity.Decision {
	d := integrity.Decide(in, c.Phase())
	c.metrics.IncrementDecision(d.Action.String(), d.Reason)
	c.apply(ctx, in, d)
	return d
}

func (c *Controller) apply(ctx context.Context, in integrity.Input, d integrity.Decision) {
	switch d.Action {
	case integrity.ActionIgnore:
		if d.Veto && d.Message != "" {
			c.presenter.Warn(d.Message)
		}

	case integrity.ActionWarn:
		c.logger.InfoContext(ctx, "integrity warning", "reason", d.Reason)
		c.presenter.Warn(d.Message)
		if d.Audit {
			c.auditWarning(ctx, in, d)
		}
		if d.RestoreFocus && c.shell != nil {
			c.shell.RestoreFocus(ctx)
		}

	case integrity.ActionConfirmWithUser:
		c.mu.Lock()
		if c.pending || c.session == nil {
			c.mu.Unlock()
			return
		}
		c.pending = true
		sess := c.session
		c.mu.Unlock()

		c.logger.WarnContext(ctx, "identity confirmation requested", "reason", d.Reason)
		c.emit(ctx, audit.Event{
			Action:    audit.ActionMismatchPrompted,
			SessionID: sess.ID(),
			SubjectID: c.deps.Subject,
			Reason:    d.Reason,
		})
		c.presenter.Confirm(d.Message)

	case integrity.ActionForceSubmit:
		c.submit(ctx, in, d)
	}
}

func (c *Controller) auditWarning(ctx context.Context, in integrity.Input, d integrity.Decision) {
	sess := c.current()
	if sess == nil {
		return
	}
	event := audit.Event{
		Action:    audit.ActionWarning,
		SessionID: sess.ID(),
		SubjectID: c.deps.Subject,
		Reason:    d.Reason,
		Detail:    d.Message,
	}
	if sig, ok := in.(integrity.Signal); ok && sig.Source == integrity.SourceHeadPose {
		event.Action = audit.ActionHeadMovement
		event.Detail = sig.Detail
		event.Pose = sig.Pose
		event.Timestamp = sig.At
	}
	c.emit(ctx, event)
}

// submit performs the single Active → Submitted transition. Losers of the
// race return without side effects.
func (c *Controller) submit(ctx context.Context, in integrity.Input, d integrity.Decision) {
	sess := c.current()
	if sess == nil {
		return
	}
	result, first, err := sess.Submit(d.Reason, c.now())
	if err != nil {
		c.logger.ErrorContext(ctx, "submit failed", "reason", d.Reason, "error", err)
		return
	}
	if !first {
		return
	}

	c.mu.Lock()
	c.pending = false
	c.mu.Unlock()
	for _, loop := range c.loops {
		loop.Stop()
	}

	c.metrics.IncrementSubmission(d.Reason)
	c.metrics.SetRemaining(sess.Remaining())
	c.logger.InfoContext(ctx, "exam submitted",
		"session_id", sess.ID(),
		"subject_id", c.deps.Subject,
		"reason", d.Reason,
		"score", result.Score,
		"total", result.Total,
	)

	event := audit.Event{
		Action:    audit.ActionSessionSubmitted,
		SessionID: sess.ID(),
		SubjectID: c.deps.Subject,
		Reason:    d.Reason,
		Detail:    d.Message,
		Result:    &result,
	}
	if sig, ok := in.(integrity.Signal); ok {
		event.Objects = sig.Objects
	}
	c.emit(ctx, event)
	c.presenter.Submitted(result, d.Message)
}

func (c *Controller) emit(ctx context.Context, event audit.Event) {
	if c.auditor == nil {
		return
	}
	c.auditor.Emit(ctx, event)
}

func (c *Controller) current() *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}
