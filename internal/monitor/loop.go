// Package monitor runs the periodic capture → verify → classify loops.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"proctor/internal/capture"
	"proctor/internal/integrity"
	"proctor/internal/platform/metrics"
	"proctor/internal/verification"
	"proctor/pkg/domain"
)

// Tick outcomes, also used as metric labels.
const (
	outcomeSignal          = "signal"
	outcomeCaptureFailed   = "capture_failed"
	outcomeTransportFailed = "transport_failed"
	outcomeUnclassified    = "unclassified"
	outcomeDropped         = "dropped"
	outcomeSkipped         = "skipped"
)

const defaultDegradedThreshold = 3

// ErrRunning is returned by Run when the loop is already running.
var ErrRunning = errors.New("monitor loop already running")

// PhaseFunc reports the current session phase. It is read before every
// tick and again after every verification call.
type PhaseFunc func() domain.Phase

// SignalHandler receives every classified signal. It is called from the
// loop goroutine and must not block for long.
type SignalHandler func(ctx context.Context, sig integrity.Signal)

// Config names one loop and what it checks.
type Config struct {
	Name       string
	Interval   time.Duration
	Capability verification.Capability
	Subject    domain.SubjectID
}

// Loop issues one verification call per interval while the session is
// Active. Failures of any kind are logged and skipped; they never produce a
// signal.
type Loop struct {
	cfg      Config
	source   capture.Source
	client   verification.Client
	phase    PhaseFunc
	onSignal SignalHandler

	logger    *slog.Logger
	metrics   *metrics.Metrics
	status    func(loop, line string)
	now       func() time.Time
	threshold int

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	stopOnce *sync.Once
	failures int
}

type Option func(*Loop)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loop) {
		l.metrics = m
	}
}

// WithStatus receives a "last check" line after every classified tick.
func WithStatus(fn func(loop, line string)) Option {
	return func(l *Loop) {
		l.status = fn
	}
}

// WithDegradedThreshold sets how many consecutive failed ticks mark the
// loop as degraded in logs. Defaults to 3.
func WithDegradedThreshold(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.threshold = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

func New(cfg Config, source capture.Source, client verification.Client, phase PhaseFunc, onSignal SignalHandler, opts ...Option) (*Loop, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("loop name is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("loop %s: interval must be positive", cfg.Name)
	}
	if !cfg.Capability.Valid() || cfg.Capability == verification.CapabilityRegister {
		return nil, fmt.Errorf("loop %s: %w: %q", cfg.Name, verification.ErrUnknownCapability, cfg.Capability)
	}
	if source == nil {
		return nil, fmt.Errorf("frame source is required")
	}
	if client == nil {
		return nil, fmt.Errorf("verification client is required")
	}
	if phase == nil {
		return nil, fmt.Errorf("phase func is required")
	}
	if onSignal == nil {
		return nil, fmt.Errorf("signal handler is required")
	}

	l := &Loop{
		cfg:       cfg,
		source:    source,
		client:    client,
		phase:     phase,
		onSignal:  onSignal,
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		threshold: defaultDegradedThreshold,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Loop) Name() string {
	return l.cfg.Name
}

// Failures returns the current consecutive-failure count.
func (l *Loop) Failures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures
}

// Run ticks until ctx is done, Stop is called, or the session is observed
// in Submitted. It returns nil in all three cases. A loop may be run again
// after Run returns.
func (l *Loop) Run(ctx context.Context) error {
	stop, err := l.begin()
	if err != nil {
		return err
	}
	defer l.end()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	l.logger.DebugContext(ctx, "monitor loop started", "loop", l.cfg.Name, "interval", l.cfg.Interval)
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.DebugContext(ctx, "monitor loop stopped", "loop", l.cfg.Name)
			return nil
		case <-ticker.C:
			select {
			case <-stop:
				l.logger.DebugContext(ctx, "monitor loop stopped", "loop", l.cfg.Name)
				return nil
			default:
			}
			if finished := l.tick(ctx); finished {
				l.logger.DebugContext(ctx, "monitor loop finished, session submitted", "loop", l.cfg.Name)
				return nil
			}
		}
	}
}

// Stop ends the current run and cancels any in-flight call. Safe to call
// any number of times, including before Run.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		stop := l.stop
		l.stopOnce.Do(func() { close(stop) })
	}
}

func (l *Loop) begin() (<-chan struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return nil, ErrRunning
	}
	l.running = true
	l.stop = make(chan struct{})
	l.stopOnce = &sync.Once{}
	return l.stop, nil
}

func (l *Loop) end() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
}

// tick performs one check. It reports true when the session is Submitted
// and the loop should end.
func (l *Loop) tick(ctx context.Context) bool {
	switch l.phase() {
	case domain.PhaseActive:
	case domain.PhaseSubmitted:
		l.metrics.IncrementTick(l.cfg.Name, outcomeSkipped)
		return true
	default:
		l.metrics.IncrementTick(l.cfg.Name, outcomeSkipped)
		return false
	}

	frame, err := l.source.Capture(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		l.fail(ctx, outcomeCaptureFailed, err)
		return false
	}

	// The session may have been submitted, or the loop stopped, while the
	// frame was being captured.
	if l.stale(ctx) {
		l.metrics.IncrementTick(l.cfg.Name, outcomeDropped)
		return l.phase() == domain.PhaseSubmitted
	}

	outcome, err := l.client.Send(ctx, l.cfg.Capability, frame, l.cfg.Subject)

	// Anything that arrives after stop, cancellation or submission is stale.
	if l.stale(ctx) {
		l.metrics.IncrementTick(l.cfg.Name, outcomeDropped)
		return false
	}
	if err != nil {
		l.fail(ctx, outcomeTransportFailed, err)
		return false
	}

	sig, err := Classify(outcome, l.now())
	if err != nil {
		l.fail(ctx, outcomeUnclassified, err)
		return false
	}

	l.recovered(ctx)
	l.metrics.IncrementTick(l.cfg.Name, outcomeSignal)
	if l.status != nil {
		l.status(l.cfg.Name, StatusLine(sig))
	}
	l.onSignal(ctx, sig)
	return false
}

// stale reports whether a result gathered now must be discarded. Stop
// closes the stop channel before the run context is cancelled, so both are
// checked.
func (l *Loop) stale(ctx context.Context) bool {
	if ctx.Err() != nil || l.phase() != domain.PhaseActive {
		return true
	}
	l.mu.Lock()
	stop := l.stop
	l.mu.Unlock()
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

func (l *Loop) fail(ctx context.Context, outcome string, err error) {
	l.mu.Lock()
	l.failures++
	n := l.failures
	l.mu.Unlock()

	l.metrics.IncrementTick(l.cfg.Name, outcome)
	l.metrics.SetLoopFailures(l.cfg.Name, n)

	attrs := []any{
		"loop", l.cfg.Name,
		"capability", l.cfg.Capability,
		"outcome", outcome,
		"consecutive_failures", n,
		"error", err,
	}
	if category := verification.GetCategory(err); category != "" {
		attrs = append(attrs, "category", category)
	}
	if n == l.threshold {
		l.logger.WarnContext(ctx, "monitor loop degraded", attrs...)
		if l.status != nil {
			l.status(l.cfg.Name, "Check unavailable, retrying")
		}
		return
	}
	l.logger.DebugContext(ctx, "monitor tick skipped", attrs...)
}

func (l *Loop) recovered(ctx context.Context) {
	l.mu.Lock()
	n := l.failures
	l.failures = 0
	l.mu.Unlock()

	if n == 0 {
		return
	}
	l.metrics.SetLoopFailures(l.cfg.Name, 0)
	if n >= l.threshold {
		l.logger.InfoContext(ctx, "monitor loop recovered", "loop", l.cfg.Name, "failed_ticks", n)
	}
}
