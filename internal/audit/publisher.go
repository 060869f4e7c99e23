package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"proctor/internal/platform/metrics"
	"proctor/pkg/platform/circuit"
)

// Sink persists or forwards one event. Implementations must be safe for
// concurrent use.
type Sink interface {
	Name() string
	Write(ctx context.Context, event Event) error
}

// Delivery results, also used as metric labels.
const (
	resultDelivered   = "delivered"
	resultFailed      = "failed"
	resultCircuitOpen = "circuit_open"
	resultOverflow    = "overflow"
)

// Publisher buffers events in memory and delivers them to a Sink from a
// background worker. Emit never blocks and never fails. When the sink keeps
// failing, a circuit breaker sheds events instead of piling up retries.
type Publisher struct {
	sink    Sink
	buffer  *RingBuffer
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	writeTimeout  time.Duration
	flushInterval time.Duration
	batchSize     int

	notify  chan struct{}
	drainMu sync.Mutex
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithBufferSize bounds pending events. Defaults to 1024.
func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		p.buffer = NewRingBuffer(n)
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		if b != nil {
			p.breaker = b
		}
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.writeTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPublisher(sink Sink, opts ...Option) (*Publisher, error) {
	if sink == nil {
		return nil, fmt.Errorf("audit sink is required")
	}
	p := &Publisher{
		sink:          sink,
		buffer:        NewRingBuffer(0),
		logger:        slog.New(slog.DiscardHandler),
		now:           time.Now,
		writeTimeout:  3 * time.Second,
		flushInterval: time.Second,
		batchSize:     64,
		notify:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.breaker == nil {
		p.breaker = circuit.New("audit_" + sink.Name())
	}
	return p, nil
}

// SinkName reports where events go.
func (p *Publisher) SinkName() string {
	return p.sink.Name()
}

// Emit stamps and queues event for delivery. A missing ID or timestamp is
// filled in.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if p.buffer.Enqueue(event) {
		p.metrics.IncrementAudit(p.sink.Name(), resultOverflow)
		p.logger.WarnContext(ctx, "audit buffer full, oldest event dropped", "sink", p.sink.Name())
	}
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Pending returns the number of undelivered events.
func (p *Publisher) Pending() int {
	return p.buffer.Len()
}

// Dropped returns the number of events lost to buffer overflow.
func (p *Publisher) Dropped() int64 {
	return p.buffer.Dropped()
}

// Flush delivers everything currently buffered. Safe to call alongside Run.
func (p *Publisher) Flush(ctx context.Context) {
	p.drainMu.Lock()
	defer p.drainMu.Unlock()
	for {
		batch := p.buffer.DequeueBatch(p.batchSize)
		if len(batch) == 0 {
			return
		}
		for _, event := range batch {
			p.deliver(ctx, event)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, event Event) {
	name := p.sink.Name()
	if !p.breaker.Allow() {
		p.metrics.IncrementAudit(name, resultCircuitOpen)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	err := p.sink.Write(writeCtx, event)
	cancel()

	if err != nil {
		p.metrics.IncrementAudit(name, resultFailed)
		_, change := p.breaker.RecordFailure()
		p.logger.WarnContext(ctx, "audit delivery failed",
			"sink", name,
			"action", event.Action,
			"event_id", event.ID,
			"error", err,
		)
		if change.Opened {
			p.metrics.SetAuditBreaker(name, true)
			p.logger.WarnContext(ctx, "audit sink circuit opened", "sink", name)
		}
		return
	}

	p.metrics.IncrementAudit(name, resultDelivered)
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.metrics.SetAuditBreaker(name, false)
		p.logger.InfoContext(ctx, "audit sink circuit closed", "sink", name)
	}
}
