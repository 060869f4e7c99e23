package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the proctoring process.
// Every helper is safe on a nil receiver so components can run without
// metrics in tests.
type Metrics struct {
	// Monitor loop ticks by loop and outcome: signal, capture_failed,
	// transport_failed, dropped, skipped
	MonitorTicks *prometheus.CounterVec

	// Consecutive failed ticks per loop
	LoopFailures *prometheus.GaugeVec

	// Verification call latency by capability and result
	VerificationLatency *prometheus.HistogramVec

	// Policy decisions by action and reason
	Decisions *prometheus.CounterVec

	// Accepted submissions by reason; at most one per session
	Submissions *prometheus.CounterVec

	// Audit deliveries by sink and result
	AuditEvents *prometheus.CounterVec

	// 1 while an audit sink's circuit breaker is open
	AuditBreakerOpen *prometheus.GaugeVec

	// Remaining exam time
	RemainingSeconds prometheus.Gauge
}

// New registers collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MonitorTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_monitor_ticks_total",
			Help: "Monitor loop ticks by loop and outcome",
		}, []string{"loop", "outcome"}),

		LoopFailures: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "proctor_monitor_consecutive_failures",
			Help: "Consecutive failed ticks per monitor loop",
		}, []string{"loop"}),

		VerificationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proctor_verification_duration_seconds",
			Help:    "Duration of verification service calls by capability and result",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"capability", "result"}),

		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_policy_decisions_total",
			Help: "Integrity policy decisions by action and reason",
		}, []string{"action", "reason"}),

		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_submissions_total",
			Help: "Exam submissions by reason",
		}, []string{"reason"}),

		AuditEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_audit_events_total",
			Help: "Audit event deliveries by sink and result",
		}, []string{"sink", "result"}),

		AuditBreakerOpen: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "proctor_audit_circuit_open",
			Help: "Whether the audit sink circuit breaker is open (1) or closed (0)",
		}, []string{"sink"}),

		RemainingSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "proctor_exam_remaining_seconds",
			Help: "Seconds left on the exam countdown",
		}),
	}
}

func (m *Metrics) IncrementTick(loop, outcome string) {
	if m != nil {
		m.MonitorTicks.WithLabelValues(loop, outcome).Inc()
	}
}

func (m *Metrics) SetLoopFailures(loop string, n int) {
	if m != nil {
		m.LoopFailures.WithLabelValues(loop).Set(float64(n))
	}
}

func (m *Metrics) ObserveVerification(capability, result string, d time.Duration) {
	if m != nil {
		m.VerificationLatency.WithLabelValues(capability, result).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementDecision(action, reason string) {
	if m != nil {
		m.Decisions.WithLabelValues(action, reason).Inc()
	}
}

func (m *Metrics) IncrementSubmission(reason string) {
	if m != nil {
		m.Submissions.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncrementAudit(sink, result string) {
	if m != nil {
		m.AuditEvents.WithLabelValues(sink, result).Inc()
	}
}

func (m *Metrics) SetAuditBreaker(sink string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.AuditBreakerOpen.WithLabelValues(sink).Set(v)
}

func (m *Metrics) SetRemaining(seconds int) {
	if m != nil {
		m.RemainingSeconds.Set(float64(seconds))
	}
}
