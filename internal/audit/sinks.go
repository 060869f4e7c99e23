package audit

import (
	"context"
	"log/slog"
	"sync"

	"proctor/internal/verification"
)

// LogSink writes events to the structured log only.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(ctx context.Context, event Event) error {
	attrs := []any{
		"event_id", event.ID,
		"action", event.Action,
		"session_id", event.SessionID,
		"subject_id", event.SubjectID,
	}
	if event.Reason != "" {
		attrs = append(attrs, "reason", event.Reason)
	}
	if event.Detail != "" {
		attrs = append(attrs, "detail", event.Detail)
	}
	if len(event.Objects) > 0 {
		attrs = append(attrs, "objects", event.Objects)
	}
	if event.Pose != nil {
		attrs = append(attrs, "yaw", event.Pose.Yaw, "pitch", event.Pose.Pitch, "roll", event.Pose.Roll)
	}
	if event.Result != nil {
		attrs = append(attrs, "score", event.Result.Score, "total", event.Result.Total)
	}
	s.logger.InfoContext(ctx, "audit", attrs...)
	return nil
}

// MemorySink keeps events in process. Useful in tests and as a dry-run sink.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Name() string { return "memory" }

func (s *MemorySink) Write(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything written so far, in order.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// AlertSink forwards head-movement alerts to the verification service's
// alert log. The service keeps no other audit records, so other actions are
// accepted and discarded.
type AlertSink struct {
	alerts verification.AlertLogger
}

func NewAlertSink(alerts verification.AlertLogger) *AlertSink {
	return &AlertSink{alerts: alerts}
}

func (s *AlertSink) Name() string { return "http" }

func (s *AlertSink) Write(ctx context.Context, event Event) error {
	if event.Action != ActionHeadMovement {
		return nil
	}
	return s.alerts.LogAlert(ctx, verification.Alert{
		SubjectID: event.SubjectID,
		Direction: event.Detail,
		Time:      event.Timestamp,
	})
}
