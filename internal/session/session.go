// Package session owns the exam lifecycle: Setup → Active → Submitted, the
// countdown and the single submit transition.
package session

import (
	"fmt"
	"sync"
	"time"

	"proctor/internal/exam"
	"proctor/pkg/domain"
	"proctor/pkg/platform/sentinel"
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	ID        domain.SessionID `json:"id"`
	SubjectID domain.SubjectID `json:"subject_id"`
	Phase     string           `json:"phase"`
	StartedAt time.Time        `json:"started_at,omitzero"`
	Remaining int              `json:"remaining_seconds"`
	Answers   exam.Answers     `json:"answers"`
	Questions int              `json:"questions"`
	Result    *exam.Result     `json:"result,omitempty"`
}

// Session is the single mutable record shared by the countdown driver, the
// monitor loops and the user. Every field is guarded by mu; the mutex is the
// authoritative gate for the submit transition.
type Session struct {
	id        domain.SessionID
	subject   domain.SubjectID
	questions []exam.Question

	mu        sync.Mutex
	phase     domain.Phase
	startedAt time.Time
	remaining int
	answers   exam.Answers
	result    exam.Result

	done chan struct{}
}

// New creates a session in Setup. duration is truncated to whole seconds.
func New(subject domain.SubjectID, questions []exam.Question, duration time.Duration) (*Session, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject id is required")
	}
	if err := exam.Validate(questions); err != nil {
		return nil, err
	}
	seconds := int(duration / time.Second)
	if seconds <= 0 {
		return nil, fmt.Errorf("duration must be at least one second, got %s", duration)
	}
	return &Session{
		id:        domain.NewSessionID(),
		subject:   subject,
		questions: questions,
		phase:     domain.PhaseSetup,
		remaining: seconds,
		answers:   exam.Answers{},
		done:      make(chan struct{}),
	}, nil
}

func (s *Session) ID() domain.SessionID {
	return s.id
}

func (s *Session) Subject() domain.SubjectID {
	return s.subject
}

// Questions returns the bank. Callers must treat it as read-only.
func (s *Session) Questions() []exam.Question {
	return s.questions
}

func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Active reports whether the exam is running.
func (s *Session) Active() bool {
	return s.Phase() == domain.PhaseActive
}

// Done is closed when the session enters Submitted.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start moves Setup → Active.
func (s *Session) Start(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case domain.PhaseSetup:
		s.phase = domain.PhaseActive
		s.startedAt = now
		return nil
	case domain.PhaseSubmitted:
		return sentinel.ErrAlreadySubmitted
	default:
		return fmt.Errorf("start from %s: %w", s.phase, sentinel.ErrInvalidState)
	}
}

// Answer records the selected option for a question. Re-answering replaces
// the previous selection.
func (s *Session) Answer(question, option int) error {
	if err := exam.CheckSelection(s.questions, question, option); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireActiveLocked(); err != nil {
		return err
	}
	s.answers[question] = option
	return nil
}

// ClearAnswer marks a question unanswered again.
func (s *Session) ClearAnswer(question int) error {
	if question < 0 || question >= len(s.questions) {
		return fmt.Errorf("question %d: %w", question, sentinel.ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireActiveLocked(); err != nil {
		return err
	}
	delete(s.answers, question)
	return nil
}

// Tick advances the countdown by one second. It returns true exactly once:
// on the tick that brings the remaining time to zero while Active.
func (s *Session) Tick() (remaining int, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseActive || s.remaining == 0 {
		return s.remaining, false
	}
	s.remaining--
	return s.remaining, s.remaining == 0
}

func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Submit is the only way into Submitted. The first caller while Active
// scores the answers and wins; every other caller, concurrent or later,
// gets the same stored Result with first == false. Submitting from Setup
// fails with ErrInvalidState.
func (s *Session) Submit(reason string, now time.Time) (result exam.Result, first bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case domain.PhaseSubmitted:
		return s.result, false, nil
	case domain.PhaseSetup:
		return exam.Result{}, false, fmt.Errorf("submit before start: %w", sentinel.ErrInvalidState)
	}

	s.result = exam.Grade(s.questions, s.answers, reason, now)
	s.phase = domain.PhaseSubmitted
	close(s.done)
	return s.result, true, nil
}

// Result returns the stored result once submitted.
func (s *Session) Result() (exam.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.phase == domain.PhaseSubmitted
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:        s.id,
		SubjectID: s.subject,
		Phase:     s.phase.String(),
		StartedAt: s.startedAt,
		Remaining: s.remaining,
		Answers:   s.answers.Clone(),
		Questions: len(s.questions),
	}
	if s.phase == domain.PhaseSubmitted {
		res := s.result
		snap.Result = &res
	}
	return snap
}

func (s *Session) requireActiveLocked() error {
	switch s.phase {
	case domain.PhaseActive:
		return nil
	case domain.PhaseSubmitted:
		return sentinel.ErrAlreadySubmitted
	default:
		return fmt.Errorf("session is %s: %w", s.phase, sentinel.ErrInvalidState)
	}
}
