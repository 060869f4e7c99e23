package proctor_test

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Presenter,Shell,Auditor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"proctor/internal/audit"
	"proctor/internal/capture"
	capturemocks "proctor/internal/capture/mocks"
	"proctor/internal/exam"
	"proctor/internal/integrity"
	"proctor/internal/platform/metrics"
	"proctor/internal/proctor"
	"proctor/internal/proctor/mocks"
	"proctor/internal/verification"
	verificationmocks "proctor/internal/verification/mocks"
	"proctor/pkg/domain"
	"proctor/pkg/platform/sentinel"
)

// =============================================================================
// Controller Test Suite
// =============================================================================
// Justification for unit tests: the controller is where concurrent inputs
// (countdown, three loops, guard events, the examinee) meet the single
// submit transition. Exactly-once submission, the confirmation flow and
// "no calls after Submitted" need controlled timing that only mocks give.

type ControllerSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	source    *capturemocks.MockSource
	client    *verificationmocks.MockClient
	presenter *mocks.MockPresenter
	shell     *mocks.MockShell
	sink      *audit.MemorySink
	publisher *audit.Publisher
	metrics   *metrics.Metrics
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

const subject = domain.SubjectID("21CS001")

var (
	frame = capture.Frame{Data: []byte("jpeg"), ContentType: "image/jpeg", Name: "f.jpg"}
	idle  = time.Hour
	// correct option per question of the default bank
	correct = []int{2, 1, 1, 1, 1, 1, 2, 1, 2, 2}
)

func (s *ControllerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.source = capturemocks.NewMockSource(s.ctrl)
	s.client = verificationmocks.NewMockClient(s.ctrl)
	s.presenter = mocks.NewMockPresenter(s.ctrl)
	s.shell = mocks.NewMockShell(s.ctrl)
	s.sink = audit.NewMemorySink()
	var err error
	s.publisher, err = audit.NewPublisher(s.sink)
	s.Require().NoError(err)
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())

	s.source.EXPECT().Capture(gomock.Any()).Return(frame, nil).AnyTimes()
	s.presenter.EXPECT().Status(gomock.Any(), gomock.Any()).AnyTimes()
	s.presenter.EXPECT().Tick(gomock.Any()).AnyTimes()
}

func (s *ControllerSuite) newController(duration time.Duration, opts ...proctor.Option) *proctor.Controller {
	base := []proctor.Option{
		proctor.WithMetrics(s.metrics),
		proctor.WithAuditor(s.publisher),
		proctor.WithPresenter(s.presenter),
		proctor.WithShell(s.shell),
		proctor.WithIntervals(proctor.Intervals{Identity: idle, Object: idle, HeadPose: idle}),
		proctor.WithCountdownTick(idle),
	}
	c, err := proctor.New(proctor.Deps{
		Subject:   subject,
		Questions: exam.DefaultBank(),
		Duration:  duration,
		Client:    s.client,
		Frames:    s.source,
	}, append(base, opts...)...)
	s.Require().NoError(err)
	return c
}

// started returns a controller that has passed registration.
func (s *ControllerSuite) started(duration time.Duration, opts ...proctor.Option) *proctor.Controller {
	c := s.newController(duration, opts...)
	s.client.EXPECT().Send(gomock.Any(), verification.CapabilityRegister, frame, subject).
		Return(verification.RegisterOutcome{Status: verification.RegisterRegistered}, nil)
	s.shell.EXPECT().EnterFullscreen(gomock.Any()).Return(nil)
	s.presenter.EXPECT().Started(gomock.Any())
	s.Require().NoError(c.Register(context.Background()))
	s.Require().Equal(domain.PhaseActive, c.Phase())
	return c
}

func (s *ControllerSuite) events(action audit.Action) []audit.Event {
	s.publisher.Flush(context.Background())
	var out []audit.Event
	for _, e := range s.sink.Events() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (s *ControllerSuite) submissions() float64 {
	var total float64
	for _, reason := range []string{
		integrity.ReasonForbiddenObject,
		integrity.ReasonFullscreenExited,
		integrity.ReasonCountdownExpired,
		integrity.ReasonManualSubmit,
		integrity.ReasonMismatchConfirmed,
	} {
		total += testutil.ToFloat64(s.metrics.Submissions.WithLabelValues(reason))
	}
	return total
}

func (s *ControllerSuite) TestNew() {
	valid := proctor.Deps{
		Subject:   subject,
		Questions: exam.DefaultBank(),
		Duration:  time.Minute,
		Client:    s.client,
		Frames:    s.source,
	}

	tests := []struct {
		name   string
		mutate func(*proctor.Deps)
	}{
		{"subject", func(d *proctor.Deps) { d.Subject = "" }},
		{"questions", func(d *proctor.Deps) { d.Questions = nil }},
		{"duration", func(d *proctor.Deps) { d.Duration = 0 }},
		{"client", func(d *proctor.Deps) { d.Client = nil }},
		{"frames", func(d *proctor.Deps) { d.Frames = nil }},
	}
	for _, tt := range tests {
		s.Run("requires "+tt.name, func() {
			deps := valid
			tt.mutate(&deps)
			_, err := proctor.New(deps)
			s.Error(err)
		})
	}

	s.Run("defaults", func() {
		c, err := proctor.New(valid)
		s.Require().NoError(err)
		s.Equal(domain.PhaseSetup, c.Phase())
		_, ok := c.Snapshot()
		s.False(ok)
	})
}

func (s *ControllerSuite) TestRegister() {
	s.Run("registered starts the exam", func() {
		s.SetupTest()
		c := s.started(time.Minute)

		snap, ok := c.Snapshot()
		s.Require().True(ok)
		s.Equal(subject, snap.SubjectID)
		s.Equal(60, snap.Remaining)
		s.Len(s.events(audit.ActionSessionStarted), 1)
	})

	s.Run("no face is retryable", func() {
		s.SetupTest()
		c := s.newController(time.Minute)
		gomock.InOrder(
			s.client.EXPECT().Send(gomock.Any(), verification.CapabilityRegister, frame, subject).
				Return(verification.RegisterOutcome{Status: verification.RegisterNoFace}, nil),
			s.client.EXPECT().Send(gomock.Any(), verification.CapabilityRegister, frame, subject).
				Return(verification.RegisterOutcome{Status: verification.RegisterRegistered}, nil),
		)

		err := c.Register(context.Background())
		re, ok := proctor.IsRegistrationError(err)
		s.Require().True(ok)
		s.Equal(proctor.RegistrationNoFace, re.Status)
		s.Equal(domain.PhaseSetup, c.Phase())
		s.Len(s.events(audit.ActionRegistrationFailed), 1)

		s.shell.EXPECT().EnterFullscreen(gomock.Any()).Return(nil)
		s.presenter.EXPECT().Started(gomock.Any())
		s.Require().NoError(c.Register(context.Background()))
		s.Equal(domain.PhaseActive, c.Phase())
	})

	s.Run("register twice", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.ErrorIs(c.Register(context.Background()), sentinel.ErrInvalidState)
	})
}

func (s *ControllerSuite) TestRegisterFailures() {
	boom := errors.New("boom")
	tests := []struct {
		name       string
		setup      func(source *capturemocks.MockSource, client *verificationmocks.MockClient)
		wantStatus string
		wantMsg    string
		wantErr    error
	}{
		{
			name: "capture fails",
			setup: func(source *capturemocks.MockSource, _ *verificationmocks.MockClient) {
				source.EXPECT().Capture(gomock.Any()).Return(capture.Frame{}, capture.ErrNoFrame)
			},
			wantStatus: proctor.RegistrationCaptureFailed,
			wantErr:    capture.ErrNoFrame,
		},
		{
			name: "service unavailable",
			setup: func(source *capturemocks.MockSource, client *verificationmocks.MockClient) {
				source.EXPECT().Capture(gomock.Any()).Return(frame, nil)
				client.EXPECT().Send(gomock.Any(), verification.CapabilityRegister, frame, subject).Return(nil, boom)
			},
			wantStatus: proctor.RegistrationUnavailable,
			wantErr:    boom,
		},
		{
			name: "multiple faces",
			setup: func(source *capturemocks.MockSource, client *verificationmocks.MockClient) {
				source.EXPECT().Capture(gomock.Any()).Return(frame, nil)
				client.EXPECT().Send(gomock.Any(), verification.CapabilityRegister, frame, subject).
					Return(verification.RegisterOutcome{Status: verification.RegisterMultipleFaces}, nil)
			},
			wantStatus: proctor.RegistrationMultipleFaces,
		},
		{
			name: "poor quality keeps service message",
			setup: func(source *capturemocks.MockSource, client *verificationmocks.MockClient) {
				source.EXPECT().Capture(gomock.Any()).Return(frame, nil)
				client.EXPECT().Send(gomock.Any(), verification.CapabilityRegister, frame, subject).
					Return(verification.RegisterOutcome{Status: verification.RegisterPoorQuality, Message: "Too dark"}, nil)
			},
			wantStatus: proctor.RegistrationPoorQuality,
			wantMsg:    "Too dark",
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			ctrl := gomock.NewController(s.T())
			source := capturemocks.NewMockSource(ctrl)
			client := verificationmocks.NewMockClient(ctrl)
			tt.setup(source, client)

			c, err := proctor.New(proctor.Deps{
				Subject:   subject,
				Questions: exam.DefaultBank(),
				Duration:  time.Minute,
				Client:    client,
				Frames:    source,
			})
			s.Require().NoError(err)

			err = c.Register(context.Background())
			re, ok := proctor.IsRegistrationError(err)
			s.Require().True(ok, "got %v", err)
			s.Equal(tt.wantStatus, re.Status)
			s.NotEmpty(re.Message)
			if tt.wantMsg != "" {
				s.Equal(tt.wantMsg, re.Message)
			}
			if tt.wantErr != nil {
				s.ErrorIs(err, tt.wantErr)
			}
			s.Equal(domain.PhaseSetup, c.Phase())
		})
	}
}

func (s *ControllerSuite) TestRegisterFullscreen() {
	s.Run("failure aborts start", func() {
		s.SetupTest()
		c := s.newController(time.Minute)
		s.client.EXPECT().Send(gomock.Any(), verification.CapabilityRegister, frame, subject).
			Return(verification.RegisterOutcome{Status: verification.RegisterRegistered}, nil)
		s.shell.EXPECT().EnterFullscreen(gomock.Any()).Return(errors.New("denied"))

		err := c.Register(context.Background())
		re, ok := proctor.IsRegistrationError(err)
		s.Require().True(ok)
		s.Equal(proctor.RegistrationFullscreenFailed, re.Status)
		s.Equal(domain.PhaseSetup, c.Phase())
	})

	s.Run("unsupported starts without it", func() {
		s.SetupTest()
		c := s.newController(time.Minute)
		s.client.EXPECT().Send(gomock.Any(), verification.CapabilityRegister, frame, subject).
			Return(verification.RegisterOutcome{Status: verification.RegisterRegistered}, nil)
		s.shell.EXPECT().EnterFullscreen(gomock.Any()).Return(sentinel.ErrUnsupported)
		s.presenter.EXPECT().Started(gomock.Any())

		s.Require().NoError(c.Register(context.Background()))
		s.Equal(domain.PhaseActive, c.Phase())
	})
}

func (s *ControllerSuite) TestBeforeStart() {
	c := s.newController(time.Minute)
	ctx := context.Background()

	d := c.HandleEnvironment(ctx, integrity.EnvironmentEvent{Kind: integrity.EventFullscreenExited})
	s.Equal(integrity.ActionIgnore, d.Action)
	s.Equal(domain.PhaseSetup, c.Phase())

	_, err := c.ManualSubmit(ctx)
	s.ErrorIs(err, sentinel.ErrInvalidState)
	s.ErrorIs(c.Answer(0, 0), sentinel.ErrInvalidState)
	_, err = c.Run(ctx)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *ControllerSuite) TestForbiddenObjectSubmitsAndStopsCalls() {
	c := s.started(time.Minute, proctor.WithIntervals(proctor.Intervals{Object: 5 * time.Millisecond}))

	s.client.EXPECT().Send(gomock.Any(), verification.CapabilityObject, frame, domain.SubjectID("")).
		Return(verification.ObjectOutcome{Status: verification.ObjectForbidden, Objects: []string{"phone"}}, nil).
		Times(1)
	s.presenter.EXPECT().Submitted(gomock.Any(), gomock.Any()).
		Do(func(result exam.Result, message string) {
			s.Equal(integrity.ReasonForbiddenObject, result.Reason)
			s.Contains(message, "phone")
		})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := c.Run(ctx)
	s.Require().NoError(err)
	s.Equal(integrity.ReasonForbiddenObject, result.Reason)
	s.Equal(domain.PhaseSubmitted, c.Phase())

	// Times(1) above fails the test on any further call.
	time.Sleep(30 * time.Millisecond)

	submitted := s.events(audit.ActionSessionSubmitted)
	s.Require().Len(submitted, 1)
	s.Equal([]string{"phone"}, submitted[0].Objects)
	s.Require().NotNil(submitted[0].Result)
}

func (s *ControllerSuite) TestCountdownExpirySubmitsOnce() {
	c := s.started(2*time.Second, proctor.WithCountdownTick(5*time.Millisecond))
	s.presenter.EXPECT().Submitted(gomock.Any(), gomock.Any()).Times(1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := c.Run(ctx)
	s.Require().NoError(err)
	s.Equal(integrity.ReasonCountdownExpired, result.Reason)
	s.Equal(0, result.Score)
	s.Equal(10, result.Total)

	snap, _ := c.Snapshot()
	s.Equal(0, snap.Remaining)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues(integrity.ReasonCountdownExpired)))
}

func (s *ControllerSuite) TestConcurrentForceSubmitOnce() {
	c := s.started(time.Minute)
	s.presenter.EXPECT().Submitted(gomock.Any(), gomock.Any()).Times(1)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan exam.Result, 20)
	for i := range 60 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch i % 3 {
			case 0:
				c.HandleSignal(ctx, integrity.Signal{
					Source:  integrity.SourceObject,
					Kind:    integrity.KindForbidden,
					Objects: []string{"phone"},
				})
			case 1:
				c.HandleEnvironment(ctx, integrity.EnvironmentEvent{Kind: integrity.EventFullscreenExited})
			default:
				result, err := c.ManualSubmit(ctx)
				if assert.NoError(s.T(), err) {
					results <- result
				}
			}
		}()
	}
	wg.Wait()
	close(results)

	s.Equal(domain.PhaseSubmitted, c.Phase())
	s.Equal(1.0, s.submissions())
	s.Len(s.events(audit.ActionSessionSubmitted), 1)

	// every caller sees the same stored result
	stored, _ := c.Snapshot()
	for r := range results {
		s.Equal(*stored.Result, r)
	}
}

func (s *ControllerSuite) TestMismatchConfirmation() {
	mismatch := integrity.Signal{Source: integrity.SourceIdentity, Kind: integrity.KindMismatch}
	ctx := context.Background()

	s.Run("decline keeps the exam running", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.presenter.EXPECT().Confirm(gomock.Any()).Times(1)

		c.HandleSignal(ctx, mismatch)
		c.HandleSignal(ctx, mismatch) // at most one open prompt
		s.True(c.PendingConfirmation())

		s.Require().NoError(c.ResolveConfirmation(ctx, false))
		s.False(c.PendingConfirmation())
		s.Equal(domain.PhaseActive, c.Phase())
		s.Len(s.events(audit.ActionMismatchPrompted), 1)
		s.Len(s.events(audit.ActionMismatchDeclined), 1)
	})

	s.Run("accept submits", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.presenter.EXPECT().Confirm(gomock.Any())
		s.presenter.EXPECT().Submitted(gomock.Any(), gomock.Any())

		c.HandleSignal(ctx, mismatch)
		s.Require().NoError(c.ResolveConfirmation(ctx, true))

		snap, _ := c.Snapshot()
		s.Require().NotNil(snap.Result)
		s.Equal(integrity.ReasonMismatchConfirmed, snap.Result.Reason)
	})

	s.Run("nothing pending", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.ErrorIs(c.ResolveConfirmation(ctx, true), sentinel.ErrNotFound)
		s.Equal(domain.PhaseActive, c.Phase())
	})

	s.Run("submission clears the prompt", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.presenter.EXPECT().Confirm(gomock.Any())
		s.presenter.EXPECT().Submitted(gomock.Any(), gomock.Any())

		c.HandleSignal(ctx, mismatch)
		_, err := c.ManualSubmit(ctx)
		s.Require().NoError(err)
		s.False(c.PendingConfirmation())
	})
}

func (s *ControllerSuite) TestWarnings() {
	ctx := context.Background()

	s.Run("head movement is audited with pose", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.presenter.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
			s.Contains(msg, "looking left")
		})

		c.HandleSignal(ctx, integrity.Signal{
			Source: integrity.SourceHeadPose,
			Kind:   integrity.KindAlert,
			Detail: "looking left",
			Pose:   &integrity.Pose{Yaw: -32},
			At:     time.Unix(1700000000, 0),
		})

		events := s.events(audit.ActionHeadMovement)
		s.Require().Len(events, 1)
		s.Equal("looking left", events[0].Detail)
		s.Require().NotNil(events[0].Pose)
		s.Equal(-32.0, events[0].Pose.Yaw)
		s.Equal(domain.PhaseActive, c.Phase())
	})

	s.Run("multiple faces warns only", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.presenter.EXPECT().Warn(gomock.Any())

		c.HandleSignal(ctx, integrity.Signal{Source: integrity.SourceIdentity, Kind: integrity.KindMultipleFaces})
		s.Empty(s.events(audit.ActionHeadMovement))
		s.Equal(domain.PhaseActive, c.Phase())
	})

	s.Run("tab hidden restores focus", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.presenter.EXPECT().Warn(gomock.Any())
		s.shell.EXPECT().RestoreFocus(gomock.Any())

		d := c.HandleEnvironment(ctx, integrity.EnvironmentEvent{Kind: integrity.EventTabHidden})
		s.Equal(integrity.ActionWarn, d.Action)
		s.Equal(domain.PhaseActive, c.Phase())
	})

	s.Run("unload is vetoed", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.presenter.EXPECT().Warn("You cannot leave the exam page!")

		d := c.HandleEnvironment(ctx, integrity.EnvironmentEvent{Kind: integrity.EventUnloadAttempt})
		s.True(d.Veto)
		s.Equal(domain.PhaseActive, c.Phase())
	})
}

func (s *ControllerSuite) TestTransportFailuresNeverChangePhase() {
	fast := proctor.Intervals{Identity: 5 * time.Millisecond, Object: 5 * time.Millisecond, HeadPose: 5 * time.Millisecond}
	c := s.started(time.Minute, proctor.WithIntervals(fast))
	s.client.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused")).
		MinTimes(3)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_, err := c.Run(ctx)
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Equal(domain.PhaseActive, c.Phase())
}

func (s *ControllerSuite) TestScoring() {
	ctx := context.Background()

	s.Run("all correct", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.presenter.EXPECT().Submitted(gomock.Any(), gomock.Any())
		for q, opt := range correct {
			s.Require().NoError(c.Answer(q, opt))
		}

		result, err := c.ManualSubmit(ctx)
		s.Require().NoError(err)
		s.Equal(10, result.Score)
		s.Equal(10, result.Total)
		s.Equal(100.0, result.Percentage)
		s.Equal(integrity.ReasonManualSubmit, result.Reason)
	})

	s.Run("none answered", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.presenter.EXPECT().Submitted(gomock.Any(), gomock.Any())
		s.Require().NoError(c.Answer(0, 1))
		s.Require().NoError(c.ClearAnswer(0))

		result, err := c.ManualSubmit(ctx)
		s.Require().NoError(err)
		s.Equal(0, result.Score)
		s.Equal(0.0, result.Percentage)
	})

	s.Run("answers are frozen after submit", func() {
		s.SetupTest()
		c := s.started(time.Minute)
		s.presenter.EXPECT().Submitted(gomock.Any(), gomock.Any())
		_, err := c.ManualSubmit(ctx)
		s.Require().NoError(err)
		s.ErrorIs(c.Answer(0, 2), sentinel.ErrAlreadySubmitted)
	})
}

func TestRegistrationError(t *testing.T) {
	cause := errors.New("camera busy")
	err := error(&proctor.RegistrationError{Status: proctor.RegistrationCaptureFailed, Message: "try again", Err: cause})

	require.ErrorIs(t, err, cause)
	re, ok := proctor.IsRegistrationError(err)
	require.True(t, ok)
	assert.Equal(t, proctor.RegistrationCaptureFailed, re.Status)
	assert.Contains(t, err.Error(), "camera busy")

	_, ok = proctor.IsRegistrationError(cause)
	assert.False(t, ok)
}
