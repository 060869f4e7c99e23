package console

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"proctor/internal/capture"
	capturemocks "proctor/internal/capture/mocks"
	"proctor/internal/exam"
	"proctor/internal/guard"
	"proctor/internal/integrity"
	"proctor/internal/proctor"
	"proctor/internal/session"
	"proctor/internal/verification"
	verificationmocks "proctor/internal/verification/mocks"
	"proctor/pkg/domain"
	"proctor/pkg/platform/sentinel"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr string
	}{
		{line: "", want: Command{}},
		{line: "   ", want: Command{}},
		{line: "start", want: Command{Name: CmdStart}},
		{line: "  NEXT ", want: Command{Name: CmdNext}},
		{line: "q 3", want: Command{Name: CmdQuestion, Args: []int{3}}},
		{line: "answer 2 4", want: Command{Name: CmdAnswer, Args: []int{2, 4}}},
		{line: "a 1 1", want: Command{Name: CmdAnswer, Args: []int{1, 1}}},
		{line: "y", want: Command{Name: CmdYes}},
		{line: "escape", want: Command{Name: CmdFullscreenExit}},
		{line: "tab-hidden", want: Command{Name: CmdTabHidden}},
		{line: "dance", wantErr: "unknown command"},
		{line: "answer 2", wantErr: "takes 2 argument(s)"},
		{line: "q zero", wantErr: "not a positive number"},
		{line: "clear 0", wantErr: "not a positive number"},
		{line: "submit now", wantErr: "takes 0 argument(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "10:00", FormatRemaining(600))
	assert.Equal(t, "01:05", FormatRemaining(65))
	assert.Equal(t, "00:00", FormatRemaining(-3))
}

func TestRender(t *testing.T) {
	theme := PlainTheme()
	bank := exam.DefaultBank()

	t.Run("question marks the selection", func(t *testing.T) {
		out := RenderQuestion(theme, 0, bank, exam.Answers{0: 2})
		assert.Contains(t, out, "Question 1 of 10")
		assert.Contains(t, out, "What is the capital of France?")
		assert.Contains(t, out, "> 3) Paris")
		assert.Contains(t, out, "  1) New York")
	})

	t.Run("status lists loops in order", func(t *testing.T) {
		out := RenderStatus(theme, session.Snapshot{Remaining: 125, Questions: 10, Answers: exam.Answers{1: 1}},
			map[string]string{"object": "Last check: clear", "identity": "Last check: match"})
		assert.Contains(t, out, "Time left 02:05")
		assert.Contains(t, out, "answered 1/10")
		assert.Less(t, strings.Index(out, "identity"), strings.Index(out, "object"))
	})

	t.Run("result", func(t *testing.T) {
		out := RenderResult(theme, exam.Result{Score: 7, Total: 10, Percentage: 70, Reason: integrity.ReasonCountdownExpired})
		assert.Contains(t, out, "Score: 7/10")
		assert.Contains(t, out, "Percentage: 70.0%")
		assert.Contains(t, out, "time expired")
	})
}

// =============================================================================
// Console Test Suite
// =============================================================================
// Justification for unit tests: the console is the only inbound surface.
// These tests drive a real controller and guard through typed commands to
// pin what the examinee sees for each flow.

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type ConsoleSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	client     *verificationmocks.MockClient
	out        *syncBuffer
	console    *Console
	controller *proctor.Controller
}

func TestConsoleSuite(t *testing.T) {
	suite.Run(t, new(ConsoleSuite))
}

const subject = domain.SubjectID("21CS001")

var frame = capture.Frame{Data: []byte("jpeg"), ContentType: "image/jpeg"}

func (s *ConsoleSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	source := capturemocks.NewMockSource(s.ctrl)
	source.EXPECT().Capture(gomock.Any()).Return(frame, nil).AnyTimes()
	s.client = verificationmocks.NewMockClient(s.ctrl)
	s.out = &syncBuffer{}

	var err error
	s.console, err = New(s.out, WithTheme(PlainTheme()))
	s.Require().NoError(err)

	s.controller, err = proctor.New(proctor.Deps{
		Subject:   subject,
		Questions: exam.DefaultBank(),
		Duration:  time.Minute,
		Client:    s.client,
		Frames:    source,
	},
		proctor.WithPresenter(s.console),
		proctor.WithShell(s.console),
		proctor.WithIntervals(proctor.Intervals{Identity: time.Hour, Object: time.Hour, HeadPose: time.Hour}),
		proctor.WithCountdownTick(time.Hour),
	)
	s.Require().NoError(err)

	g, err := guard.New(s.controller)
	s.Require().NoError(err)
	s.console.Bind(s.controller, g)
}

func (s *ConsoleSuite) register(status verification.RegisterStatus) {
	s.client.EXPECT().Send(gomock.Any(), verification.CapabilityRegister, frame, subject).
		Return(verification.RegisterOutcome{Status: status}, nil)
	s.console.Handle(context.Background(), "start")
}

func (s *ConsoleSuite) ready() bool {
	select {
	case <-s.console.Ready():
		return true
	default:
		return false
	}
}

func (s *ConsoleSuite) TestStart() {
	s.Run("registration failure can be retried", func() {
		s.SetupTest()
		s.register(verification.RegisterNoFace)
		s.Contains(s.out.String(), "No face detected")
		s.Contains(s.out.String(), "Type start to try again.")
		s.False(s.ready())

		s.register(verification.RegisterRegistered)
		s.True(s.ready())
		s.Contains(s.out.String(), "Exam started. Time left 01:00.")
		s.Contains(s.out.String(), "Question 1 of 10")
	})

	s.Run("start twice", func() {
		s.SetupTest()
		s.register(verification.RegisterRegistered)
		s.console.Handle(context.Background(), "start")
		s.Contains(s.out.String(), "already running")
	})
}

func (s *ConsoleSuite) TestCommandsBeforeStart() {
	ctx := context.Background()
	s.console.Handle(ctx, "answer 1 1")
	s.console.Handle(ctx, "status")
	s.console.Handle(ctx, "dance")
	out := s.out.String()
	s.Contains(out, "The exam has not started. Type start.")
	s.Contains(out, `unknown command "dance"`)
}

func (s *ConsoleSuite) TestAnswerAndSubmit() {
	s.register(verification.RegisterRegistered)
	ctx := context.Background()

	for q, opt := range []int{3, 2, 2, 2, 2, 2, 3, 2, 3, 3} {
		s.console.Handle(ctx, "answer "+strconv.Itoa(q+1)+" "+strconv.Itoa(opt))
	}
	s.console.Handle(ctx, "answer 11 1")
	s.console.Handle(ctx, "answer 1 9")
	s.console.Handle(ctx, "q 1")
	s.Contains(s.out.String(), "> 3) Paris")

	s.console.Handle(ctx, "submit")
	out := s.out.String()
	s.Contains(out, "There is no question 11.")
	s.Contains(out, "Question 1 has no option 9.")
	s.Contains(out, "Score: 10/10")
	s.Contains(out, "Percentage: 100.0%")
	s.Contains(out, "submitted by you")

	s.console.Handle(ctx, "answer 1 1")
	s.Contains(s.out.String(), "already been submitted")
}

func (s *ConsoleSuite) TestNavigation() {
	s.register(verification.RegisterRegistered)
	ctx := context.Background()

	s.console.Handle(ctx, "next")
	s.Contains(s.out.String(), "Question 2 of 10")
	s.console.Handle(ctx, "prev")
	s.console.Handle(ctx, "prev")
	s.Contains(s.out.String(), "There is no question 0.")
	s.Equal(0, s.console.position())
}

func (s *ConsoleSuite) TestShellEvents() {
	ctx := context.Background()

	s.Run("copy is blocked", func() {
		s.SetupTest()
		s.register(verification.RegisterRegistered)
		s.console.Handle(ctx, "copy")
		s.Contains(s.out.String(), "Copy/paste is disabled during the exam!")
	})

	s.Run("tab hidden warns and redraws", func() {
		s.SetupTest()
		s.register(verification.RegisterRegistered)
		s.console.Handle(ctx, "next")
		before := strings.Count(s.out.String(), "Question 2 of 10")
		s.console.Handle(ctx, "tab-hidden")
		s.Contains(s.out.String(), "Tab switching is not allowed")
		s.Equal(before+1, strings.Count(s.out.String(), "Question 2 of 10"))
		s.Equal(domain.PhaseActive, s.controller.Phase())
	})

	s.Run("fullscreen exit submits", func() {
		s.SetupTest()
		s.register(verification.RegisterRegistered)
		s.console.Handle(ctx, "fullscreen-exit")
		s.Contains(s.out.String(), "You exited fullscreen. Exam submitted automatically.")
		s.Contains(s.out.String(), "Score: 0/10")
		s.Equal(domain.PhaseSubmitted, s.controller.Phase())
	})

	s.Run("unload is refused", func() {
		s.SetupTest()
		s.register(verification.RegisterRegistered)
		s.console.Handle(ctx, "unload")
		s.Contains(s.out.String(), "You cannot leave the exam page!")
		s.Equal(domain.PhaseActive, s.controller.Phase())
	})
}

func (s *ConsoleSuite) TestMismatchPrompt() {
	s.register(verification.RegisterRegistered)
	ctx := context.Background()

	s.controller.HandleSignal(ctx, integrity.Signal{Source: integrity.SourceIdentity, Kind: integrity.KindMismatch})
	s.Contains(s.out.String(), "Face mismatch detected!")
	s.Contains(s.out.String(), "Type yes to submit the exam or no to continue.")

	s.console.Handle(ctx, "no")
	s.Contains(s.out.String(), "Continuing the exam.")
	s.console.Handle(ctx, "yes")
	s.Contains(s.out.String(), "Nothing to do: no pending confirmation")
	s.Equal(domain.PhaseActive, s.controller.Phase())

	s.controller.HandleSignal(ctx, integrity.Signal{Source: integrity.SourceIdentity, Kind: integrity.KindMismatch})
	s.console.Handle(ctx, "yes")
	s.Contains(s.out.String(), "identity mismatch confirmed")
	s.Equal(domain.PhaseSubmitted, s.controller.Phase())
}

func (s *ConsoleSuite) TestStatusShowsChecks() {
	s.register(verification.RegisterRegistered)
	s.console.Status("object", "Last check: clear")
	s.console.Handle(context.Background(), "status")
	out := s.out.String()
	s.Contains(out, "Time left 01:00")
	s.Contains(out, "answered 0/10")
	s.Contains(out, "Last check: clear")
}

func (s *ConsoleSuite) TestRunReadsUntilEOF() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.console.Run(ctx, strings.NewReader("help\nstatus\n"))
	s.Require().NoError(err)
	s.Contains(s.out.String(), "Commands:")
	s.Contains(s.out.String(), "The exam has not started")
}

func TestRunRequiresBinding(t *testing.T) {
	c, err := New(&bytes.Buffer{})
	require.NoError(t, err)
	assert.Error(t, c.Run(context.Background(), strings.NewReader("")))
}

func TestFullscreen(t *testing.T) {
	t.Run("unsupported by default", func(t *testing.T) {
		c, err := New(&bytes.Buffer{})
		require.NoError(t, err)
		assert.ErrorIs(t, c.EnterFullscreen(context.Background()), sentinel.ErrUnsupported)
	})

	t.Run("alternate screen", func(t *testing.T) {
		out := &bytes.Buffer{}
		c, err := New(out, WithAltScreen(true), WithTheme(PlainTheme()))
		require.NoError(t, err)
		require.NoError(t, c.EnterFullscreen(context.Background()))
		assert.Contains(t, out.String(), enterAltScreen)

		c.Submitted(exam.Result{Total: 10}, "")
		assert.Contains(t, out.String(), leaveAltScreen)
		c.Close()
		assert.Equal(t, 1, strings.Count(out.String(), leaveAltScreen))
	})
}
