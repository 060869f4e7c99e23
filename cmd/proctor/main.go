// proctor runs one remote exam in the terminal. It registers the
// examinee's face with the verification service, then monitors identity,
// forbidden objects and head pose from camera frames written to a
// directory while the examinee answers on stdin.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"proctor/internal/audit"
	"proctor/internal/capture"
	"proctor/internal/console"
	"proctor/internal/exam"
	"proctor/internal/guard"
	"proctor/internal/ops"
	"proctor/internal/platform/config"
	"proctor/internal/platform/httpserver"
	"proctor/internal/platform/kafka"
	"proctor/internal/platform/logger"
	"proctor/internal/platform/metrics"
	redisclient "proctor/internal/platform/redis"
	"proctor/internal/proctor"
	"proctor/internal/verification"
	"proctor/pkg/domain"
	"proctor/pkg/platform/circuit"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("proctor", pflag.ContinueOnError)
	flagSet.String("config", "", "path to a YAML config file")
	flagSet.String("subject", "", "examinee id (roll number)")
	flagSet.String("frames", "", "directory the camera writes frames to")
	flagSet.String("registration-image", "", "image used for face registration instead of the live frames")
	flagSet.String("verification-url", "", "base URL of the verification service")
	flagSet.String("questions", "", "YAML question bank (default: built-in bank)")
	flagSet.Duration("duration", 0, "exam duration")
	flagSet.String("ops-addr", "", "listen address for /metrics, /healthz and /status (disabled when empty)")
	flagSet.String("log-level", "", "debug, info, warn or error")
	flagSet.String("log-format", "", "text or json")
	flagSet.Bool("alt-screen", false, "run the exam on the terminal's alternate screen")
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

// applyFlags copies explicitly set flags over cfg. Flags take precedence
// over the environment and the config file.
func applyFlags(flagSet *pflag.FlagSet, cfg *config.Config) {
	str := func(name string, dst *string) {
		if flagSet.Changed(name) {
			*dst, _ = flagSet.GetString(name)
		}
	}
	str("subject", &cfg.SubjectID)
	str("frames", &cfg.Capture.FramesDir)
	str("registration-image", &cfg.Capture.RegistrationImage)
	str("verification-url", &cfg.Verification.URL)
	str("questions", &cfg.QuestionsPath)
	str("ops-addr", &cfg.Ops.Addr)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	if flagSet.Changed("duration") {
		cfg.ExamDuration, _ = flagSet.GetDuration("duration")
	}
}

func run(args []string) error {
	flagSet := newFlagSet()
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	configPath, _ := flagSet.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(flagSet, &cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	log, err := logger.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	for _, warning := range cfg.Warnings() {
		log.Warn("configuration warning", "warning", warning)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	questions := exam.DefaultBank()
	if cfg.QuestionsPath != "" {
		questions, err = exam.LoadBank(cfg.QuestionsPath)
		if err != nil {
			return err
		}
	}

	m := metrics.New()

	clientOpts := []verification.Option{
		verification.WithTimeout(cfg.Verification.Timeout),
		verification.WithMetrics(m),
		verification.WithLogger(log),
	}
	if cfg.Verification.SigningKey != "" {
		signer, err := verification.NewTokenSigner(cfg.Verification.SigningKey, cfg.Verification.TokenTTL)
		if err != nil {
			return err
		}
		clientOpts = append(clientOpts, verification.WithTokenSigner(signer))
	}
	client, err := verification.NewHTTPClient(cfg.Verification.URL, clientOpts...)
	if err != nil {
		return err
	}

	frames, err := capture.NewDirSource(cfg.Capture.FramesDir,
		capture.WithMaxAge(cfg.Capture.MaxFrameAge),
		capture.WithDirLogger(log),
	)
	if err != nil {
		return err
	}
	defer frames.Close()

	var registration capture.Source
	if cfg.Capture.RegistrationImage != "" {
		registration = capture.FileSource{Path: cfg.Capture.RegistrationImage}
	}

	sink, err := buildSink(ctx, cfg, client, log)
	if err != nil {
		return err
	}
	defer sink.close()

	breaker := circuit.New("audit_"+sink.Name(),
		circuit.WithFailureThreshold(cfg.Audit.BreakerThreshold),
		circuit.WithCooldown(cfg.Audit.BreakerCooldown),
	)
	publisher, err := audit.NewPublisher(sink.Sink,
		audit.WithLogger(log),
		audit.WithMetrics(m),
		audit.WithBufferSize(cfg.Audit.BufferSize),
		audit.WithFlushInterval(cfg.Audit.FlushInterval),
		audit.WithBreaker(breaker),
	)
	if err != nil {
		return err
	}

	altScreen, _ := flagSet.GetBool("alt-screen")
	con, err := console.New(os.Stdout, console.WithLogger(log), console.WithAltScreen(altScreen))
	if err != nil {
		return err
	}
	defer con.Close()

	controller, err := proctor.New(proctor.Deps{
		Subject:      domain.SubjectID(cfg.SubjectID),
		Questions:    questions,
		Duration:     cfg.ExamDuration,
		Client:       client,
		Frames:       frames,
		Registration: registration,
	},
		proctor.WithLogger(log),
		proctor.WithMetrics(m),
		proctor.WithAuditor(publisher),
		proctor.WithPresenter(con),
		proctor.WithShell(con),
		proctor.WithIntervals(proctor.Intervals{
			Identity: cfg.Monitor.IdentityInterval,
			Object:   cfg.Monitor.ObjectInterval,
			HeadPose: cfg.Monitor.HeadPoseInterval,
		}),
		proctor.WithDegradedThreshold(cfg.Monitor.DegradedThreshold),
	)
	if err != nil {
		return err
	}

	envGuard, err := guard.New(controller, guard.WithLogger(log))
	if err != nil {
		return err
	}
	con.Bind(controller, envGuard)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return publisher.Run(gctx)
	})
	g.Go(func() error {
		sig, err := envGuard.WatchSignals(gctx)
		if err != nil {
			return nil
		}
		log.InfoContext(gctx, "exiting on signal", "signal", sig.String())
		cancel()
		return nil
	})
	if cfg.Ops.Addr != "" {
		opsHandler, err := ops.New(controller, append(sink.checks, ops.WithLogger(log))...)
		if err != nil {
			return err
		}
		srv := httpserver.New(cfg.Ops.Addr, opsHandler.Router())
		g.Go(func() error {
			return httpserver.Serve(gctx, srv, log)
		})
	}

	inputDone := make(chan struct{})
	go func() {
		defer close(inputDone)
		if err := con.Run(gctx, os.Stdin); err != nil {
			log.ErrorContext(gctx, "console input failed", "error", err)
		}
	}()

	select {
	case <-con.Ready():
		runExam(gctx, controller, log)
	case <-inputDone:
		log.InfoContext(ctx, "input closed before the exam started")
	case <-gctx.Done():
	}

	cancel()
	return g.Wait()
}

func runExam(ctx context.Context, controller *proctor.Controller, log *slog.Logger) {
	result, err := controller.Run(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.ErrorContext(ctx, "exam stopped", "error", err)
		}
		return
	}
	log.InfoContext(ctx, "exam finished",
		"reason", result.Reason,
		"score", result.Score,
		"total", result.Total,
	)
}

// auditSink is the configured audit.Sink plus the health checks and
// cleanup of its backing client.
type auditSink struct {
	audit.Sink
	checks []ops.Option
	close  func()
}

func buildSink(ctx context.Context, cfg config.Config, client *verification.HTTPClient, log *slog.Logger) (*auditSink, error) {
	noop := func() {}
	switch cfg.Audit.Sink {
	case config.SinkHTTP:
		return &auditSink{Sink: audit.NewAlertSink(client), close: noop}, nil

	case config.SinkRedis:
		rc, err := redisclient.New(ctx, cfg.Audit.Redis)
		if err != nil {
			return nil, err
		}
		sink, err := audit.NewRedisSink(rc.Client, cfg.Audit.Redis.Stream, cfg.Audit.Redis.MaxLen)
		if err != nil {
			_ = rc.Close()
			return nil, err
		}
		return &auditSink{
			Sink:   sink,
			checks: []ops.Option{ops.WithCheck("redis", rc.Health)},
			close: func() {
				if err := rc.Close(); err != nil {
					log.Warn("failed to close redis client", "error", err)
				}
			},
		}, nil

	case config.SinkKafka:
		kc, err := kafka.New(ctx, cfg.Audit.Kafka)
		if err != nil {
			return nil, err
		}
		if err := kc.EnsureTopic(ctx, cfg.Audit.Kafka.Partitions, cfg.Audit.Kafka.ReplicationFactor); err != nil {
			kc.Close()
			return nil, err
		}
		sink, err := audit.NewKafkaSink(kc)
		if err != nil {
			kc.Close()
			return nil, err
		}
		return &auditSink{
			Sink:   sink,
			checks: []ops.Option{ops.WithCheck("kafka", kc.Health)},
			close:  kc.Close,
		}, nil

	default:
		return &auditSink{Sink: audit.NewLogSink(log), close: noop}, nil
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `proctor - remote exam with live identity, object and head-pose monitoring.

Camera frames are read from the --frames directory; the newest image is
used for every check. Answer on stdin; type help once running.

Configuration precedence: flags, PROCTOR_* environment, --config file,
built-in defaults.

Usage:
  proctor --subject 21CS001 [flags]

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
