package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pstrings "proctor/pkg/platform/strings"
)

// Config is the full process configuration. Values come from, in order of
// precedence: flags (applied by main), PROCTOR_* environment variables, the
// YAML file, then defaults.
type Config struct {
	SubjectID     string        `yaml:"subject_id"`
	QuestionsPath string        `yaml:"questions"`
	ExamDuration  time.Duration `yaml:"exam_duration"`

	Verification VerificationConfig `yaml:"verification"`
	Capture      CaptureConfig      `yaml:"capture"`
	Monitor      MonitorConfig      `yaml:"monitor"`
	Audit        AuditConfig        `yaml:"audit"`
	Ops          OpsConfig          `yaml:"ops"`
	Log          LogConfig          `yaml:"log"`
}

type VerificationConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	SigningKey string        `yaml:"signing_key"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

type CaptureConfig struct {
	// FramesDir is watched for the newest camera frame.
	FramesDir string `yaml:"frames_dir"`
	// RegistrationImage, when set, is used for registration instead of the
	// live directory.
	RegistrationImage string        `yaml:"registration_image"`
	MaxFrameAge       time.Duration `yaml:"max_frame_age"`
}

type MonitorConfig struct {
	IdentityInterval  time.Duration `yaml:"identity_interval"`
	ObjectInterval    time.Duration `yaml:"object_interval"`
	HeadPoseInterval  time.Duration `yaml:"head_pose_interval"`
	DegradedThreshold int           `yaml:"degraded_threshold"`
}

// Audit sink names.
const (
	SinkLog   = "log"
	SinkHTTP  = "http"
	SinkKafka = "kafka"
	SinkRedis = "redis"
)

type AuditConfig struct {
	Sink             string        `yaml:"sink"`
	BufferSize       int           `yaml:"buffer_size"`
	FlushInterval    time.Duration `yaml:"flush_interval"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown"`
	Redis            RedisConfig   `yaml:"redis"`
	Kafka            KafkaConfig   `yaml:"kafka"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	Stream       string        `yaml:"stream"`
	MaxLen       int64         `yaml:"max_len"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	ClientID          string   `yaml:"client_id"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replication_factor"`
}

// OpsConfig enables the read-only ops listener when Addr is set.
type OpsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration that runs a local exam against a
// verification service on localhost.
func Default() Config {
	return Config{
		ExamDuration: 10 * time.Minute,
		Verification: VerificationConfig{
			URL:      "http://127.0.0.1:5000",
			Timeout:  5 * time.Second,
			TokenTTL: time.Minute,
		},
		Capture: CaptureConfig{
			FramesDir:   "frames",
			MaxFrameAge: 10 * time.Second,
		},
		Monitor: MonitorConfig{
			IdentityInterval:  2 * time.Second,
			ObjectInterval:    1500 * time.Millisecond,
			HeadPoseInterval:  5 * time.Second,
			DegradedThreshold: 3,
		},
		Audit: AuditConfig{
			Sink:             SinkLog,
			BufferSize:       1024,
			FlushInterval:    time.Second,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
			Redis: RedisConfig{
				Stream:       "proctor:audit",
				MaxLen:       10000,
				PoolSize:     4,
				MinIdleConns: 1,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
			Kafka: KafkaConfig{
				Topic:             "proctor.audit",
				ClientID:          "proctor",
				Partitions:        1,
				ReplicationFactor: 1,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path (skipped when empty) over the defaults
// and applies environment overrides. It does not validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.FromEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv applies PROCTOR_* overrides. lookup is os.LookupEnv outside tests.
func (c *Config) FromEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("PROCTOR_SUBJECT_ID", &c.SubjectID)
	str("PROCTOR_QUESTIONS", &c.QuestionsPath)
	dur("PROCTOR_EXAM_DURATION", &c.ExamDuration)

	str("PROCTOR_VERIFICATION_URL", &c.Verification.URL)
	dur("PROCTOR_VERIFICATION_TIMEOUT", &c.Verification.Timeout)
	str("PROCTOR_VERIFICATION_SIGNING_KEY", &c.Verification.SigningKey)

	str("PROCTOR_FRAMES_DIR", &c.Capture.FramesDir)
	str("PROCTOR_REGISTRATION_IMAGE", &c.Capture.RegistrationImage)
	dur("PROCTOR_MAX_FRAME_AGE", &c.Capture.MaxFrameAge)

	dur("PROCTOR_IDENTITY_INTERVAL", &c.Monitor.IdentityInterval)
	dur("PROCTOR_OBJECT_INTERVAL", &c.Monitor.ObjectInterval)
	dur("PROCTOR_HEAD_POSE_INTERVAL", &c.Monitor.HeadPoseInterval)

	str("PROCTOR_AUDIT_SINK", &c.Audit.Sink)
	str("PROCTOR_REDIS_URL", &c.Audit.Redis.URL)
	str("PROCTOR_REDIS_STREAM", &c.Audit.Redis.Stream)
	if v, ok := lookup("PROCTOR_KAFKA_BROKERS"); ok {
		c.Audit.Kafka.Brokers = pstrings.SplitList(v)
	}
	str("PROCTOR_KAFKA_TOPIC", &c.Audit.Kafka.Topic)
	if v, ok := lookup("PROCTOR_AUDIT_BUFFER_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PROCTOR_AUDIT_BUFFER_SIZE: %w", err))
		} else {
			c.Audit.BufferSize = n
		}
	}

	str("PROCTOR_OPS_ADDR", &c.Ops.Addr)
	str("PROCTOR_LOG_LEVEL", &c.Log.Level)
	str("PROCTOR_LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

// Validate reports every invalid field at once. Cadence problems that are
// legal but unusual come back from Warnings instead.
func (c Config) Validate() error {
	var errs []error
	if c.SubjectID == "" {
		errs = append(errs, errors.New("subject_id is required"))
	}
	if c.ExamDuration < time.Second {
		errs = append(errs, fmt.Errorf("exam_duration must be at least 1s, got %s", c.ExamDuration))
	}
	if c.Verification.URL == "" {
		errs = append(errs, errors.New("verification.url is required"))
	}
	if c.Verification.Timeout <= 0 {
		errs = append(errs, errors.New("verification.timeout must be positive"))
	}
	if c.Capture.FramesDir == "" {
		errs = append(errs, errors.New("capture.frames_dir is required"))
	}
	for name, d := range map[string]time.Duration{
		"monitor.identity_interval":  c.Monitor.IdentityInterval,
		"monitor.object_interval":    c.Monitor.ObjectInterval,
		"monitor.head_pose_interval": c.Monitor.HeadPoseInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.Audit.BufferSize <= 0 {
		errs = append(errs, errors.New("audit.buffer_size must be positive"))
	}

	switch c.Audit.Sink {
	case SinkLog, SinkHTTP:
	case SinkRedis:
		if c.Audit.Redis.URL == "" {
			errs = append(errs, errors.New("audit.redis.url is required for the redis sink"))
		}
		if c.Audit.Redis.Stream == "" {
			errs = append(errs, errors.New("audit.redis.stream is required for the redis sink"))
		}
	case SinkKafka:
		if len(c.Audit.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("audit.kafka.brokers is required for the kafka sink"))
		}
		if c.Audit.Kafka.Topic == "" {
			errs = append(errs, errors.New("audit.kafka.topic is required for the kafka sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("audit.sink %q is not one of log, http, kafka, redis", c.Audit.Sink))
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or text", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Warnings lists legal settings that weaken monitoring. Identity and object
// checks are meant to run more often than head-pose estimation.
func (c Config) Warnings() []string {
	var warnings []string
	head := c.Monitor.HeadPoseInterval
	if c.Monitor.IdentityInterval >= head {
		warnings = append(warnings, fmt.Sprintf("identity interval %s is not shorter than head-pose interval %s", c.Monitor.IdentityInterval, head))
	}
	if c.Monitor.ObjectInterval >= head {
		warnings = append(warnings, fmt.Sprintf("object interval %s is not shorter than head-pose interval %s", c.Monitor.ObjectInterval, head))
	}
	if c.Verification.SigningKey == "" {
		warnings = append(warnings, "verification.signing_key is empty; requests are sent without a bearer token")
	}
	return warnings
}
