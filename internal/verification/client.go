package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"proctor/internal/capture"
	"proctor/internal/platform/metrics"
	"proctor/pkg/domain"
)

// Client sends one frame to one capability and returns the typed outcome.
// Every failure after validation is a *TransportError.
type Client interface {
	Send(ctx context.Context, c Capability, frame capture.Frame, subject domain.SubjectID) (Outcome, error)
}

// AlertLogger records head-movement alerts on the verification service.
type AlertLogger interface {
	LogAlert(ctx context.Context, alert Alert) error
}

const (
	defaultTimeout   = 5 * time.Second
	maxResponseBytes = 1 << 20

	imageField   = "image"
	subjectField = "roll_number"
	frameName    = "frame.jpg"
)

// HTTPClient talks to the verification service over multipart HTTP.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	signer  *TokenSigner
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

type Option func(*HTTPClient)

// WithTimeout bounds each call. Defaults to 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenSigner attaches a bearer token to every request.
func WithTokenSigner(s *TokenSigner) Option {
	return func(c *HTTPClient) {
		c.signer = s
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *HTTPClient) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *HTTPClient) {
		if t != nil {
			c.tracer = t
		}
	}
}

func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("verification base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid verification base URL %q", baseURL)
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		http:    &http.Client{},
		logger:  slog.Default(),
		tracer:  otel.Tracer("proctor/verification"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) Send(ctx context.Context, capability Capability, frame capture.Frame, subject domain.SubjectID) (Outcome, error) {
	if !capability.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCapability, capability)
	}
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}
	if capability.RequiresSubject() && subject == "" {
		return nil, fmt.Errorf("%w: %s", ErrSubjectRequired, capability)
	}

	ctx, span := c.tracer.Start(ctx, "verification."+string(capability),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("proctor.capability", string(capability))),
	)
	defer span.End()

	start := time.Now()
	outcome, err := c.send(ctx, capability, frame, subject)
	elapsed := time.Since(start)

	if err != nil {
		category := GetCategory(err)
		c.metrics.ObserveVerification(string(capability), "error_"+string(category), elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(category))
		c.logger.DebugContext(ctx, "verification call failed",
			"capability", capability,
			"category", category,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	c.metrics.ObserveVerification(string(capability), outcome.Label(), elapsed)
	span.SetAttributes(attribute.String("proctor.outcome", outcome.Label()))
	return outcome, nil
}

func (c *HTTPClient) send(ctx context.Context, capability Capability, frame capture.Frame, subject domain.SubjectID) (Outcome, error) {
	body, contentType, err := encodeFrame(capability, frame, subject)
	if err != nil {
		return nil, newTransportError(ErrorBadData, capability, "encode request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+capability.Endpoint(), body)
	if err != nil {
		return nil, newTransportError(ErrorUnavailable, capability, "build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if err := c.authorize(req, capability, subject.String()); err != nil {
		return nil, newTransportError(ErrorUnavailable, capability, "sign request", err)
	}

	var decoded response
	if err := c.do(req, capability, &decoded); err != nil {
		return nil, err
	}

	outcome, err := decoded.toOutcome(capability)
	if err != nil {
		return nil, newTransportError(ErrorBadData, capability, "unexpected response", err)
	}
	return outcome, nil
}

// do executes req and decodes a 2xx JSON body into out.
func (c *HTTPClient) do(req *http.Request, capability Capability, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return newTransportError(classifyDoError(err), capability, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		te := newTransportError(ErrorBadStatus, capability, fmt.Sprintf("status %d", resp.StatusCode), nil)
		te.StatusCode = resp.StatusCode
		return te
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return newTransportError(ErrorTimeout, capability, "read response", err)
		}
		return newTransportError(ErrorBadData, capability, "decode response", err)
	}
	return nil
}

func (c *HTTPClient) authorize(req *http.Request, capability Capability, subject string) error {
	if c.signer == nil {
		return nil
	}
	token, err := c.signer.Sign(capability, subject)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func classifyDoError(err error) ErrorCategory {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}
	return ErrorUnavailable
}

func encodeFrame(capability Capability, frame capture.Frame, subject domain.SubjectID) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	contentType := frame.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, imageField, frameName))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(frame.Data); err != nil {
		return nil, "", err
	}
	if capability.RequiresSubject() {
		if err := w.WriteField(subjectField, subject.String()); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
