// Package ops serves the read-only operator endpoints: Prometheus metrics,
// health of the audit backends and the current session snapshot. Nothing
// here can change exam state.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"proctor/internal/session"
)

const defaultCheckTimeout = 2 * time.Second

// StatusSource exposes the session snapshot. *proctor.Controller
// satisfies it.
type StatusSource interface {
	Snapshot() (session.Snapshot, bool)
}

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

type Handler struct {
	status       StatusSource
	gatherer     prometheus.Gatherer
	checks       map[string]Check
	checkTimeout time.Duration
	logger       *slog.Logger
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithGatherer sets the registry served on /metrics. Defaults to the
// global Prometheus registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) {
		if g != nil {
			h.gatherer = g
		}
	}
}

// WithCheck adds a named dependency to /healthz.
func WithCheck(name string, check Check) Option {
	return func(h *Handler) {
		if check != nil {
			h.checks[name] = check
		}
	}
}

func WithCheckTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.checkTimeout = d
		}
	}
}

func New(status StatusSource, opts ...Option) (*Handler, error) {
	if status == nil {
		return nil, fmt.Errorf("status source is required")
	}
	h := &Handler{
		status:       status,
		gatherer:     prometheus.DefaultGatherer,
		checks:       map[string]Check{},
		checkTimeout: defaultCheckTimeout,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register mounts the ops routes on r.
func (h *Handler) Register(r chi.Router) {
	opsRouter := chi.NewRouter()
	opsRouter.Use(middleware.RequestID)
	opsRouter.Use(middleware.Recoverer)
	opsRouter.Get("/healthz", h.handleHealth)
	opsRouter.Get("/status", h.handleStatus)
	opsRouter.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Mount("/", opsRouter)
}

// Router returns a standalone router with the ops routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok"}
	if len(names) > 0 {
		resp.Checks = make(map[string]string, len(names))
	}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed",
				"check", name,
				"request_id", middleware.GetReqID(ctx),
				"error", err,
			)
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, r, code, resp)
}

type notStarted struct {
	Phase string `json:"phase"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.status.Snapshot()
	if !ok {
		h.writeJSON(w, r, http.StatusOK, notStarted{Phase: "setup"})
		return
	}
	h.writeJSON(w, r, http.StatusOK, snap)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WarnContext(r.Context(), "failed to encode response", "path", r.URL.Path, "error", err)
	}
}
