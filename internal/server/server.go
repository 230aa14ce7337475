// Package server exposes the HTTP trigger that starts an agent run.
package server

import (
	"context"
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"

	"github.com/edgard/followbot/internal/agent"
	"github.com/edgard/followbot/internal/logger"
)

// minKeyLength is the shortest trigger key that is ever accepted.
const minKeyLength = 31

// Ack is the body of every trigger response, whatever the outcome.
const Ack = "Done"

// Runner performs one agent invocation.
type Runner interface {
	Run(ctx context.Context) (*agent.Report, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// handler serves /run and /healthz.
type handler struct {
	runner Runner
	pinger Pinger
	key    string
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewHandler creates the trigger handler. Requests are logged through the
// request middleware.
func NewHandler(runner Runner, pinger Pinger, key string, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &handler{
		runner: runner,
		pinger: pinger,
		key:    key,
		logger: log.With("component", "http_trigger"),
		mux:    http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /run", h.handleRun)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	return logger.HTTPMiddleware(h.logger, h.mux)
}

func (h *handler) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.validKey(r.URL.Query().Get("keyId")) {
		h.logger.WarnContext(ctx, "Rejected trigger with invalid key")
		writeAck(w)
		return
	}

	// The run must finish even if the caller hangs up.
	report, err := h.runner.Run(context.WithoutCancel(ctx))
	switch {
	case err != nil:
		h.logger.ErrorContext(ctx, "Triggered run failed", "error", err)
	case report != nil && report.Skipped:
		h.logger.InfoContext(ctx, "Triggered run skipped by gate", "run_id", report.RunID)
	case report != nil:
		h.logger.InfoContext(ctx, "Triggered run finished", "run_id", report.RunID)
	}
	writeAck(w)
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.logger.ErrorContext(r.Context(), "Health check failed", "error", err)
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (h *handler) validKey(candidate string) bool {
	if len(h.key) < minKeyLength || len(candidate) < minKeyLength {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(h.key)) == 1
}

func writeAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, Ack)
}
