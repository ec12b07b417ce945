package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
)

// pingTimeout bounds each backend connectivity check.
const pingTimeout = 2 * time.Second

// HealthHandler serves the health-check endpoint, reporting backend
// connectivity when the deployment has external services.
type HealthHandler struct {
	logger *slog.Logger
	checks map[string]domain.Pinger
}

// NewHealthHandler creates a HealthHandler. checks maps a backend name to its
// connectivity check; nil means there are no backends to report.
func NewHealthHandler(logger *slog.Logger, checks map[string]domain.Pinger) *HealthHandler {
	return &HealthHandler{logger: logger, checks: checks}
}

// HealthCheck responds with the server status and the reachability of each
// backing service. Any unreachable backend degrades the response to a 503.
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			h.logger.WarnContext(r.Context(), "health check failed",
				slog.String("backend", name),
				slog.String("error", err.Error()),
			)
			results[name] = "unreachable"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	body := map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if len(results) > 0 {
		body["checks"] = results
	}
	writeJSON(w, code, body)
}
