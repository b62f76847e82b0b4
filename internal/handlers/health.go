package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/dialogue-engine/internal/services"
)

type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Components map[string]any `json:"components"`
}

// HealthHandler reports the session and, when configured, the Redis fan-out.
type HealthHandler struct {
	session Reader
	redis   services.Pinger
	logger  *slog.Logger
}

// NewHealthHandler accepts a nil redis when broadcasting is disabled.
func NewHealthHandler(session Reader, redis services.Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		session: session,
		redis:   redis,
		logger:  logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]any)
	overallStatus := "healthy"

	view := h.session.View()
	components["session"] = map[string]any{
		"status": "healthy",
		"phase":  view.Phase,
	}

	switch {
	case h.redis == nil:
		components["redis"] = "disabled"
	default:
		if err := h.redis.Ping(ctx); err != nil {
			h.logger.Warn("Redis health check failed", "error", err)
			components["redis"] = "unhealthy"
			overallStatus = "degraded"
		} else {
			components["redis"] = "healthy"
		}
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "dialogue-engine",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, statusCode, response)
}
