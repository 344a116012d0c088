package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck は依存先1つの疎通確認
type HealthCheck func(ctx context.Context) error

// HealthHandler provides health check endpoint
type HealthHandler struct {
	logger *slog.Logger
	checks map[string]HealthCheck
}

func NewHealthHandler(logger *slog.Logger, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{logger: logger, checks: checks}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.health)
}

// 1つでも落ちていたら503
func (h *HealthHandler) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	res := HealthResponse{Status: "healthy", Timestamp: time.Now().UTC()}
	status := http.StatusOK

	if len(h.checks) > 0 {
		res.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
			res.Checks[name] = "down"
			res.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[name] = "up"
	}

	return c.JSON(status, res)
}
