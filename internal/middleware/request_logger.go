package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger は1リクエスト1行で記録する
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// ステータスを確定させる
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", c.RealIP(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
			}
			if uid, ok := c.Get(CtxUserIDKey).(int64); ok {
				attrs = append(attrs, "user_id", uid)
			}

			switch {
			case res.Status >= 500:
				logger.ErrorContext(req.Context(), "http request", attrs...)
			case res.Status >= 400:
				logger.WarnContext(req.Context(), "http request", attrs...)
			default:
				logger.InfoContext(req.Context(), "http request", attrs...)
			}
			return nil
		}
	}
}
