package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"restaurant/internal/config"
	"restaurant/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// New は共通ミドルウェアとルートを載せたサーバーを作る
func New(cfg config.Config, logger *slog.Logger, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 15 * time.Second

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Idempotency-Key"},
		AllowCredentials: true,
	}))

	RegisterRoutes(e, h)

	return &Server{echo: e, addr: cfg.Addr(), logger: logger}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start はShutdownされるまで戻らない
func (s *Server) Start() error {
	s.logger.Info("server listening", "address", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
