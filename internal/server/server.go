package server

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hostelnotify/internal/auth"
	"hostelnotify/internal/config"
	"hostelnotify/internal/handlers"
	"hostelnotify/internal/routes"
)

type Server struct {
	config *config.Config
	echo   *echo.Echo
}

func NewServer(cfg *config.Config, h *handlers.Handler, gatherer prometheus.Gatherer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	limiter := auth.NewRateLimiter(int64(cfg.RateLimitPerMinute))
	routes.SetupRoutes(e.Group("/api/v1"), h, cfg.JWTSecret, limiter)

	return &Server{config: cfg, echo: e}
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start blocks until the server stops. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	slog.Info("Starting notification API", "addr", s.config.ServerAddr)
	return s.echo.Start(s.config.ServerAddr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
