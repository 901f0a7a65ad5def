// Package server hosts the HTTP surface: ingestion, query orchestration,
// health and metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/saborlabs/saborai/ai/agents/supervisor"
	"github.com/saborlabs/saborai/ai/metrics"
	"github.com/saborlabs/saborai/ingestion"
	"github.com/saborlabs/saborai/internal/profile"
	apiv1 "github.com/saborlabs/saborai/server/router/api/v1"
	"github.com/saborlabs/saborai/store"
)

// Server wires the echo instance, API services and lifecycle.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
	exporter   *metrics.Exporter
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(ctx context.Context, instanceProfile *profile.Profile, storeInstance *store.Store, sup *supervisor.Supervisor, pipeline *ingestion.Pipeline, exporter *metrics.Exporter) (*Server, error) {
	e := echo.New()
	e.Debug = false
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger())

	s := &Server{
		Profile:    instanceProfile,
		Store:      storeInstance,
		echoServer: e,
		exporter:   exporter,
	}

	e.GET("/healthz", s.healthz)
	if exporter != nil {
		e.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	}

	s.apiService = apiv1.NewAPIV1Service(instanceProfile, storeInstance, sup, pipeline)
	s.apiService.Register(e)

	return s, nil
}

// Start begins serving. It returns once the listener is up; serve errors are
// reported through slog and process shutdown.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("server: listener failed", "error", err)
		}
	}()
	slog.Info("server: listening", "address", address, "mode", s.Profile.Mode)
	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("server: shutdown failed", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("server: failed to close store", "error", err)
	}
	slog.Info("server: stopped")
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http: request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds())
			return nil
		},
	})
}
