// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the report generator over HTTP: a JSON API, an
// embedded web form with live preview over SSE and WebSocket, a PDF
// export endpoint, health and Prometheus metrics.
package server

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nlpodyssey/labscribe/generator"
	"github.com/nlpodyssey/labscribe/render"
	"github.com/nlpodyssey/labscribe/report"
)

//go:embed static
var staticFS embed.FS

// Params configures a Server.
type Params struct {
	// Generator runs the report pipeline. Required.
	Generator *generator.Generator

	// Renderer produces PDF exports. A default A4 renderer is created
	// when nil.
	Renderer *render.Renderer

	// Optional report archive backing /api/reports.
	Store report.Store

	// MaxConcurrentGenerations bounds in-flight generations; excess
	// requests receive 503. Default: 4.
	MaxConcurrentGenerations int

	// HeartbeatInterval paces SSE comments and WebSocket pings.
	// Default: 15s.
	HeartbeatInterval time.Duration

	Logger *slog.Logger
}

// Server is the HTTP facade of the service.
type Server struct {
	echo      *echo.Echo
	generator *generator.Generator
	registry  *report.Registry
	renderer  *render.Renderer
	store     report.Store
	metrics   *Metrics
	genSlots  chan struct{}
	heartbeat time.Duration
	logger    *slog.Logger
}

// New builds the server and mounts all routes.
func New(params Params) *Server {
	renderer := params.Renderer
	if renderer == nil {
		renderer = render.New(render.Params{})
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		generator: params.Generator,
		registry:  params.Generator.Registry(),
		renderer:  renderer,
		store:     params.Store,
		metrics:   NewMetrics(),
		genSlots:  make(chan struct{}, cmpOr(params.MaxConcurrentGenerations, 4)),
		heartbeat: cmpOr(params.HeartbeatInterval, 15*time.Second),
		logger:    logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		s.logger.Error("HTTP error",
			slog.Int("status", code),
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.String("error", err.Error()),
		)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}

	e.GET("/", s.index)
	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	api := e.Group("/api")
	api.POST("/generate", s.generate)
	api.GET("/markdown", s.markdown)
	api.GET("/stream", s.stream)
	api.GET("/ws", s.websocketFeed)
	api.POST("/export-pdf", s.exportPDF)
	api.GET("/reports", s.listReports)
	api.GET("/reports/:id", s.getReport)

	s.echo = e
	return s
}

// Handler returns the HTTP handler, for mounting and tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Metrics returns the server's Prometheus collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start listens on addr and serves until Shutdown or failure.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting HTTP server", slog.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) index(c echo.Context) error {
	data, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, data)
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
