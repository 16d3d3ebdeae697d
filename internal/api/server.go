// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the ticket exchange over HTTP.
package api

import (
	"net/http"

	"github.com/ManuGH/tixsim/internal/api/middleware"
	"github.com/ManuGH/tixsim/internal/exchange"
	"github.com/ManuGH/tixsim/internal/health"
	"github.com/ManuGH/tixsim/internal/log"
	"github.com/ManuGH/tixsim/internal/preset"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	RateLimitRPS   int // zero disables rate limiting
	RateLimitBurst int
	TracingService string // empty disables tracing
	EnableMetrics  bool
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Controller *exchange.Controller
	Presets    *preset.Store
	Health     *health.Manager
}

// Server routes control and status requests to the exchange.
type Server struct {
	ctl      *exchange.Controller
	reporter *exchange.Reporter
	presets  *preset.Store
	health   *health.Manager
	opts     Options
	logger   zerolog.Logger
	router   chi.Router
}

// New builds a Server. Presets and Health may be nil.
func New(deps Deps, opts Options) *Server {
	s := &Server{
		ctl:      deps.Controller,
		reporter: exchange.NewReporter(deps.Controller.Store()),
		presets:  deps.Presets,
		health:   deps.Health,
		opts:     opts,
		logger:   log.WithComponent("api"),
	}
	if s.presets == nil {
		s.presets = preset.NewStore("")
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            true,
		AllowedOrigins:        s.opts.AllowedOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         s.opts.EnableMetrics,
		TracingService:        s.opts.TracingService,
		EnableLogging:         true,
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ControlRateLimit(s.opts.RateLimitRPS, s.opts.RateLimitBurst))
		r.Post("/start", s.handleStart)
		r.Post("/stop", s.handleStop)
		r.Post("/reset", s.handleReset)
	})

	r.Get("/status", s.handleStatus)
	r.Get("/preset", s.handlePreset)
	r.Get("/openapi.yaml", handleOpenAPI)

	if s.health != nil {
		r.Get("/healthz", s.health.ServeHealth)
		r.Get("/readyz", s.health.ServeReady)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})
	return r
}
