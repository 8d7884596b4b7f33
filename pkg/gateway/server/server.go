// Package server wires the coachd HTTP surface: REST session endpoints, the
// live websocket route, health probes, and metrics.
package server

import (
	"log/slog"
	"net/http"

	"github.com/reconnect-ai/coachd/pkg/drafter"
	"github.com/reconnect-ai/coachd/pkg/gateway/config"
	"github.com/reconnect-ai/coachd/pkg/gateway/handlers"
	"github.com/reconnect-ai/coachd/pkg/gateway/mw"
	"github.com/reconnect-ai/coachd/pkg/metrics"
	"github.com/reconnect-ai/coachd/pkg/relay"
	"github.com/reconnect-ai/coachd/pkg/store"
	"github.com/reconnect-ai/coachd/pkg/upstream"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	registry *relay.Registry
}

// Deps carries the wired backends. Connector and Drafter are nil when no API
// key is configured; the affected routes then respond 503.
type Deps struct {
	Connector upstream.LiveConnector
	Drafter   *drafter.Drafter
	Store     store.Store
}

func New(cfg config.Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		registry: relay.NewRegistry(),
	}
	s.routes(deps)
	return s
}

func (s *Server) routes(deps Deps) {
	s.mux.Handle("GET /healthz", handlers.HealthHandler{})
	s.mux.Handle("GET /readyz", handlers.ReadyHandler{
		Config:        s.cfg,
		UpstreamReady: deps.Connector != nil,
	})
	s.mux.Handle("GET /metrics", metrics.Handler(metrics.NewRegistry()))

	s.mux.Handle("POST /session/start", handlers.SessionStartHandler{
		Drafter: deps.Drafter,
		Store:   deps.Store,
		Logger:  s.logger,
	})
	s.mux.Handle("POST /session/chunk", handlers.SessionChunkHandler{
		Drafter: deps.Drafter,
		Logger:  s.logger,
	})
	s.mux.Handle("POST /session/end", handlers.SessionEndHandler{
		Drafter: deps.Drafter,
		Store:   deps.Store,
		Logger:  s.logger,
	})
	s.mux.Handle("GET /session/history", handlers.HistoryHandler{
		Store:  deps.Store,
		Logger: s.logger,
	})

	var notes relay.NoteSink
	if deps.Drafter != nil {
		notes = deps.Drafter
	}
	s.mux.Handle("GET /ws/stream/{domain}", handlers.StreamHandler{
		Config:    s.cfg,
		Connector: deps.Connector,
		Notes:     notes,
		Registry:  s.registry,
		Store:     deps.Store,
		Logger:    s.logger,
	})
}

// Registry exposes the live connection registry for shutdown drain.
func (s *Server) Registry() *relay.Registry {
	return s.registry
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
