// Package server exposes the playback control API: session lifecycle,
// transport operations, and frame retrieval over HTTP for hosts without
// direct in-process access.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/telecine/playcore/internal/config"
	"github.com/telecine/playcore/internal/engine"
	"github.com/telecine/playcore/internal/errors"
	"github.com/telecine/playcore/internal/logger"
	"github.com/telecine/playcore/internal/media/probe"
)

// Server is the HTTP control server.
type Server struct {
	config       *config.ServerConfig
	playerConfig *config.PlayerConfig
	router       *mux.Router
	httpServer   *http.Server
	logger       *logrus.Logger
	errorHandler *errors.ErrorHandler

	engine   engine.Engine
	prober   probe.Prober
	sessions *registry
}

// New creates a new server instance.
func New(cfg *config.Config, log *logrus.Logger, eng engine.Engine, prober probe.Prober) *Server {
	s := &Server{
		config:       &cfg.Server,
		playerConfig: &cfg.Player,
		router:       mux.NewRouter(),
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		engine:       eng,
		prober:       prober,
		sessions:     newRegistry(cfg.Server.MaxSessions),
	}

	s.setupRoutes()
	return s
}

// Start runs the server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.ListenAddr, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting control server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("control server failed: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops the server and tears down every live session.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down control server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.sessions.closeAll()
	return err
}

// Router exposes the underlying router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(logger.RequestLoggerMiddleware(s.logger))
	s.router.Use(s.metricsMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/play", s.handlePlay).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/pause", s.handlePause).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/stop", s.handleStop).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/seek", s.handleSeek).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/rate", s.handleRate).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/volume", s.handleVolume).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/repeat", s.handleRepeat).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/frame", s.handleFrame).Methods(http.MethodGet)
}

// writeJSON is a helper to write JSON responses.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError is a helper to write error responses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.errorHandler.HandleError(w, r, err)
}
