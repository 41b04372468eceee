package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/telecine/playcore/internal/errors"
	"github.com/telecine/playcore/internal/logger"
	"github.com/telecine/playcore/internal/player"
	"github.com/telecine/playcore/pkg/version"
)

type createSessionRequest struct {
	Identifier string `json:"identifier"`
	AutoRepeat bool   `json:"auto_repeat"`
}

type sessionResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	DurationMs int64  `json:"duration_ms"`
	PositionMs int64  `json:"position_ms"`
}

func (s *Server) sessionResponse(sess *player.Session) sessionResponse {
	return sessionResponse{
		ID:         sess.ID(),
		Kind:       sess.Kind().String(),
		Width:      sess.Width(),
		Height:     sess.Height(),
		DurationMs: sess.Duration(),
		PositionMs: sess.Position(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": s.sessions.count(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	s.writeJSON(w, http.StatusOK, version.GetInfo())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.NewValidationError("invalid request body"))
		return
	}
	if req.Identifier == "" {
		s.writeError(w, r, errors.NewValidationError("identifier is required"))
		return
	}

	log := logger.FromContext(r.Context())
	sess, err := player.NewSession(s.playerConfig, s.engine, s.prober,
		req.Identifier, player.NopEventSink{}, logger.NewLogrusAdapter(log))
	if err != nil {
		s.writeError(w, r, errors.WrapConstructionError(err))
		return
	}

	if !s.sessions.add(sess) {
		sess.Close()
		s.writeError(w, r, errors.NewSessionLimitError(s.config.MaxSessions))
		return
	}

	if req.AutoRepeat {
		sess.SetAutoRepeat(true)
	}

	s.writeJSON(w, http.StatusCreated, s.sessionResponse(sess))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessions.list()
	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, s.sessionResponse(sess))
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": out})
}

// lookup resolves the session from the route, writing a 404 when absent.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *player.Session {
	id := mux.Vars(r)["id"]
	sess := s.sessions.get(id)
	if sess == nil {
		s.writeError(w, r, errors.NewNotFoundError("session"))
	}
	return sess
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.lookup(w, r)
	if sess == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess := s.sessions.remove(id)
	if sess == nil {
		s.writeError(w, r, errors.NewNotFoundError("session"))
		return
	}
	sess.Close()
	w.WriteHeader(http.StatusNoContent)
}

// transport wraps the boolean transport operations: false maps to 409,
// matching the no-throw failure convention of the playback surface.
func (s *Server) transport(w http.ResponseWriter, r *http.Request, op func(*player.Session) bool) {
	sess := s.lookup(w, r)
	if sess == nil {
		return
	}
	if !op(sess) {
		s.writeJSON(w, http.StatusConflict, map[string]interface{}{"ok": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.transport(w, r, (*player.Session).Play)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.transport(w, r, (*player.Session).Pause)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.transport(w, r, (*player.Session).Stop)
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PositionMs int64 `json:"position_ms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.NewValidationError("invalid request body"))
		return
	}
	s.transport(w, r, func(sess *player.Session) bool {
		return sess.SetSeek(req.PositionMs)
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.NewValidationError("invalid request body"))
		return
	}
	s.transport(w, r, func(sess *player.Session) bool {
		return sess.SetPlaybackRate(req.Rate)
	})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.NewValidationError("invalid request body"))
		return
	}
	if req.Volume < 0 || req.Volume > 1 {
		s.writeError(w, r, errors.NewValidationError("volume must be in [0, 1]"))
		return
	}
	s.transport(w, r, func(sess *player.Session) bool {
		return sess.SetVolume(req.Volume)
	})
}

func (s *Server) handleRepeat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AutoRepeat bool `json:"auto_repeat"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.NewValidationError("invalid request body"))
		return
	}
	sess := s.lookup(w, r)
	if sess == nil {
		return
	}
	sess.SetAutoRepeat(req.AutoRepeat)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// handleFrame returns the latest decoded frame as raw RGBA bytes, or 204
// when no frame has been delivered yet.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sess := s.lookup(w, r)
	if sess == nil {
		return
	}

	frame := sess.ReadFrame()
	if frame == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Frame-Width", strconv.Itoa(sess.Width()))
	w.Header().Set("X-Frame-Height", strconv.Itoa(sess.Height()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(frame); err != nil {
		s.logger.WithError(err).Debug("Failed to write frame response")
	}
}
