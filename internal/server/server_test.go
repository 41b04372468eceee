package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telecine/playcore/internal/config"
	"github.com/telecine/playcore/internal/engine"
	"github.com/telecine/playcore/internal/engine/enginetest"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *enginetest.Engine) {
	t.Helper()

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	eng := enginetest.NewEngine()
	return New(cfg, log, eng, nil), eng
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, s *Server, identifier string) sessionResponse {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions",
		map[string]interface{}{"identifier": identifier})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestVersionEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateSession(t *testing.T) {
	s, _ := newTestServer(t, nil)

	resp := createSession(t, s, "/media/movie.mp4")
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "local_file", resp.Kind)
	assert.Equal(t, 1920, resp.Width)
	assert.Equal(t, 1080, resp.Height)
}

func TestCreateSessionValidation(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader([]byte("not json")))
	rec2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestCreateSessionConstructionFailure(t *testing.T) {
	s, eng := newTestServer(t, nil)
	eng.FailFactories = map[string]bool{"capsfilter": true}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions",
		map[string]interface{}{"identifier": "/media/movie.mp4"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSessionLimit(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.MaxSessions = 1
	})

	createSession(t, s, "/media/one.mp4")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions",
		map[string]interface{}{"identifier": "/media/two.mp4"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestListSessions(t *testing.T) {
	s, _ := newTestServer(t, nil)
	createSession(t, s, "/media/one.mp4")
	createSession(t, s, "/media/two.mp4")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sessions []sessionResponse `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Sessions, 2)
}

func TestGetSessionNotFound(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransportOperations(t *testing.T) {
	s, _ := newTestServer(t, nil)
	sess := createSession(t, s, "/media/movie.mp4")

	base := "/api/v1/sessions/" + sess.ID
	for _, op := range []string{"play", "pause", "stop"} {
		rec := doJSON(t, s, http.MethodPost, base+"/"+op, nil)
		assert.Equal(t, http.StatusOK, rec.Code, op)
	}

	rec := doJSON(t, s, http.MethodPost, base+"/seek",
		map[string]interface{}{"position_ms": 1000})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, base+"/rate",
		map[string]interface{}{"rate": 1.5})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, base+"/volume",
		map[string]interface{}{"volume": 0.5})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, base+"/repeat",
		map[string]interface{}{"auto_repeat": true})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTransportRejectionMapsToConflict(t *testing.T) {
	s, _ := newTestServer(t, nil)
	sess := createSession(t, s, "rtsp://example.com/live")

	// Seek and rate are unavailable for live sources.
	rec := doJSON(t, s, http.MethodPost,
		fmt.Sprintf("/api/v1/sessions/%s/seek", sess.ID),
		map[string]interface{}{"position_ms": 1000})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, s, http.MethodPost,
		fmt.Sprintf("/api/v1/sessions/%s/rate", sess.ID),
		map[string]interface{}{"rate": 2.0})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVolumeValidation(t *testing.T) {
	s, _ := newTestServer(t, nil)
	sess := createSession(t, s, "/media/movie.mp4")

	rec := doJSON(t, s, http.MethodPost,
		fmt.Sprintf("/api/v1/sessions/%s/volume", sess.ID),
		map[string]interface{}{"volume": 1.5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFrameEndpoint(t *testing.T) {
	s, eng := newTestServer(t, nil)
	sess := createSession(t, s, "/media/movie.mp4")
	path := fmt.Sprintf("/api/v1/sessions/%s/frame", sess.ID)

	// No frame delivered yet.
	rec := doJSON(t, s, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	frame := make([]byte, 1920*1080*4)
	eng.LastFrameSink().EmitFrame(engine.Frame{Data: frame, Width: 1920, Height: 1080})

	rec = doJSON(t, s, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1920", rec.Header().Get("X-Frame-Width"))
	assert.Equal(t, "1080", rec.Header().Get("X-Frame-Height"))
	assert.Len(t, rec.Body.Bytes(), len(frame))
}

func TestDeleteSession(t *testing.T) {
	s, eng := newTestServer(t, nil)
	sess := createSession(t, s, "/media/movie.mp4")

	rec := doJSON(t, s, http.MethodDelete, "/api/v1/sessions/"+sess.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, eng.LastPipeline().Released)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/sessions/"+sess.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/version", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
