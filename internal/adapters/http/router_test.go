package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/VoiceAgent/internal/adapters/issuer"
	"github.com/dkeye/VoiceAgent/internal/app"
	"github.com/dkeye/VoiceAgent/internal/app/orch"
	"github.com/dkeye/VoiceAgent/internal/config"
	"github.com/dkeye/VoiceAgent/internal/core"
	"github.com/dkeye/VoiceAgent/internal/domain"
)

type stubSession struct {
	mu       sync.Mutex
	joinErr  error
	leaveErr error
	snap     orch.Snapshot
}

func (s *stubSession) Join(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.joinErr == nil {
		s.snap.State = core.StateOf(core.StateConnected)
	}
	return s.joinErr
}

func (s *stubSession) Leave(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leaveErr == nil {
		s.snap.State = core.StateOf(core.StateDisconnected)
	}
	return s.leaveErr
}

func (s *stubSession) Snapshot() orch.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func testConfig() *config.Config {
	return &config.Config{
		Mode: "test",
		Bridge: config.BridgeConfig{
			PingPeriod: time.Minute,
		},
		Issuer: config.IssuerConfig{
			URL: "ws://localhost:7880",
		},
	}
}

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var body map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func bridge(t *testing.T, sess *stubSession) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRouter(ctx, testConfig(), sess, app.NewRegistry(nil), nil)
}

func TestSessionSnapshot(t *testing.T) {
	sess := &stubSession{snap: orch.Snapshot{
		State:    core.StateOf(core.StateIdle),
		Identity: domain.SessionIdentity{Identity: "frontend-user-1", Room: "room-abcd1234"},
	}}
	w, body := do(t, bridge(t, sess), http.MethodGet, "/api/session")

	require.Equal(t, http.StatusOK, w.Code)
	session := body["session"].(map[string]any)
	assert.Equal(t, "idle", session["session"].(map[string]any)["state"])
	assert.Equal(t, "room-abcd1234", session["identity"].(map[string]any)["room"])
}

func TestJoinResponses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		check  func(t *testing.T, body map[string]any)
	}{
		{
			name:   "connected",
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				state := body["session"].(map[string]any)["session"].(map[string]any)
				assert.Equal(t, "connected", state["state"])
			},
		},
		{
			name:   "already active",
			err:    &core.AlreadyActiveError{State: core.StateConnecting},
			status: http.StatusConflict,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "connecting", body["state"])
			},
		},
		{
			name:   "canceled by leave",
			err:    core.ErrJoinCanceled,
			status: http.StatusConflict,
		},
		{
			name:   "stopped",
			err:    core.ErrStopped,
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "credential failure",
			err:    &core.CredentialError{StatusCode: 500, Status: "500 Internal Server Error", Err: errors.New("boom")},
			status: http.StatusBadGateway,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "credential", body["cause"])
			},
		},
		{
			name:   "capture failure",
			err:    &core.CaptureError{Kind: core.CapturePermissionDenied},
			status: http.StatusBadGateway,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "capture", body["cause"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &stubSession{joinErr: tt.err}
			w, body := do(t, bridge(t, sess), http.MethodPost, "/api/session/join")
			assert.Equal(t, tt.status, w.Code)
			if tt.err != nil {
				assert.NotEmpty(t, body["error"])
			}
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestLeave(t *testing.T) {
	sess := &stubSession{snap: orch.Snapshot{State: core.StateOf(core.StateConnected)}}
	w, body := do(t, bridge(t, sess), http.MethodPost, "/api/session/leave")

	require.Equal(t, http.StatusOK, w.Code)
	state := body["session"].(map[string]any)["session"].(map[string]any)
	assert.Equal(t, "disconnected", state["state"])

	sess.leaveErr = core.ErrStopped
	w, _ = do(t, bridge(t, sess), http.MethodPost, "/api/session/leave")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestID(t *testing.T) {
	h := bridge(t, &stubSession{})

	w, _ := do(t, h, http.MethodGet, "/api/session")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	w, _ := do(t, bridge(t, &stubSession{}), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "voice_join_attempts_total")
}

func issuerRouter(t *testing.T) http.Handler {
	t.Helper()
	tokens, err := issuer.NewTokenGenerator("devkey", "devsecret-change-me-devsecret-change-me")
	require.NoError(t, err)
	cfg := testConfig()
	return SetupIssuerRouter(cfg, issuer.NewHandler(tokens, cfg.Issuer.URL, time.Hour, nil))
}

func TestIssuerRouter(t *testing.T) {
	h := issuerRouter(t)

	w, body := do(t, h, http.MethodGet, "/getToken?identity=frontend-user-1&room=room-abcd1234")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "ws://localhost:7880", body["url"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w, _ = do(t, h, http.MethodOptions, "/getToken")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "GET")

	w, _ = do(t, h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

type stubOutput struct {
	mu    sync.Mutex
	muted bool
}

func (o *stubOutput) SetMuted(muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.muted = muted
}

func (o *stubOutput) Muted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

func TestOutputMute(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	out := &stubOutput{}
	h := SetupRouter(ctx, testConfig(), &stubSession{}, app.NewRegistry(nil), out)

	w, body := do(t, h, http.MethodGet, "/api/output")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["muted"])

	req := httptest.NewRequest(http.MethodPost, "/api/output/mute", strings.NewReader(`{"muted":true}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"muted":true}`, rec.Body.String())
	assert.True(t, out.Muted())

	req = httptest.NewRequest(http.MethodPost, "/api/output/mute", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOutputRoutesNeedOutput(t *testing.T) {
	w, _ := do(t, bridge(t, &stubSession{}), http.MethodGet, "/api/output")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
