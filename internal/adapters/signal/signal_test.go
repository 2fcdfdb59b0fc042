package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/VoiceAgent/internal/app"
	"github.com/dkeye/VoiceAgent/internal/app/orch"
	"github.com/dkeye/VoiceAgent/internal/core"
	"github.com/dkeye/VoiceAgent/internal/domain"
)

type fakeSession struct {
	mu      sync.Mutex
	joinErr error
	joins   int
	leaves  int
	snap    orch.Snapshot
}

func (f *fakeSession) Join(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins++
	return f.joinErr
}

func (f *fakeSession) Leave(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves++
	return nil
}

func (f *fakeSession) Snapshot() orch.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func startServer(t *testing.T, sess SessionController, states StateSource) *websocket.Conn {
	t.Helper()
	return startServerWithOutput(t, sess, states, nil)
}

func startServerWithOutput(t *testing.T, sess SessionController, states StateSource, output OutputControl) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ctl := NewSignalWSController(sess, states, Options{PingPeriod: time.Minute})
	ctl.Output = output
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readMsg(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

// readType skips messages until one of the given type arrives.
func readType(t *testing.T, ws *websocket.Conn, typ string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		m := readMsg(t, ws)
		if m["type"] == typ {
			return m
		}
	}
	t.Fatalf("no %q message", typ)
	return nil
}

func send(t *testing.T, ws *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(v))
}

func TestInitialStateAndPing(t *testing.T) {
	reg := app.NewRegistry(nil)
	ws := startServer(t, &fakeSession{}, reg)

	m := readMsg(t, ws)
	assert.Equal(t, "state", m["type"])
	assert.Equal(t, "idle", m["state"])

	send(t, ws, map[string]string{"type": "ping"})
	assert.Equal(t, "pong", readMsg(t, ws)["type"])
}

func TestStatePush(t *testing.T) {
	reg := app.NewRegistry(nil)
	ws := startServer(t, &fakeSession{}, reg)
	readType(t, ws, "state")

	reg.Publish(core.FailedState(&core.CredentialError{StatusCode: 500, Status: "500 Internal Server Error"}))
	m := readType(t, ws, "state")
	assert.Equal(t, "failed", m["state"])
	assert.Equal(t, "Server error: 500 Internal Server Error", m["reason"])
	assert.Equal(t, "credential", m["cause"])
}

func TestJoinAndLeave(t *testing.T) {
	sess := &fakeSession{snap: orch.Snapshot{
		Identity: domain.SessionIdentity{Identity: "frontend-user-1000", Room: "room-ab12cd34"},
	}}
	ws := startServer(t, sess, app.NewRegistry(nil))
	readType(t, ws, "state")

	send(t, ws, map[string]string{"type": "join"})
	m := readType(t, ws, "joined")
	identity := m["identity"].(map[string]any)
	assert.Equal(t, "frontend-user-1000", identity["identity"])
	assert.Equal(t, "room-ab12cd34", identity["room"])

	send(t, ws, map[string]string{"type": "leave"})
	readType(t, ws, "left")

	sess.mu.Lock()
	defer sess.mu.Unlock()
	assert.Equal(t, 1, sess.joins)
	assert.Equal(t, 1, sess.leaves)
}

func TestJoinErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCause string
	}{
		{"already active", &core.AlreadyActiveError{State: core.StateConnected}, ""},
		{"capture", &core.CaptureError{Kind: core.CapturePermissionDenied}, "capture"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := startServer(t, &fakeSession{joinErr: tt.err}, app.NewRegistry(nil))
			readType(t, ws, "state")

			send(t, ws, map[string]string{"type": "join"})
			m := readType(t, ws, "error")
			assert.Equal(t, tt.err.Error(), m["error"])
			if tt.wantCause == "" {
				assert.NotContains(t, m, "cause")
			} else {
				assert.Equal(t, tt.wantCause, m["cause"])
			}
		})
	}
}

func TestSessionSnapshotAndBadInput(t *testing.T) {
	sess := &fakeSession{snap: orch.Snapshot{
		State:        core.StateOf(core.StateConnected),
		Participants: []string{"agent"},
	}}
	ws := startServer(t, sess, app.NewRegistry(nil))
	readType(t, ws, "state")

	send(t, ws, map[string]string{"type": "state"})
	m := readType(t, ws, "session")
	session := m["session"].(map[string]any)
	assert.Equal(t, []any{"agent"}, session["participants"])
	assert.Equal(t, "connected", session["session"].(map[string]any)["state"])

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("{nope")))
	assert.Equal(t, "bad_payload", readType(t, ws, "error")["error"])

	send(t, ws, map[string]string{"type": "offer"})
	assert.Equal(t, "unknown_type", readType(t, ws, "error")["error"])
}

func TestDisconnectUnsubscribes(t *testing.T) {
	reg := app.NewRegistry(nil)
	ws := startServer(t, &fakeSession{}, reg)
	readType(t, ws, "state")
	assert.Equal(t, 1, reg.Count())

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return reg.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

type fakeOutput struct {
	mu    sync.Mutex
	muted bool
}

func (f *fakeOutput) SetMuted(muted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = muted
}

func (f *fakeOutput) Muted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted
}

func TestMuteOutput(t *testing.T) {
	out := &fakeOutput{}
	ws := startServerWithOutput(t, &fakeSession{}, app.NewRegistry(nil), out)
	readType(t, ws, "state")

	send(t, ws, map[string]any{"type": "mute", "muted": true})
	assert.Equal(t, true, readType(t, ws, "output")["muted"])
	assert.True(t, out.Muted())

	// no explicit value toggles
	send(t, ws, map[string]string{"type": "mute"})
	assert.Equal(t, false, readType(t, ws, "output")["muted"])
	assert.False(t, out.Muted())
}

func TestMuteWithoutOutput(t *testing.T) {
	ws := startServer(t, &fakeSession{}, app.NewRegistry(nil))
	readType(t, ws, "state")

	send(t, ws, map[string]any{"type": "mute", "muted": true})
	assert.Equal(t, "output_unavailable", readType(t, ws, "error")["error"])
}
