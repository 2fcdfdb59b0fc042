package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceAgent/internal/app/orch"
	"github.com/dkeye/VoiceAgent/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// SessionController is the command surface of the session.
type SessionController interface {
	Join(ctx context.Context) error
	Leave(ctx context.Context) error
	Snapshot() orch.Snapshot
}

// StateSource hands out state subscriptions.
type StateSource interface {
	Subscribe(buffer int) (uuid.UUID, <-chan core.SessionState)
	Unsubscribe(id uuid.UUID)
}

// OutputControl mutes local playback of remote audio.
type OutputControl interface {
	SetMuted(muted bool)
	Muted() bool
}

type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	ObserverBuffer int
}

type SignalWSController struct {
	Session SessionController
	States  StateSource
	Opts    Options
	// Output is optional; without it mute requests are refused.
	Output OutputControl
}

func NewSignalWSController(session SessionController, states StateSource, opts Options) *SignalWSController {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 32 * 1024
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.ObserverBuffer <= 0 {
		opts.ObserverBuffer = 16
	}
	return &SignalWSController{Session: session, States: states, Opts: opts}
}

type WsSignalConn struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and serves one presentation client until
// it disconnects or ctx ends.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	id := c.GetString("request_id")
	if id == "" {
		id = uuid.NewString()
	}
	log.Info().Str("module", "signal").Str("conn", id).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Opts.ReadLimit)

	conn := &WsSignalConn{
		id:   id,
		conn: ws,
		send: make(chan []byte, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	observer, states := ctl.States.Subscribe(ctl.Opts.ObserverBuffer)

	go ctl.writePump(ctx, conn)
	go ctl.statePump(ctx, conn, states)
	go func() {
		defer ctl.States.Unsubscribe(observer)
		defer cancel()
		ctl.readPump(ctx, conn)
	}()
}
