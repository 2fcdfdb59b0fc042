package signal

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceAgent/internal/app/orch"
	"github.com/dkeye/VoiceAgent/internal/core"
	"github.com/dkeye/VoiceAgent/internal/domain"
)

type stateMessage struct {
	Type string `json:"type"`
	core.SessionState
}

type errorMessage struct {
	Type  string            `json:"type"`
	Error string            `json:"error"`
	Cause core.FailureCause `json:"cause,omitempty"`
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, msg string, cause core.FailureCause) {
	ctl.sendJSON(c, errorMessage{Type: "error", Error: msg, Cause: cause})
}

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

// handleJoin runs the join off the read loop; progress arrives as state pushes.
func (ctl *SignalWSController) handleJoin(ctx context.Context, conn *WsSignalConn) {
	log.Info().Str("module", "signal").Str("conn", conn.id).Msg("join")
	go func() {
		err := ctl.Session.Join(ctx)
		switch {
		case err == nil:
			snap := ctl.Session.Snapshot()
			ctl.sendJSON(conn, struct {
				Type     string                 `json:"type"`
				Identity domain.SessionIdentity `json:"identity"`
			}{
				Type:     "joined",
				Identity: snap.Identity,
			})
		case errors.Is(err, core.ErrAlreadyActive):
			ctl.sendError(conn, err.Error(), core.CauseNone)
		case orch.IsCanceled(err), errors.Is(err, context.Canceled):
			// the leave reply or the closed connection covers it
		default:
			ctl.sendError(conn, err.Error(), core.CauseOf(err))
		}
	}()
}

func (ctl *SignalWSController) handleLeave(ctx context.Context, conn *WsSignalConn) {
	log.Info().Str("module", "signal").Str("conn", conn.id).Msg("leave")
	go func() {
		if err := ctl.Session.Leave(ctx); err != nil {
			ctl.sendError(conn, err.Error(), core.CauseNone)
			return
		}
		ctl.sendJSON(conn, map[string]any{"type": "left"})
	}()
}

type outputMessage struct {
	Type  string `json:"type"`
	Muted bool   `json:"muted"`
}

// handleMute toggles local output when muted is absent.
func (ctl *SignalWSController) handleMute(conn *WsSignalConn, muted *bool) {
	if ctl.Output == nil {
		ctl.sendError(conn, "output_unavailable", core.CauseNone)
		return
	}
	next := !ctl.Output.Muted()
	if muted != nil {
		next = *muted
	}
	ctl.Output.SetMuted(next)
	log.Info().Str("module", "signal").Str("conn", conn.id).Bool("muted", next).Msg("output mute")
	ctl.sendJSON(conn, outputMessage{Type: "output", Muted: next})
}

func (ctl *SignalWSController) handleState(conn *WsSignalConn) {
	ctl.sendJSON(conn, struct {
		Type    string        `json:"type"`
		Session orch.Snapshot `json:"session"`
	}{
		Type:    "session",
		Session: ctl.Session.Snapshot(),
	})
}
