package http

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceAgent/internal/adapters/issuer"
	"github.com/dkeye/VoiceAgent/internal/adapters/signal"
	"github.com/dkeye/VoiceAgent/internal/app/orch"
	"github.com/dkeye/VoiceAgent/internal/config"
	"github.com/dkeye/VoiceAgent/internal/core"
)

func newEngine(mode string) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	if mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestID())
	return r
}

// SetupRouter builds the presentation bridge: session REST, the ws control
// channel, metrics and the static UI.
func SetupRouter(ctx context.Context, cfg *config.Config, sess signal.SessionController, states signal.StateSource, output signal.OutputControl) *gin.Engine {
	r := newEngine(cfg.Mode)
	r.Use(RequestLogger("adapters.http"))

	if cfg.Bridge.StaticPath != "" {
		r.Static("/static", cfg.Bridge.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(filepath.Join(cfg.Bridge.StaticPath, "index.html"))
		})
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("module", "adapters.http").Str("static", cfg.Bridge.StaticPath).Msg("router setup")

	api := r.Group("/api")
	h := &sessionHandler{sess: sess}
	api.GET("/session", h.get)
	api.POST("/session/join", h.join)
	api.POST("/session/leave", h.leave)

	if output != nil {
		oh := &outputHandler{output: output}
		api.GET("/output", oh.get)
		api.POST("/output/mute", oh.mute)
	}

	ctrl := signal.NewSignalWSController(sess, states, signal.Options{
		ReadLimit:      cfg.Bridge.ReadLimit,
		PingPeriod:     cfg.Bridge.PingPeriod,
		ObserverBuffer: cfg.Bridge.ObserverBuffer,
	})
	ctrl.Output = output
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("request_id", c.GetString(RequestIDKey)).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}

// SetupIssuerRouter serves the dev credential issuer.
func SetupIssuerRouter(cfg *config.Config, h *issuer.Handler) *gin.Engine {
	r := newEngine(cfg.Mode)
	r.Use(RequestLogger("issuer"))
	r.Use(CORS())
	r.GET("/getToken", h.GetToken)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

type sessionHandler struct {
	sess signal.SessionController
}

func (h *sessionHandler) get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session": h.sess.Snapshot()})
}

func (h *sessionHandler) join(c *gin.Context) {
	err := h.sess.Join(c.Request.Context())
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"session": h.sess.Snapshot()})
		return
	}

	var active *core.AlreadyActiveError
	switch {
	case errors.As(err, &active):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": active.State})
	case orch.IsCanceled(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "cause": core.CauseOf(err)})
	}
}

func (h *sessionHandler) leave(c *gin.Context) {
	if err := h.sess.Leave(c.Request.Context()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrStopped) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": h.sess.Snapshot()})
}

type outputHandler struct {
	output signal.OutputControl
}

func (h *outputHandler) get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"muted": h.output.Muted()})
}

func (h *outputHandler) mute(c *gin.Context) {
	var req struct {
		Muted *bool `json:"muted"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Muted == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "muted is required"})
		return
	}
	h.output.SetMuted(*req.Muted)
	c.JSON(http.StatusOK, gin.H{"muted": h.output.Muted()})
}
