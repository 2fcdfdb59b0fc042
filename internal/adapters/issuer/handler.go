package issuer

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceAgent/internal/domain"
	"github.com/dkeye/VoiceAgent/internal/metrics"
)

type Handler struct {
	tokens  *TokenGenerator
	url     string
	ttl     time.Duration
	limiter *RateLimiter
}

func NewHandler(tokens *TokenGenerator, url string, ttl time.Duration, limiter *RateLimiter) *Handler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Handler{tokens: tokens, url: url, ttl: ttl, limiter: limiter}
}

type tokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// GetToken answers GET /getToken?identity=&room=.
func (h *Handler) GetToken(c *gin.Context) {
	identity := c.Query("identity")
	room := c.Query("room")
	if identity == "" || room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identity and room are required"})
		return
	}
	if err := domain.ValidateIdentity(identity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.limiter != nil && !h.limiter.Allow(c.ClientIP()) {
		log.Warn().Str("module", "issuer").Str("client_ip", c.ClientIP()).Msg("rate limited")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	token, err := h.tokens.Generate(room, identity, h.ttl)
	if err != nil {
		log.Error().Err(err).Str("module", "issuer").Msg("token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	metrics.TokensIssued.Inc()
	log.Info().Str("module", "issuer").Str("identity", identity).Str("room", room).Msg("token issued")
	c.JSON(http.StatusOK, tokenResponse{Token: token, URL: h.url})
}
