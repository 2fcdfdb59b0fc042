// Package credential requests session credentials from the identity-issuing service.
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceAgent/internal/core"
	"github.com/dkeye/VoiceAgent/internal/domain"
	"github.com/dkeye/VoiceAgent/internal/metrics"
)

const maxBodySize = 64 << 10

type Config struct {
	BaseURL        string
	Timeout        time.Duration
	VerifyIdentity bool
}

// Client implements core.CredentialClient over GET /getToken.
type Client struct {
	baseURL        string
	http           *http.Client
	verifyIdentity bool
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		http:           &http.Client{Timeout: timeout},
		verifyIdentity: cfg.VerifyIdentity,
	}
}

type tokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

func (c *Client) RequestCredential(ctx context.Context, identity string, room domain.RoomName) (domain.Credential, error) {
	if err := domain.ValidateIdentity(identity); err != nil {
		return domain.Credential{}, &core.CredentialError{Err: err}
	}
	if room == "" {
		return domain.Credential{}, &core.CredentialError{Err: domain.ErrRoomNameEmpty}
	}

	q := url.Values{}
	q.Set("identity", identity)
	q.Set("room", string(room))
	endpoint := c.baseURL + "/getToken?" + q.Encode()

	logger := log.With().Str("module", "credential").Str("identity", identity).Str("room", string(room)).Logger()
	logger.Debug().Str("url", endpoint).Msg("requesting token")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Credential{}, &core.CredentialError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	metrics.CredentialRequestDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return domain.Credential{}, &core.CredentialError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return domain.Credential{}, &core.CredentialError{Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		logger.Warn().Int("status", resp.StatusCode).Bytes("body", body).Msg("issuer rejected request")
		return domain.Credential{}, &core.CredentialError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return domain.Credential{}, &core.CredentialError{Err: fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)}
	}
	cred := domain.Credential{AccessToken: tr.Token, TransportURL: tr.URL}
	if !cred.Complete() {
		return domain.Credential{}, &core.CredentialError{Err: core.ErrMalformedResponse}
	}

	if c.verifyIdentity {
		if err := checkAssertedIdentity(cred.AccessToken, identity, room); err != nil {
			logger.Warn().Err(err).Msg("issued token rejected")
			return domain.Credential{}, &core.CredentialError{Err: err}
		}
	}

	logger.Info().Str("transport_url", cred.TransportURL).Msg("token received")
	return cred, nil
}

type videoGrant struct {
	Room string `json:"room"`
}

type accessClaims struct {
	jwt.RegisteredClaims
	Video *videoGrant `json:"video,omitempty"`
}

// checkAssertedIdentity compares what the issuer put in the token with what was
// requested. The signature cannot be checked here (the secret stays with the
// issuer), so opaque or unparsable tokens pass through.
func checkAssertedIdentity(token, identity string, room domain.RoomName) error {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		log.Debug().Str("module", "credential").Err(err).Msg("token is not a JWT, skipping identity check")
		return nil
	}
	if claims.Subject != "" && claims.Subject != identity {
		return fmt.Errorf("%w: subject %q", core.ErrIdentityMismatch, claims.Subject)
	}
	if claims.Video != nil && claims.Video.Room != "" && claims.Video.Room != string(room) {
		return fmt.Errorf("%w: room %q", core.ErrIdentityMismatch, claims.Video.Room)
	}
	return nil
}
