// Package issuer is a development credential issuer answering GET /getToken.
package issuer

import (
	"errors"
	"time"

	"github.com/livekit/protocol/auth"
)

var ErrKeysMissing = errors.New("api key and secret are required")

// TokenGenerator signs LiveKit access tokens.
type TokenGenerator struct {
	apiKey    string
	apiSecret string
}

func NewTokenGenerator(apiKey, apiSecret string) (*TokenGenerator, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrKeysMissing
	}
	return &TokenGenerator{apiKey: apiKey, apiSecret: apiSecret}, nil
}

// Generate grants identity join, publish and subscribe rights in room.
func (g *TokenGenerator) Generate(room, identity string, ttl time.Duration) (string, error) {
	at := auth.NewAccessToken(g.apiKey, g.apiSecret)

	canPublish := true
	canSubscribe := true

	grant := &auth.VideoGrant{
		RoomJoin:     true,
		Room:         room,
		CanPublish:   &canPublish,
		CanSubscribe: &canSubscribe,
	}

	at.AddGrant(grant).
		SetIdentity(identity).
		SetValidFor(ttl)

	return at.ToJWT()
}
