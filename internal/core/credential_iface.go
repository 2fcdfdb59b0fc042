package core

import (
	"context"

	"github.com/dkeye/VoiceAgent/internal/domain"
)

type CredentialClient interface {
	// RequestCredential fails with *CredentialError; it never returns a partial credential.
	RequestCredential(ctx context.Context, identity string, room domain.RoomName) (domain.Credential, error)
}
