package core

import (
	"context"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// RemoteTrack is the subset of *webrtc.TrackRemote the session needs.
type RemoteTrack interface {
	ID() string
	Kind() webrtc.RTPCodecType
	Codec() webrtc.RTPCodecParameters
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
	SetReadDeadline(t time.Time) error
}

// PublicationHandle is a local track attached to the active connection.
type PublicationHandle interface {
	SID() string
	// Unpublish detaches the track; calling it again is a no-op.
	Unpublish() error
}

// TransportSession owns one connection to the real-time media transport.
type TransportSession interface {
	// Connect fails with *TransportError and never leaves a half-open connection.
	Connect(ctx context.Context, url, token string) error
	// Publish fails with *PublicationError unless Connect succeeded.
	Publish(ctx context.Context, track webrtc.TrackLocal) (PublicationHandle, error)
	// Disconnect is idempotent.
	Disconnect(ctx context.Context) error
	// Events is ordered per connection: Connected first, nothing after Disconnected.
	Events() <-chan Event
}

// TransportFactory creates a fresh session for each join attempt.
type TransportFactory interface {
	NewSession() TransportSession
}

type TransportFactoryFunc func() TransportSession

func (f TransportFactoryFunc) NewSession() TransportSession { return f() }
