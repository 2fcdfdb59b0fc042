package rtc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceAgent/internal/core"
)

type Config struct {
	AutoSubscribe  bool
	ConnectTimeout time.Duration
	TrackName      string
}

func DefaultConfig() Config {
	return Config{
		AutoSubscribe:  true,
		ConnectTimeout: 15 * time.Second,
		TrackName:      "microphone",
	}
}

// room is the part of *lksdk.Room a session drives.
type room interface {
	PublishTrack(track webrtc.TrackLocal, opts *lksdk.TrackPublicationOptions) (string, error)
	UnpublishTrack(sid string) error
	RemoteIdentities() []string
	Disconnect()
}

type dialFunc func(url, token string, cb *lksdk.RoomCallback, opts ...lksdk.ConnectOption) (room, error)

func dialLiveKit(url, token string, cb *lksdk.RoomCallback, opts ...lksdk.ConnectOption) (room, error) {
	r, err := lksdk.ConnectToRoomWithToken(url, token, cb, opts...)
	if err != nil {
		return nil, err
	}
	return lkRoom{r}, nil
}

type lkRoom struct {
	*lksdk.Room
}

func (r lkRoom) PublishTrack(track webrtc.TrackLocal, opts *lksdk.TrackPublicationOptions) (string, error) {
	pub, err := r.LocalParticipant.PublishTrack(track, opts)
	if err != nil {
		return "", err
	}
	return pub.SID(), nil
}

func (r lkRoom) UnpublishTrack(sid string) error {
	return r.LocalParticipant.UnpublishTrack(sid)
}

func (r lkRoom) RemoteIdentities() []string {
	rps := r.GetRemoteParticipants()
	ids := make([]string, 0, len(rps))
	for _, rp := range rps {
		ids = append(ids, rp.Identity())
	}
	return ids
}

type connState int

const (
	stateNew connState = iota
	stateConnecting
	stateConnected
	stateClosed
)

// Session is one LiveKit room connection. It is single use: a new join
// attempt gets a new Session from the factory.
type Session struct {
	cfg  Config
	dial dialFunc

	mu    sync.Mutex
	state connState
	room  room

	queue     *eventQueue
	closeOnce sync.Once
}

func NewSession(cfg Config) *Session {
	return newSession(cfg, dialLiveKit)
}

func newSession(cfg Config, dial dialFunc) *Session {
	if cfg.TrackName == "" {
		cfg.TrackName = "microphone"
	}
	return &Session{cfg: cfg, dial: dial, queue: newEventQueue()}
}

// NewFactory hands the orchestrator a fresh Session per attempt.
func NewFactory(cfg Config) core.TransportFactory {
	return core.TransportFactoryFunc(func() core.TransportSession {
		return NewSession(cfg)
	})
}

func (s *Session) Events() <-chan core.Event { return s.queue.out }

func (s *Session) Connect(ctx context.Context, url, token string) error {
	s.mu.Lock()
	if s.state != stateNew {
		s.mu.Unlock()
		return &core.TransportError{Op: "connect", Err: errors.New("session already used")}
	}
	s.state = stateConnecting
	s.mu.Unlock()

	if url == "" || token == "" {
		s.abort()
		return &core.TransportError{Op: "connect", Err: errors.New("missing url or token")}
	}

	if s.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		defer cancel()
	}

	type result struct {
		room room
		err  error
	}
	done := make(chan result, 1)
	go func() {
		r, err := s.dial(url, token, s.callbacks(), lksdk.WithAutoSubscribe(s.cfg.AutoSubscribe))
		done <- result{r, err}
	}()

	log.Info().Str("module", "rtc").Str("url", url).Msg("connecting to room")

	select {
	case res := <-done:
		if res.err != nil {
			s.abort()
			log.Warn().Err(res.err).Str("module", "rtc").Msg("connect failed")
			return &core.TransportError{Op: "connect", Err: res.err}
		}
		s.mu.Lock()
		if s.state != stateConnecting {
			// Disconnect raced the dial
			s.mu.Unlock()
			res.room.Disconnect()
			return &core.TransportError{Op: "connect", Err: core.ErrNotConnected}
		}
		s.room = res.room
		s.state = stateConnected
		s.mu.Unlock()

		existing := res.room.RemoteIdentities()
		s.queue.markConnected(existing)
		log.Info().Str("module", "rtc").Int("participants", len(existing)).Msg("connected to room")
		return nil

	case <-ctx.Done():
		s.abort()
		go func() {
			if res := <-done; res.err == nil {
				res.room.Disconnect()
			}
		}()
		log.Warn().Err(ctx.Err()).Str("module", "rtc").Msg("connect abandoned")
		return &core.TransportError{Op: "connect", Err: ctx.Err()}
	}
}

// abort ends a session that never connected.
func (s *Session) abort() {
	s.mu.Lock()
	s.state = stateClosed
	s.mu.Unlock()
	s.queue.stop()
}

func (s *Session) Publish(ctx context.Context, track webrtc.TrackLocal) (core.PublicationHandle, error) {
	s.mu.Lock()
	r, state := s.room, s.state
	s.mu.Unlock()

	if state != stateConnected || r == nil {
		return nil, &core.PublicationError{Err: core.ErrNotConnected}
	}
	if err := ctx.Err(); err != nil {
		return nil, &core.PublicationError{Err: err}
	}

	sid, err := r.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   s.cfg.TrackName,
		Source: livekit.TrackSource_MICROPHONE,
	})
	if err != nil {
		return nil, &core.PublicationError{Err: err}
	}
	log.Info().Str("module", "rtc").Str("sid", sid).Msg("microphone published")
	return &publication{sid: sid, room: r}, nil
}

func (s *Session) Disconnect(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		r := s.room
		s.room = nil
		s.state = stateClosed
		s.mu.Unlock()

		if r != nil {
			r.Disconnect()
		}
		s.queue.shutdown("client initiated")
		log.Info().Str("module", "rtc").Msg("disconnected")
	})
	return nil
}

func (s *Session) callbacks() *lksdk.RoomCallback {
	return &lksdk.RoomCallback{
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed: func(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				s.trackSubscribed(track, rp.Identity())
			},
			OnTrackUnsubscribed: func(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				s.trackUnsubscribed(track, rp.Identity())
			},
		},
		OnParticipantConnected: func(rp *lksdk.RemoteParticipant) {
			s.participantJoined(rp.Identity())
		},
		OnParticipantDisconnected: func(rp *lksdk.RemoteParticipant) {
			s.participantLeft(rp.Identity())
		},
		OnDisconnected: func() {
			s.remoteDisconnected("room closed")
		},
	}
}

func (s *Session) participantJoined(identity string) {
	log.Debug().Str("module", "rtc").Str("participant", identity).Msg("participant joined")
	s.queue.push(core.Event{Kind: core.EventParticipantJoined, Participant: identity})
}

func (s *Session) participantLeft(identity string) {
	log.Debug().Str("module", "rtc").Str("participant", identity).Msg("participant left")
	s.queue.push(core.Event{Kind: core.EventParticipantLeft, Participant: identity})
}

func (s *Session) trackSubscribed(track core.RemoteTrack, identity string) {
	log.Info().
		Str("module", "rtc").
		Str("participant", identity).
		Str("kind", track.Kind().String()).
		Str("track_id", track.ID()).
		Msg("track subscribed")
	s.queue.push(core.Event{Kind: core.EventTrackSubscribed, Participant: identity, Track: track})
}

func (s *Session) trackUnsubscribed(track core.RemoteTrack, identity string) {
	s.queue.push(core.Event{Kind: core.EventTrackUnsubscribed, Participant: identity, Track: track})
}

func (s *Session) remoteDisconnected(reason string) {
	s.mu.Lock()
	if s.state == stateConnected {
		s.state = stateClosed
		s.room = nil
	}
	s.mu.Unlock()
	log.Warn().Str("module", "rtc").Str("reason", reason).Msg("room disconnected")
	s.queue.push(core.Event{Kind: core.EventDisconnected, Reason: reason})
}

type publication struct {
	sid  string
	room room
	once sync.Once
	err  error
}

func (p *publication) SID() string { return p.sid }

func (p *publication) Unpublish() error {
	p.once.Do(func() {
		p.err = p.room.UnpublishTrack(p.sid)
	})
	return p.err
}
