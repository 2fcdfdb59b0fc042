package playback

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceAgent/internal/core"
	"github.com/dkeye/VoiceAgent/internal/metrics"
)

var (
	ErrNotAudio         = errors.New("track is not audio")
	ErrUnsupportedCodec = errors.New("unsupported audio codec")
	ErrClosed           = errors.New("renderer closed")
)

type Config struct {
	SampleRate  int
	Channels    int
	ReadTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{SampleRate: 48000, Channels: 2, ReadTimeout: 500 * time.Millisecond}
}

// Renderer turns each subscribed remote audio track into local playback.
type Renderer struct {
	cfg        Config
	sinks      SinkFactory
	newDecoder func(sampleRate, channels int) (decoder, error)

	mu       sync.Mutex
	bindings map[*binding]struct{}
	closed   bool
	muted    bool
}

func NewRenderer(cfg Config, sinks SinkFactory) *Renderer {
	return &Renderer{
		cfg:        cfg,
		sinks:      sinks,
		newDecoder: newOpusDecoder,
		bindings:   make(map[*binding]struct{}),
	}
}

func (r *Renderer) Attach(track core.RemoteTrack, participant string) (core.RenderHandle, error) {
	if track.Kind() != webrtc.RTPCodecTypeAudio {
		return nil, ErrNotAudio
	}
	if mime := track.Codec().MimeType; !strings.EqualFold(mime, webrtc.MimeTypeOpus) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, mime)
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	dec, err := r.newDecoder(r.cfg.SampleRate, r.cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("opus decoder: %w", err)
	}
	sink, err := r.sinks.NewSink(r.cfg.SampleRate, r.cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("audio output: %w", err)
	}

	logger := log.With().
		Str("module", "playback").
		Str("participant", participant).
		Str("track_id", track.ID()).
		Logger()

	b := &binding{
		track:       track,
		participant: participant,
		dec:         dec,
		sink:        sink,
		channels:    r.cfg.Channels,
		readTimeout: r.cfg.ReadTimeout,
		logger:      logger,
		done:        make(chan struct{}),
		onRelease:   r.forget,
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = sink.Close()
		return nil, ErrClosed
	}
	if r.muted {
		b.SetMuted(true)
	}
	r.bindings[b] = struct{}{}
	r.mu.Unlock()

	metrics.ActiveBindings.Inc()
	go b.loop()
	logger.Info().Msg("playback started")
	return b, nil
}

func (r *Renderer) forget(b *binding) {
	r.mu.Lock()
	_, ok := r.bindings[b]
	delete(r.bindings, b)
	r.mu.Unlock()
	if ok {
		metrics.ActiveBindings.Dec()
	}
}

// SetMuted silences or restores local output. Tracks attached later start
// in the same state.
func (r *Renderer) SetMuted(muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted = muted
	for b := range r.bindings {
		b.SetMuted(muted)
	}
}

func (r *Renderer) Muted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.muted
}

func (r *Renderer) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bindings)
}

// Close releases every binding and rejects further attaches.
func (r *Renderer) Close() {
	r.mu.Lock()
	r.closed = true
	all := make([]*binding, 0, len(r.bindings))
	for b := range r.bindings {
		all = append(all, b)
	}
	r.mu.Unlock()

	for _, b := range all {
		b.Release()
	}
}
