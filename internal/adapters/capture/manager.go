package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog/log"
	"gopkg.in/hraban/opus.v2"

	"github.com/dkeye/VoiceAgent/internal/core"
)

const (
	maxOpusPacket         = 4000
	defaultReleaseTimeout = 5 * time.Second
)

var ErrReleaseTimeout = errors.New("capture pump did not stop in time")

// Manager hands out at most one live microphone at a time.
type Manager struct {
	mu     sync.Mutex
	driver Driver
	format Format
	active *handle

	// ReleaseTimeout bounds how long Release waits for the pump to exit.
	ReleaseTimeout time.Duration
}

func NewManager(driver Driver, format Format) *Manager {
	return &Manager{driver: driver, format: format, ReleaseTimeout: defaultReleaseTimeout}
}

func (m *Manager) AcquireAudioCapture(ctx context.Context, opts core.CaptureOptions) (core.CaptureHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, &core.CaptureError{Kind: core.CaptureDeviceUnavailable, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, &core.CaptureError{Kind: core.CaptureAlreadyActive}
	}
	if m.driver == nil {
		return nil, &core.CaptureError{Kind: core.CaptureNoCompatibleDevice, Err: errors.New("no capture driver")}
	}
	if err := m.format.validate(); err != nil {
		return nil, &core.CaptureError{Kind: core.CaptureNoCompatibleDevice, Err: err}
	}

	src, err := m.driver.Open(m.format)
	if err != nil {
		var capErr *core.CaptureError
		if errors.As(err, &capErr) {
			return nil, capErr
		}
		return nil, classifyOpenError(err)
	}

	enc, err := opus.NewEncoder(m.format.SampleRate, m.format.Channels, opus.AppVoIP)
	if err != nil {
		_ = src.Close()
		return nil, &core.CaptureError{Kind: core.CaptureNoCompatibleDevice, Err: fmt.Errorf("opus encoder: %w", err)}
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"microphone", "voice-agent",
	)
	if err != nil {
		_ = src.Close()
		return nil, &core.CaptureError{Kind: core.CaptureDeviceUnavailable, Err: err}
	}

	if opts.EchoCancellation && !m.driver.EchoCancellation() {
		log.Warn().Str("module", "capture").Str("driver", m.driver.Name()).
			Msg("echo cancellation requested but not available for this driver")
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	h := &handle{
		m:       m,
		track:   track,
		src:     src,
		cancel:  cancel,
		done:    make(chan struct{}),
		timeout: m.ReleaseTimeout,
	}
	m.active = h

	p := &pump{
		src:    src,
		enc:    enc,
		track:  track,
		dsp:    newChain(opts),
		format: m.format,
	}
	go func() {
		defer close(h.done)
		p.run(pumpCtx)
	}()

	log.Info().Str("module", "capture").Str("driver", m.driver.Name()).
		Bool("ns", opts.NoiseSuppression).Bool("agc", opts.AutoGainControl).
		Msg("audio capture acquired")
	return h, nil
}

func (m *Manager) release(h *handle) {
	m.mu.Lock()
	if m.active == h {
		m.active = nil
	}
	m.mu.Unlock()
}

type handle struct {
	m      *Manager
	track  *webrtc.TrackLocalStaticSample
	src    Source
	cancel  context.CancelFunc
	done    chan struct{}
	timeout time.Duration

	once sync.Once
	err  error
}

func (h *handle) Track() webrtc.TrackLocal { return h.track }

func (h *handle) Release() error {
	h.once.Do(func() {
		h.cancel()
		// closing first unblocks a pump stuck in a read
		h.err = h.src.Close()
		if !h.wait() {
			log.Warn().Str("module", "capture").Dur("timeout", h.timeout).Msg("capture pump still running after release")
			h.err = errors.Join(h.err, ErrReleaseTimeout)
		}
		h.m.release(h)
		log.Info().Str("module", "capture").Msg("audio capture released")
	})
	return h.err
}

func (h *handle) wait() bool {
	if h.timeout <= 0 {
		<-h.done
		return true
	}
	timer := time.NewTimer(h.timeout)
	defer timer.Stop()
	select {
	case <-h.done:
		return true
	case <-timer.C:
		return false
	}
}

type pump struct {
	src    Source
	enc    *opus.Encoder
	track  *webrtc.TrackLocalStaticSample
	dsp    chain
	format Format
}

func (p *pump) run(ctx context.Context) {
	pcm := make([]int16, p.format.SamplesPerFrame())
	packet := make([]byte, maxOpusPacket)

	ticker := time.NewTicker(p.format.FrameSize)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := p.src.Read(pcm)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				log.Info().Str("module", "capture").Msg("capture source ended")
			} else {
				log.Error().Err(err).Str("module", "capture").Msg("capture read failed")
			}
			return
		}
		if n < len(pcm) {
			clear(pcm[n:])
		}

		p.dsp.Process(pcm)

		size, err := p.enc.Encode(pcm, packet)
		if err != nil {
			log.Warn().Err(err).Str("module", "capture").Msg("opus encode failed")
			continue
		}
		if err := p.track.WriteSample(media.Sample{Data: packet[:size], Duration: p.format.FrameSize}); err != nil {
			log.Debug().Err(err).Str("module", "capture").Msg("write sample failed")
		}
	}
}
