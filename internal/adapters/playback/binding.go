package playback

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/hraban/opus.v2"

	"github.com/dkeye/VoiceAgent/internal/core"
)

type bindingState int32

const (
	bindingPlaying bindingState = iota
	bindingMuted
	bindingDelete
)

// maxFrame is 120ms at 48kHz, the longest opus frame.
const maxFrame = 5760

type decoder interface {
	Decode(data []byte, pcm []int16) (int, error)
}

// binding plays one remote track into one sink.
type binding struct {
	track       core.RemoteTrack
	participant string
	dec         decoder
	sink        Sink
	channels    int
	readTimeout time.Duration
	logger      zerolog.Logger

	state atomic.Int32 // zero is bindingPlaying
	done  chan struct{}
	once  sync.Once

	onRelease func(*binding)
}

func newOpusDecoder(sampleRate, channels int) (decoder, error) {
	return opus.NewDecoder(sampleRate, channels)
}

func (b *binding) getState() bindingState { return bindingState(b.state.Load()) }
func (b *binding) markDelete()            { b.state.Store(int32(bindingDelete)) }

func (b *binding) SetMuted(muted bool) {
	if muted {
		b.state.CompareAndSwap(int32(bindingPlaying), int32(bindingMuted))
	} else {
		b.state.CompareAndSwap(int32(bindingMuted), int32(bindingPlaying))
	}
}

// loop reads RTP from the remote track, decodes it and feeds the sink
// until the track ends or the binding is released.
func (b *binding) loop() {
	defer close(b.done)

	pcm := make([]int16, maxFrame*b.channels)
	for {
		if b.getState() == bindingDelete {
			return
		}
		if b.readTimeout > 0 {
			_ = b.track.SetReadDeadline(time.Now().Add(b.readTimeout))
		}
		pkt, _, err := b.track.ReadRTP()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				b.logger.Info().Msg("remote track ended")
			} else if b.getState() != bindingDelete {
				b.logger.Error().Err(err).Msg("read RTP error, stopping playback")
			}
			b.markDelete()
			return
		}
		if len(pkt.Payload) == 0 {
			continue
		}

		n, err := b.dec.Decode(pkt.Payload, pcm)
		if err != nil {
			b.logger.Warn().Err(err).Msg("opus decode failed")
			continue
		}

		frame := pcm[:n*b.channels]
		if b.getState() == bindingMuted {
			clear(frame)
		}
		if err := b.sink.Write(frame); err != nil {
			if b.getState() != bindingDelete {
				b.logger.Error().Err(err).Msg("sink write failed, stopping playback")
			}
			b.markDelete()
			return
		}
	}
}

// Release stops playback and frees the sink. Safe to call more than once.
func (b *binding) Release() {
	b.once.Do(func() {
		b.markDelete()
		// unblocks a pending sink write
		if err := b.sink.Close(); err != nil {
			b.logger.Debug().Err(err).Msg("sink close")
		}
		_ = b.track.SetReadDeadline(time.Now())
		<-b.done
		if b.onRelease != nil {
			b.onRelease(b)
		}
		b.logger.Info().Msg("playback released")
	})
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
