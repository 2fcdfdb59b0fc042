package playback

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog/log"
)

// Sink consumes decoded interleaved PCM for one remote track.
type Sink interface {
	Write(pcm []int16) error
	Close() error
}

type SinkFactory interface {
	NewSink(sampleRate, channels int) (Sink, error)
}

// OtoOutput plays every sink through one shared oto context; oto mixes
// concurrent players. The context is created on first use because oto
// allows only one per process.
type OtoOutput struct {
	once       sync.Once
	ctx        *oto.Context
	err        error
	sampleRate int
	channels   int
}

func NewOtoOutput() *OtoOutput {
	return &OtoOutput{}
}

func (o *OtoOutput) init(sampleRate, channels int) {
	o.once.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			o.err = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		o.ctx = ctx
		o.sampleRate = sampleRate
		o.channels = channels
		log.Info().Str("module", "playback").Int("rate", sampleRate).Int("channels", channels).Msg("audio output initialized")
	})
}

func (o *OtoOutput) NewSink(sampleRate, channels int) (Sink, error) {
	o.init(sampleRate, channels)
	if o.err != nil {
		return nil, o.err
	}
	if sampleRate != o.sampleRate || channels != o.channels {
		return nil, fmt.Errorf("output is fixed at %dHz/%dch", o.sampleRate, o.channels)
	}

	pr, pw := io.Pipe()
	player := o.ctx.NewPlayer(pr)
	player.Play()
	return &otoSink{pr: pr, pw: pw, player: player}, nil
}

type otoSink struct {
	pr     *io.PipeReader
	pw     *io.PipeWriter
	player *oto.Player
	buf    []byte
}

// Write blocks until the player has pulled the bytes.
func (s *otoSink) Write(pcm []int16) error {
	need := len(pcm) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	out := s.buf[:need]
	for i, v := range pcm {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	if _, err := s.pw.Write(out); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

func (s *otoSink) Close() error {
	_ = s.pw.Close()
	err := s.player.Close()
	_ = s.pr.Close()
	return err
}

// Discard accepts decoded audio and drops it. Used when local output is off
// so remote tracks are still consumed and counted.
type Discard struct{}

func (Discard) NewSink(int, int) (Sink, error) { return discardSink{}, nil }

type discardSink struct{}

func (discardSink) Write([]int16) error { return nil }
func (discardSink) Close() error        { return nil }
