package capture

import (
	"math"

	"github.com/dkeye/VoiceAgent/internal/core"
)

// processor mutates one PCM frame in place.
type processor interface {
	Process(pcm []int16)
}

type chain []processor

func (c chain) Process(pcm []int16) {
	for _, p := range c {
		p.Process(pcm)
	}
}

// newChain builds the per-frame pipeline for the requested options.
// Echo cancellation needs a playback reference and is handled by the driver, if at all.
func newChain(opts core.CaptureOptions) chain {
	var c chain
	if opts.NoiseSuppression {
		c = append(c, &noiseGate{threshold: 300, holdFrames: 10})
	}
	if opts.AutoGainControl {
		c = append(c, &autoGain{target: 3000, maxGain: 8, minGain: 0.25, gain: 1, attack: 0.2})
	}
	return c
}

func rms(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(pcm)))
}

// noiseGate silences frames whose RMS stays below threshold once the hold runs out.
type noiseGate struct {
	threshold  float64
	holdFrames int
	hold       int
}

func (g *noiseGate) Process(pcm []int16) {
	if rms(pcm) >= g.threshold {
		g.hold = g.holdFrames
		return
	}
	if g.hold > 0 {
		g.hold--
		return
	}
	clear(pcm)
}

// autoGain nudges the frame level toward target RMS.
type autoGain struct {
	target  float64
	maxGain float64
	minGain float64
	gain    float64
	attack  float64
}

func (a *autoGain) Process(pcm []int16) {
	level := rms(pcm)
	if level < 1 {
		return
	}
	desired := min(max(a.target/level, a.minGain), a.maxGain)
	a.gain += (desired - a.gain) * a.attack

	for i, s := range pcm {
		v := float64(s) * a.gain
		switch {
		case v > math.MaxInt16:
			v = math.MaxInt16
		case v < math.MinInt16:
			v = math.MinInt16
		}
		pcm[i] = int16(v)
	}
}
