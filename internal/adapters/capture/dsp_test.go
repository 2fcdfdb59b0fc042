package capture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkeye/VoiceAgent/internal/core"
)

func frame(amplitude int16, n int) []int16 {
	pcm := make([]int16, n)
	for i := range pcm {
		if i%2 == 0 {
			pcm[i] = amplitude
		} else {
			pcm[i] = -amplitude
		}
	}
	return pcm
}

func TestNoiseGate(t *testing.T) {
	g := &noiseGate{threshold: 300, holdFrames: 1}

	loud := frame(1000, 960)
	g.Process(loud)
	assert.Equal(t, int16(1000), loud[0], "loud frame passes")

	quiet := frame(50, 960)
	g.Process(quiet)
	assert.Equal(t, int16(50), quiet[0], "hold keeps the first quiet frame")

	quiet = frame(50, 960)
	g.Process(quiet)
	assert.Zero(t, rms(quiet), "gate closes after hold")
}

func TestAutoGainRaisesQuietSignal(t *testing.T) {
	a := &autoGain{target: 3000, maxGain: 8, minGain: 0.25, gain: 1, attack: 0.5}

	var last float64
	for i := 0; i < 10; i++ {
		pcm := frame(500, 960)
		a.Process(pcm)
		last = rms(pcm)
	}
	assert.Greater(t, last, 2500.0)
	assert.LessOrEqual(t, a.gain, 8.0)
}

func TestAutoGainClamps(t *testing.T) {
	a := &autoGain{target: 30000, maxGain: 100, minGain: 1, gain: 50, attack: 1}
	pcm := frame(20000, 4)
	a.Process(pcm)
	assert.Equal(t, int16(math.MaxInt16), pcm[0])
	assert.Equal(t, int16(math.MinInt16), pcm[1])
}

func TestAutoGainIgnoresSilence(t *testing.T) {
	a := &autoGain{target: 3000, maxGain: 8, minGain: 0.25, gain: 1, attack: 0.5}
	pcm := make([]int16, 960)
	a.Process(pcm)
	assert.Equal(t, 1.0, a.gain)
}

func TestNewChain(t *testing.T) {
	tests := []struct {
		name string
		opts core.CaptureOptions
		want int
	}{
		{"all", core.DefaultCaptureOptions(), 2},
		{"none", core.CaptureOptions{}, 0},
		{"ns only", core.CaptureOptions{NoiseSuppression: true}, 1},
		{"echo only", core.CaptureOptions{EchoCancellation: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, newChain(tt.opts), tt.want)
		})
	}
}
