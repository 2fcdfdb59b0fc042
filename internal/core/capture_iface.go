package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// CaptureOptions are the recognized signal-processing constraints.
type CaptureOptions struct {
	EchoCancellation bool `mapstructure:"echo_cancellation" json:"echo_cancellation"`
	NoiseSuppression bool `mapstructure:"noise_suppression" json:"noise_suppression"`
	AutoGainControl  bool `mapstructure:"auto_gain_control" json:"auto_gain_control"`
}

// DefaultCaptureOptions enables every option for voice quality.
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}
}

type CaptureHandle interface {
	// Track is the outbound microphone track to publish.
	Track() webrtc.TrackLocal
	// Release stops capture; only the first call has an effect.
	Release() error
}

type CaptureDeviceManager interface {
	// AcquireAudioCapture fails with *CaptureError, including when a handle is still active.
	AcquireAudioCapture(ctx context.Context, opts CaptureOptions) (CaptureHandle, error)
}
