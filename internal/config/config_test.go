package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/VoiceAgent/internal/core"
)

func TestCaptureOptionsDefaultsToEnabled(t *testing.T) {
	opts, err := CaptureOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCaptureOptions(), opts)
}

func TestCaptureOptionsPartialOverride(t *testing.T) {
	opts, err := CaptureOptions(map[string]any{"noise_suppression": false})
	require.NoError(t, err)
	assert.True(t, opts.EchoCancellation)
	assert.False(t, opts.NoiseSuppression)
	assert.True(t, opts.AutoGainControl)
}

func TestCaptureOptionsRejectsUnknownKeys(t *testing.T) {
	_, err := CaptureOptions(map[string]any{"echo_cancellation": true, "voice_isolation": true})
	require.Error(t, err)

	var capErr *core.CaptureError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, core.CaptureInvalidOptions, capErr.Kind)
	assert.Contains(t, err.Error(), "voice_isolation")
}

func TestLoadFromFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voice.yaml")
	data := []byte(`
mode: debug
client:
  token_url: http://issuer.test
capture:
  driver: pcm
  options:
    auto_gain_control: false
issuer:
  token_ttl: 30m
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.Int("port", 8080, "")
	require.NoError(t, fs.Parse([]string{"--config", path, "--port", "9191"}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, "http://issuer.test", cfg.Client.TokenURL)
	assert.Equal(t, "frontend-user", cfg.Client.IdentityPrefix)
	assert.Equal(t, "pcm", cfg.Capture.Driver)
	assert.False(t, cfg.Capture.Options.AutoGainControl)
	assert.True(t, cfg.Capture.Options.EchoCancellation)
	assert.Equal(t, 9191, cfg.Bridge.Port)
	assert.Equal(t, 30*time.Minute, cfg.Issuer.TokenTTL)
	assert.Equal(t, 10*time.Second, cfg.Client.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Client.TeardownTimeout)
}

func TestLoadRejectsUnknownCaptureOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capture:\n  options:\n    beamforming: true\n"), 0o600))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	require.NoError(t, fs.Parse([]string{"--config", path}))

	_, err := Load(fs)
	require.Error(t, err)
}
