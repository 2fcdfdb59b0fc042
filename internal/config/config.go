package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dkeye/VoiceAgent/internal/core"
)

type Config struct {
	Mode      string          `mapstructure:"mode"`
	LogLevel  string          `mapstructure:"log_level"`
	Client    ClientConfig    `mapstructure:"client"`
	Capture   CaptureConfig   `mapstructure:"capture"`
	Playback  PlaybackConfig  `mapstructure:"playback"`
	Transport TransportConfig `mapstructure:"transport"`
	Bridge    BridgeConfig    `mapstructure:"bridge"`
	Issuer    IssuerConfig    `mapstructure:"issuer"`
}

type ClientConfig struct {
	TokenURL        string        `mapstructure:"token_url"`
	IdentityPrefix  string        `mapstructure:"identity_prefix"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	VerifyIdentity  bool          `mapstructure:"verify_identity"`
	AutoJoin        bool          `mapstructure:"auto_join"`
	// TeardownTimeout bounds each best-effort teardown call, capture release included.
	TeardownTimeout time.Duration `mapstructure:"teardown_timeout"`
}

type CaptureConfig struct {
	Driver     string  `mapstructure:"driver"`
	Source     string  `mapstructure:"source"`
	SampleRate int     `mapstructure:"sample_rate"`
	Channels   int     `mapstructure:"channels"`
	Frequency  float64 `mapstructure:"frequency"`
	// Options is decoded separately and strictly, see CaptureOptions.
	Options core.CaptureOptions `mapstructure:"-"`
}

type PlaybackConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	SampleRate int  `mapstructure:"sample_rate"`
	Channels   int  `mapstructure:"channels"`
}

type TransportConfig struct {
	AutoSubscribe  bool          `mapstructure:"auto_subscribe"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type BridgeConfig struct {
	Port           int           `mapstructure:"port"`
	StaticPath     string        `mapstructure:"static_path"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	ObserverBuffer int           `mapstructure:"observer_buffer"`
}

type IssuerConfig struct {
	Port         int           `mapstructure:"port"`
	APIKey       string        `mapstructure:"api_key"`
	APISecret    string        `mapstructure:"api_secret"`
	URL          string        `mapstructure:"url"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	RateLimit    int           `mapstructure:"rate_limit"`
	RateInterval time.Duration `mapstructure:"rate_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")

	v.SetDefault("client.token_url", "http://localhost:5000")
	v.SetDefault("client.identity_prefix", "frontend-user")
	v.SetDefault("client.request_timeout", "10s")
	v.SetDefault("client.verify_identity", true)
	v.SetDefault("client.auto_join", false)
	v.SetDefault("client.teardown_timeout", "5s")

	v.SetDefault("capture.driver", "tone")
	v.SetDefault("capture.sample_rate", 48000)
	v.SetDefault("capture.channels", 1)
	v.SetDefault("capture.frequency", 440.0)
	v.SetDefault("capture.options.echo_cancellation", true)
	v.SetDefault("capture.options.noise_suppression", true)
	v.SetDefault("capture.options.auto_gain_control", true)

	v.SetDefault("playback.enabled", true)
	v.SetDefault("playback.sample_rate", 48000)
	v.SetDefault("playback.channels", 2)

	v.SetDefault("transport.auto_subscribe", true)
	v.SetDefault("transport.connect_timeout", "15s")

	v.SetDefault("bridge.port", 8080)
	v.SetDefault("bridge.static_path", "./web")
	v.SetDefault("bridge.read_limit", 32768)
	v.SetDefault("bridge.ping_period", "54s")
	v.SetDefault("bridge.observer_buffer", 16)

	v.SetDefault("issuer.port", 5000)
	v.SetDefault("issuer.token_ttl", "1h")
	v.SetDefault("issuer.rate_limit", 30)
	v.SetDefault("issuer.rate_interval", "1m")
}

// Load reads config/config.<CONFIG_ENV>.yaml (or --config), then VOICE_* env
// vars, then any flags in fs that were set explicitly.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			fileName = f.Value.String()
		}
	}

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("VOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Str("token_url", cfg.Client.TokenURL).
		Str("capture_driver", cfg.Capture.Driver).
		Int("bridge_port", cfg.Bridge.Port).
		Msg("config ready")
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	opts, err := CaptureOptions(v.Get("capture.options"))
	if err != nil {
		return nil, err
	}
	cfg.Capture.Options = opts
	return &cfg, nil
}

// flag name -> config key
var flagKeys = map[string]string{
	"port":      "bridge.port",
	"auto-join": "client.auto_join",
	"token-url": "client.token_url",
	"driver":    "capture.driver",
	"source":    "capture.source",
	"log-level": "log_level",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// CaptureOptions decodes the capture option set starting from the defaults.
// Only the three recognized keys are accepted; anything else is an error.
func CaptureOptions(raw any) (core.CaptureOptions, error) {
	opts := core.DefaultCaptureOptions()
	if raw == nil {
		return opts, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(raw); err != nil {
		return core.DefaultCaptureOptions(), &core.CaptureError{Kind: core.CaptureInvalidOptions, Err: err}
	}
	return opts, nil
}
