package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/dkeye/VoiceAgent/internal/adapters/capture"
	"github.com/dkeye/VoiceAgent/internal/adapters/credential"
	router "github.com/dkeye/VoiceAgent/internal/adapters/http"
	"github.com/dkeye/VoiceAgent/internal/adapters/playback"
	"github.com/dkeye/VoiceAgent/internal/adapters/rtc"
	"github.com/dkeye/VoiceAgent/internal/app"
	"github.com/dkeye/VoiceAgent/internal/app/orch"
	"github.com/dkeye/VoiceAgent/internal/config"
	"github.com/dkeye/VoiceAgent/internal/domain"
)

func main() {
	fs := pflag.NewFlagSet("voice-client", pflag.ExitOnError)
	fs.String("config", "", "path to a config file")
	fs.Int("port", 8080, "bridge HTTP port")
	fs.Bool("auto-join", false, "join a session on startup")
	fs.String("token-url", "", "base URL of the credential issuer")
	fs.String("driver", "", "capture driver: tone or pcm")
	fs.String("source", "", "pcm capture source, a file path or - for stdin")
	fs.String("log-level", "", "log level")
	_ = fs.Parse(os.Args[1:])

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	driver, err := capture.NewDriver(cfg.Capture.Driver, cfg.Capture.Source, cfg.Capture.Frequency)
	if err != nil {
		log.Fatal().Err(err).Msg("capture driver")
	}
	format := capture.DefaultFormat()
	format.SampleRate = cfg.Capture.SampleRate
	format.Channels = cfg.Capture.Channels

	var sinks playback.SinkFactory = playback.Discard{}
	if cfg.Playback.Enabled {
		sinks = playback.NewOtoOutput()
	}
	renderCfg := playback.DefaultConfig()
	renderCfg.SampleRate = cfg.Playback.SampleRate
	renderCfg.Channels = cfg.Playback.Channels
	renderer := playback.NewRenderer(renderCfg, sinks)
	defer renderer.Close()

	rtcCfg := rtc.DefaultConfig()
	rtcCfg.AutoSubscribe = cfg.Transport.AutoSubscribe
	rtcCfg.ConnectTimeout = cfg.Transport.ConnectTimeout

	captureManager := capture.NewManager(driver, format)
	captureManager.ReleaseTimeout = cfg.Client.TeardownTimeout

	reg := app.NewRegistry(app.LatestStatePolicy{})
	session := orch.New(orch.Deps{
		Credentials: credential.NewClient(credential.Config{
			BaseURL:        cfg.Client.TokenURL,
			Timeout:        cfg.Client.RequestTimeout,
			VerifyIdentity: cfg.Client.VerifyIdentity,
		}),
		Capture:        captureManager,
		Transports:     rtc.NewFactory(rtcCfg),
		Renderer:       renderer,
		Observers:      reg,
		CaptureOptions: cfg.Capture.Options,
		NewIdentity: func() (domain.SessionIdentity, error) {
			return domain.NewSessionIdentity(cfg.Client.IdentityPrefix, time.Now())
		},
		TeardownTimeout: cfg.Client.TeardownTimeout,
	})

	runCtx, stopRun := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := session.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("session loop stopped")
		}
	}()

	r := router.SetupRouter(ctx, cfg, session, reg, renderer)
	addr := fmt.Sprintf(":%d", cfg.Bridge.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("voice client bridge started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	if cfg.Client.AutoJoin {
		go func() {
			if err := session.Join(ctx); err != nil {
				log.Warn().Err(err).Msg("auto join failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := session.Leave(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("leave on shutdown")
	}
	stopRun()
	<-runDone
	log.Info().Msg("voice client exited")
}
