package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	router "github.com/dkeye/VoiceAgent/internal/adapters/http"
	"github.com/dkeye/VoiceAgent/internal/adapters/issuer"
	"github.com/dkeye/VoiceAgent/internal/config"
)

func main() {
	fs := pflag.NewFlagSet("token-server", pflag.ExitOnError)
	fs.String("config", "", "path to a config file")
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

	tokens, err := issuer.NewTokenGenerator(cfg.Issuer.APIKey, cfg.Issuer.APISecret)
	if err != nil {
		log.Fatal().Err(err).Msg("issuer keys")
	}
	limiter := issuer.NewRateLimiter(cfg.Issuer.RateLimit, cfg.Issuer.RateInterval)
	h := issuer.NewHandler(tokens, cfg.Issuer.URL, cfg.Issuer.TokenTTL, limiter)

	addr := fmt.Sprintf(":%d", cfg.Issuer.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.SetupIssuerRouter(cfg, h),
	}

	go func() {
		log.Info().Str("addr", addr).Str("url", cfg.Issuer.URL).Msg("token server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("token server exited")
}
