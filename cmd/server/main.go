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

	"github.com/aircast/aircast/internal/adapters"
	router "github.com/aircast/aircast/internal/adapters/http"
	"github.com/aircast/aircast/internal/app"
	"github.com/aircast/aircast/internal/audio"
	"github.com/aircast/aircast/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	source, err := audio.NewSource(cfg.AudioFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.AudioFile).Msg("failed to load audio source")
	}
	go func() {
		if err := source.Watch(ctx); err != nil {
			log.Error().Err(err).Msg("audio source watcher stopped")
		}
	}()

	relay := app.NewRelay(source, app.Framing{
		FrameSize:    cfg.FrameSize,
		FrameSamples: cfg.FrameSamples,
		SampleRate:   cfg.SampleRate,
	})
	limiter := adapters.NewUpgradeLimiter(cfg.UpgradeLimit, cfg.UpgradeWindow)
	ctl := adapters.NewWSController(relay, limiter)

	r := router.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Aircast relay started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
