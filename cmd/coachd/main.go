package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ferrisk/coachd/internal/api"
	"github.com/ferrisk/coachd/internal/coach"
	"github.com/ferrisk/coachd/internal/config"
	"github.com/ferrisk/coachd/internal/content"
	"github.com/ferrisk/coachd/internal/profile"
)

// #region main

func main() {
	// .env is optional; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Error().Err(err).Msg("load config")
		os.Exit(1)
	}

	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	store, err := profile.NewStore(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Str("db", cfg.DBPath).Msg("open store")
		os.Exit(1)
	}
	defer store.Close()

	var provider content.Provider = content.NewStaticProvider()
	if cfg.ProviderURL != "" {
		provider = content.NewHTTPProvider(cfg.ProviderURL, cfg.ProviderTimeout)
		log.Info().Str("url", cfg.ProviderURL).Msg("using remote content provider")
	}

	orchestrator, err := coach.New(coach.Options{
		Store:    store,
		Provider: provider,
		Logger:   log,
	})
	if err != nil {
		log.Error().Err(err).Msg("build orchestrator")
		os.Exit(1)
	}

	handler := api.NewHandler(orchestrator, log)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pruneLoop(ctx, orchestrator, cfg, log)

	go func() {
		log.Info().Str("addr", srv.Addr).Str("db", cfg.DBPath).Msg("coachd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		os.Exit(1)
	}
	log.Info().Msg("stopped")
}

// #endregion main

// #region prune

// pruneLoop evicts intervention history past the retention window on a
// fixed interval until the context is cancelled.
func pruneLoop(ctx context.Context, o *coach.Orchestrator, cfg config.Config, log zerolog.Logger) {
	ticker := time.NewTicker(cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := o.PruneHistory(cfg.Retention)
			if err != nil {
				log.Warn().Err(err).Msg("prune history")
				continue
			}
			if n > 0 {
				log.Info().Int64("pruned", n).Msg("history pruned")
			}
		}
	}
}

// #endregion prune
