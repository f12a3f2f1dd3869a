// main.go
//
// go-hints server entry point.
// Startup order: config → logger → word store → activity log → session
// registry (+ janitor) → HTTP server. SIGINT/SIGTERM trigger a graceful
// shutdown.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-hints/assets"
	"github.com/robalobadob/wordle/apps/go-hints/internal/activity"
	"github.com/robalobadob/wordle/apps/go-hints/internal/config"
	"github.com/robalobadob/wordle/apps/go-hints/internal/httpserver"
	"github.com/robalobadob/wordle/apps/go-hints/internal/store"
	"github.com/robalobadob/wordle/apps/go-hints/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, err := loadWords(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	log.Info().Int("words", ws.Len()).Int("length", ws.Length()).Msg("word list loaded")

	var act *activity.Store
	if cfg.DBPath != "" {
		if act, err = activity.Open(ctx, cfg.DBPath); err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open activity log")
		}
		defer act.Close()
	}

	sessions := store.NewMemoryStore(ws)
	go store.Janitor(ctx, sessions, cfg.SessionTTL, janitorInterval(cfg.SessionTTL))

	if cfg.SessionSecret == config.DevSecret {
		log.Warn().Msg("SESSION_SECRET not set, using development secret")
	}
	srv := httpserver.New(httpserver.Options{
		Store:        sessions,
		Words:        ws,
		Activity:     act,
		SigningKey:   httpserver.SigningKey(cfg.SessionSecret),
		TokenTTL:     cfg.SessionTTL,
		ClientOrigin: cfg.ClientOrigin,
		Production:   cfg.Production,
	})

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("starting go-hints")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("stopped")
}

func setupLogger(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// loadWords reads the first dictionary file that exists, falling back to the
// bundled five-letter list when none does.
func loadWords(cfg *config.Config) (*words.Store, error) {
	ws, err := words.Load(cfg.WordFiles, cfg.WordLength)
	if !errors.Is(err, words.ErrNotFound) || !cfg.EmbeddedFallback || cfg.WordLength != 5 {
		return ws, err
	}
	log.Warn().Strs("paths", cfg.WordFiles).Msg("no dictionary found, using bundled word list")
	f, err := assets.OpenWords()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return words.Read(f, cfg.WordLength)
}

func janitorInterval(ttl time.Duration) time.Duration {
	if iv := ttl / 4; iv > time.Second {
		return iv
	}
	return time.Second
}
