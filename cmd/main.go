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

	"inklore/server/internal/config"
	"inklore/server/internal/engine"
	"inklore/server/internal/filters"
	"inklore/server/internal/interfaces"
	"inklore/server/internal/session"
	"inklore/server/internal/storage"
	"inklore/server/internal/web"
)

func main() {
	// Load configuration
	configPath := os.Getenv("INKLORE_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	log := newLogger(cfg.Logging)
	log.Info().Str("config", configPath).Msg("starting inklore server")

	// Initialize the save store; fall back to the file store when a remote
	// backend is unreachable so the game remains playable.
	store := newStore(cfg, log)

	// Initialize the generator backend
	gen, err := engine.NewGenerator(cfg.AI, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize generator")
	}
	log.Info().Str("backend", cfg.AI.Backend).Str("model", cfg.AI.Model).Msg("generator ready")

	// Register the built-in filters and wire the session
	registry := filters.Builtin()
	sess, err := session.New(cfg, gen, store, registry, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session")
	}

	hub := web.NewTranscriptHub(log)
	go hub.Run()
	sess.SetUpdateHook(hub.BroadcastTranscript)

	r := web.NewRouter(sess, hub, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in background
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out zerolog.Logger
	if cfg.Format == "console" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		out = zerolog.New(os.Stderr)
	}
	return out.Level(level).With().Timestamp().Logger()
}

func newStore(cfg *config.Config, log zerolog.Logger) interfaces.SaveStore {
	switch cfg.Storage.Backend {
	case "redis":
		store, err := storage.NewRedisStore(cfg.Storage.Redis)
		if err == nil {
			log.Info().Msg("redis save store connected")
			return store
		}
		log.Warn().Err(err).Msg("redis unavailable, falling back to file store")

	case "mysql":
		store, err := storage.NewMySQLStore(cfg.Storage.MySQL)
		if err == nil {
			log.Info().Msg("mysql save store connected")
			return store
		}
		log.Warn().Err(err).Msg("mysql unavailable, falling back to file store")

	case "file":
		// fallthrough to the file store below

	default:
		log.Warn().Str("backend", cfg.Storage.Backend).Msg("unknown storage backend, using file store")
	}

	store, err := storage.NewFileStore(cfg.Storage.File)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file save store")
	}
	log.Info().Str("dir", cfg.Storage.File.Dir).Msg("file save store ready")
	return store
}
