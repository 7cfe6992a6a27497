// Command roomcast runs the websocket signaling server: room registry,
// presence notifications, and opaque payload relay for peers bootstrapping
// their own direct transport.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"roomcast/signaling"
)

// Config is read from ROOMCAST_* environment variables, with an optional
// .env file for development.
type Config struct {
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	// Origin patterns allowed to open sockets. Empty means same-origin only.
	OriginPatterns []string `envconfig:"ORIGIN_PATTERNS"`
}

func main() {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("roomcast", &cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := newLogger(cfg)

	srv := signaling.NewServer(log, websocket.AcceptOptions{
		OriginPatterns: cfg.OriginPatterns,
	})
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.ListenAndServe()
	}()
	log.Info("signaling server listening", "addr", cfg.ListenAddr)

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown incomplete", "error", err)
	}
	log.Info("signaling server stopped")
}

func newLogger(cfg Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
