// Package main serves a deaths artifact over HTTP with per-session filtering.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"deathmap/internal/config"
	"deathmap/internal/logger"
	"deathmap/internal/session"
	"deathmap/internal/store"
	"deathmap/internal/web"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (optional)")
	artifact := flag.String("artifact", "", "Artifact to serve (overrides server.artifact)")
	addr := flag.String("addr", "", "Listen address host:port (overrides server.host/port)")
	level := flag.String("log-level", "", "Log level (overrides logging.level)")

	flag.Parse()

	cfg := config.Defaults()
	log := logger.NewLogger(cfg.Logging.Level)

	if *configFile != "" {
		loaded, err := config.LoadConfig(*configFile)
		if err != nil {
			log.Error(fmt.Sprintf("❌ Failed to load config %s: %v", *configFile, err))
			os.Exit(1)
		}

		cfg = loaded
	}

	if *artifact != "" {
		cfg.Server.Artifact = *artifact
	}

	if *level != "" {
		cfg.Logging.Level = *level
	}

	listen := cfg.Server.Addr()
	if *addr != "" {
		listen = *addr
	}

	log.SetLevel(cfg.Logging.Level)
	gin.SetMode(gin.ReleaseMode)

	base := session.New()

	ds, err := store.Load(cfg.Server.Artifact)
	if err != nil {
		// A failed load still serves; data routes answer 503 with the error.
		log.Error(fmt.Sprintf("❌ Failed to load %s: %v", cfg.Server.Artifact, err))
		_ = base.Fail(err)
	} else {
		_ = base.Load(ds)
		log.Info(fmt.Sprintf("📂 Loaded %s: %d records (%d)", cfg.Server.Artifact, ds.Total, ds.Year))
	}

	sessions := session.NewManager(base, cfg.Server.SessionTTL())
	srv := &http.Server{
		Addr:              listen,
		Handler:           web.NewServer(sessions, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pruneLoop(ctx, sessions, log)

	errCh := make(chan error, 1)

	go func() {
		log.Info(fmt.Sprintf("🚀 Listening on %s", listen))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error(fmt.Sprintf("❌ Server error: %v", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(fmt.Sprintf("http shutdown error: %v", err))
	}

	log.Info("server stopped")
}

func pruneLoop(ctx context.Context, sessions *session.Manager, log *logger.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(); n > 0 {
				log.Debug("pruned idle sessions", "count", n, "open", sessions.Len())
			}
		}
	}
}
