package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/lightfamily/internal/config"
	"github.com/dukerupert/lightfamily/internal/database"
	"github.com/dukerupert/lightfamily/internal/logging"
	"github.com/dukerupert/lightfamily/internal/metrics"
	"github.com/dukerupert/lightfamily/internal/persist"
	"github.com/dukerupert/lightfamily/internal/server"
	"github.com/dukerupert/lightfamily/internal/store"
	"github.com/dukerupert/lightfamily/internal/tracker"
	"github.com/dukerupert/lightfamily/internal/verse"
	ws "github.com/dukerupert/lightfamily/internal/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	state := store.NewStateStore(store.NewKVStore(db), logger.With("component", "store"))
	members, err := state.LoadMembers()
	if err != nil {
		logger.Error("failed to load members", "error", err)
		os.Exit(1)
	}
	reflections, err := state.LoadReflections()
	if err != nil {
		logger.Error("failed to load reflections", "error", err)
		os.Exit(1)
	}
	logger.Info("state loaded", "members", len(members), "reflections", len(reflections))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	hub := ws.NewHub(logger.With("component", "hub"))

	t := tracker.New(members, reflections)
	writer := persist.NewWriter(state, collector, logger.With("component", "persist"), server.PersistFailureBroadcaster(hub))
	t.Subscribe(writer.Handle)
	t.Subscribe(server.ChangeBroadcaster(hub))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	verseSvc := verse.NewService(verse.Config{
		URL:     cfg.VerseURL,
		APIKey:  cfg.VerseAPIKey,
		Timeout: cfg.VerseTimeout,
	}, server.VerseBroadcaster(hub, collector), logger.With("component", "verse"))
	verseSvc.Start(ctx)

	srv := server.New(t, verseSvc, hub, server.Config{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Gatherer:           registry,
	}, logger)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl := srv.RateLimiter()
				rl.Cleanup()
				logger.Debug("rate limiter cleanup", "clients", rl.Len())
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Light Family running", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	// ctx is cancelled, so an in-flight verse fetch ends promptly.
	select {
	case <-verseSvc.Done():
	case <-shutdownCtx.Done():
		logger.Warn("verse fetch still running at exit")
	}
}
