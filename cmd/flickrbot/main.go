package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nmelo/flickrbot/internal/bot"
	"github.com/nmelo/flickrbot/internal/config"
	"github.com/nmelo/flickrbot/internal/flickr"
	"github.com/nmelo/flickrbot/internal/httpapi"
	"github.com/nmelo/flickrbot/internal/observability"
	"github.com/nmelo/flickrbot/internal/state"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := state.NewStore(ctx, cfg.DatabaseURL, cfg.DialogIdleTimeout)
	if err != nil {
		log.Fatalf("state store init failed: %v", err)
	}
	defer store.Close()

	storeMode := "postgres"
	if _, ok := store.(*state.InMemoryStore); ok {
		storeMode = "in-memory"
	}
	log.Printf("state store: %s", storeMode)

	photos := flickr.NewClient(cfg.FlickrAPIKey, cfg.FlickrAPIURL, cfg.FlickrPageSize)
	handler := bot.New(store, photos, metrics)

	api := httpapi.New(cfg, handler, metrics, storeMode)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	if ms, ok := store.(*state.InMemoryStore); ok {
		ms.StartJanitor(runCtx, time.Minute)
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
