package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/fishing-log/internal/api/http"
	"github.com/i474232898/fishing-log/internal/config"
	"github.com/i474232898/fishing-log/internal/scheduler"
	"github.com/i474232898/fishing-log/internal/store"
	"github.com/i474232898/fishing-log/internal/weather"
	"github.com/i474232898/fishing-log/internal/weather/providers"
)

type snapshotStore interface {
	weather.Store
	io.Closer
}

func main() {
	// Load configuration (also reads .env).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	snapshots, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer snapshots.Close()

	// Providers with resilience (circuit breaker, optional retries and rate limit).
	httpCfg := providers.DefaultHTTPClientConfig(httpClient)
	httpCfg.Backoff.MaxRetries = cfg.ProviderMaxRetries
	httpCfg.RateLimit = cfg.ProviderRateLimit

	openMeteo := providers.NewOpenMeteoProvider(httpCfg)
	forecasters := []weather.ForecastProvider{openMeteo}
	if cfg.WeatherAPIKey != "" {
		forecasters = append(forecasters, providers.NewWeatherAPIProvider(httpCfg, cfg.WeatherAPIKey))
	} else {
		log.Println("INFO: WEATHERAPI_API_KEY not set; weatherapi source disabled")
	}

	// Core service orchestrating providers and store.
	service := weather.NewService(snapshots, openMeteo, forecasters)
	if err := service.SetPrimary(cfg.PrimarySource); err != nil {
		log.Fatalf("invalid primary source: %v", err)
	}

	// Scheduler that periodically refreshes tracked spots.
	sched := scheduler.New(cfg.Spots, cfg.FetchInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	deps := httpapi.Deps{
		Service: service,
		Spots:   cfg.Spots,
	}
	if p, ok := snapshots.(interface{ Ping() error }); ok {
		deps.Ping = p.Ping
	}
	app := httpapi.NewApp(deps)

	go func() {
		log.Printf("INFO: listening on :%s (sources %v, %d spots)", cfg.Port, service.Sources(), len(cfg.Spots))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func openStore(cfg *config.AppConfig) (snapshotStore, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		log.Printf("INFO: using sqlite store at %s", cfg.StorePath)
		return store.NewSQLiteStore(cfg.StorePath, cfg.StoreMaxHistory, cfg.StoreMaxAge)
	default:
		return store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge), nil
	}
}
