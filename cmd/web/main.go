package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/astro-otter/otterweb/internal/adapters/http"
	"github.com/astro-otter/otterweb/internal/adapters/memory"
	natsadapter "github.com/astro-otter/otterweb/internal/adapters/nats"
	"github.com/astro-otter/otterweb/internal/adapters/postgres"
	"github.com/astro-otter/otterweb/internal/adapters/valkey"
	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/core/ports"
	"github.com/astro-otter/otterweb/internal/core/usecases"
	"github.com/astro-otter/otterweb/internal/pkg/config"
	"github.com/astro-otter/otterweb/internal/pkg/logging"
	"github.com/astro-otter/otterweb/internal/pkg/metrics"
	"github.com/astro-otter/otterweb/internal/pkg/telemetry"
	"github.com/astro-otter/otterweb/internal/plot"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("otterweb")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup("otterweb", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{
		DefaultRadiusArcsec: cfg.Catalog.DefaultRadiusArcsec,
		PageSize:            cfg.Catalog.PageSize,
		Version:             version,
	}

	// Catalog store
	var repo ports.CatalogRepository
	switch cfg.Catalog.Store {
	case "memory":
		store, err := memory.LoadDir(ctx, cfg.Catalog.DataDir)
		if err != nil {
			log.Fatalf("load catalog: %v", err)
		}
		repo = store
		slog.Info("serving catalog from files", "dir", cfg.Catalog.DataDir)
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewTDERepo(db)
		deps.DB = db
		go reportPoolStats(ctx, db)
	}

	// Cache
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
	if err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	catalog := usecases.NewCatalogService(repo, cache, cfg.Catalog.QueryCacheTTL)
	deps.Catalog = catalog
	deps.Summary = usecases.NewSummaryService(cache, cfg.Catalog.SummaryCacheTTL, plot.DefaultOptions)

	// Catalog events drop cached results.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, cfg.NATS.Durable)
	if err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribeCatalogEvents(ctx, func(ctx context.Context, e *domain.CatalogEvent) error {
			metrics.CatalogEvents.WithLabelValues("received").Inc()
			slog.Info("catalog updated", "batch", e.ID, "count", e.Count, "source", e.Source)
			return catalog.Invalidate(ctx)
		})
		if err != nil {
			slog.Warn("catalog event subscription failed", "error", err)
		}
	}

	// Raw NATS connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
		deps.NATS = natsConn
	}

	app := http.NewApp(deps, http.AppConfig{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		CORSOrigins:  cfg.Server.CORSOrigins,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("otterweb starting", "addr", addr, "store", cfg.Catalog.Store, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.ReportPoolStats()
		}
	}
}
