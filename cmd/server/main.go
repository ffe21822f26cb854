package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"shipping-estimate-service/internal/adapters/cache"
	"shipping-estimate-service/internal/adapters/geocode"
	"shipping-estimate-service/internal/adapters/repositories"
	"shipping-estimate-service/internal/api"
	"shipping-estimate-service/internal/config"
	"shipping-estimate-service/internal/domain"
	"shipping-estimate-service/internal/platform/db"
	"shipping-estimate-service/internal/platform/logging"
	"shipping-estimate-service/internal/platform/obs"
	"shipping-estimate-service/internal/ports"
	"shipping-estimate-service/internal/services"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (geocoder, cache backend) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, "shipping-estimate-service")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	warehouses, err := loadWarehouses(cfg.WarehousesPath)
	if err != nil {
		return err
	}

	// An empty registry is a deployment error; refuse to start.
	registry, err := domain.NewRegistry(warehouses)
	if err != nil {
		return fmt.Errorf("warehouse registry: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := obs.NewMetrics(reg)

	geocodeCache, closeCache, err := openGeocodeCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	if geocodeCache != nil {
		if err := repositories.SeedGeocodeCache(ctx, geocodeCache, registry.Warehouses()); err != nil {
			logger.Warn("warehouse geocode seeding failed", zap.Error(err))
		}
	}

	upstream, err := newGeocoder(cfg, registry, logger, metrics)
	if err != nil {
		return err
	}

	geocoder, err := geocode.NewCachedGeocoder(upstream, geocodeCache, logger, metrics)
	if err != nil {
		return err
	}

	evaluator, err := services.NewEvaluator(services.EvaluatorConfig{
		Registry: registry,
		Rates:    cfg.Rates(),
		Weights:  cfg.Weights(),
		Geocoder: geocoder,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		return err
	}

	router := api.NewRouter(api.RouterConfig{
		Evaluator:   evaluator,
		Logger:      logger,
		Metrics:     metrics,
		Gatherer:    reg,
		CORSOrigins: cfg.CORSOrigins,
	})

	// Write timeout leaves room for a cold-cache geocode with retries.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("geocoder", cfg.Geocoder),
			zap.String("geocode_cache", cfg.GeocodeCache),
			zap.Int("warehouses", registry.Len()),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func loadWarehouses(path string) ([]domain.Warehouse, error) {
	if path == "" {
		return domain.DefaultWarehouses(), nil
	}
	return repositories.LoadWarehouses(path)
}

func newGeocoder(
	cfg *config.Config,
	registry *domain.Registry,
	logger *zap.Logger,
	metrics *obs.Metrics,
) (ports.Geocoder, error) {
	switch cfg.Geocoder {
	case "nominatim":
		return geocode.NewNominatimGeocoder(geocode.NominatimConfig{
			BaseURL:       cfg.NominatimURL,
			UserAgent:     cfg.NominatimUserAgent,
			Timeout:       cfg.GeocodeTimeout,
			RatePerSecond: cfg.GeocodeRate,
		}, logger, metrics)
	case "ors":
		return geocode.NewORSGeocoder(geocode.ORSConfig{
			APIKey:          cfg.ORSAPIKey,
			BaseURL:         cfg.ORSURL,
			BoundaryCountry: cfg.ORSBoundaryCountry,
			Timeout:         cfg.GeocodeTimeout,
			RatePerSecond:   cfg.GeocodeRate,
		}, logger, metrics)
	case "static":
		return geocode.NewWarehouseGeocoder(registry.Warehouses()), nil
	default:
		return nil, fmt.Errorf("unknown geocoder %q", cfg.Geocoder)
	}
}

// openGeocodeCache returns a nil cache for "none". The returned close
// function is always safe to call.
func openGeocodeCache(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
) (ports.GeocodeCache, func(), error) {
	noop := func() {}

	switch cfg.GeocodeCache {
	case "postgres":
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := repositories.InitSchema(conn, repositories.Postgres); err != nil {
			conn.Close()
			return nil, noop, err
		}
		return cache.NewSQLGeocodeCache(conn, logger), func() { _ = conn.Close() }, nil

	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, noop, fmt.Errorf("sqlite cache dir: %w", err)
			}
		}
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		if err := repositories.InitSchema(conn, repositories.SQLite); err != nil {
			conn.Close()
			return nil, noop, err
		}
		return cache.NewSqliteGeocodeCache(conn, logger), func() { _ = conn.Close() }, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return cache.NewRedisGeocodeCache(rdb, cfg.CacheTTL, logger), func() { _ = rdb.Close() }, nil

	case "none":
		return nil, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown geocode cache %q", cfg.GeocodeCache)
	}
}
