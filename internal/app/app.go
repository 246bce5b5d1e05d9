// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AccelByte/extend-ads-policy/internal/bootstrap"
	"github.com/AccelByte/extend-ads-policy/internal/config"
	"github.com/AccelByte/extend-ads-policy/internal/server"
	"github.com/AccelByte/extend-ads-policy/pkg/ads"
	"github.com/AccelByte/extend-ads-policy/pkg/handler"
	"github.com/AccelByte/extend-ads-policy/pkg/metrics"
	"github.com/AccelByte/extend-ads-policy/pkg/placement"
	"github.com/AccelByte/extend-ads-policy/pkg/policy"
	"github.com/cenkalti/backoff/v4"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	grpcServer        *server.GRPCServer
	metricsServer     *server.MetricsServer
	adminServer       *server.AdminServer
	adsService        *ads.Service
	redisClient       *redis.Client
	sqliteDB          *sql.DB
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
//
// Components are initialized in dependency order:
// 1. Store backend (Redis or SQLite)
// 2. Placement configuration (YAML)
// 3. Ad providers
// 4. Policy config service (defaults + persisted overrides)
// 5. Ads service (engine, control loop, format managers)
// 6. Servers (gRPC, metrics, admin)
// 7. Telemetry (OpenTelemetry tracing)
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	// ============================================================
	// Step 1: Initialize store backend
	// ============================================================
	sessionStore, configStore, health, err := app.initStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	// ============================================================
	// Step 2: Load placement configuration
	// ============================================================
	placements, err := app.loadPlacements()
	if err != nil {
		return nil, fmt.Errorf("failed to load placements: %w", err)
	}

	// ============================================================
	// Step 3: Initialize ad providers
	// ============================================================
	_, backend, err := bootstrap.InitProviders(placements, cfg.AdProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to init providers: %w", err)
	}

	// ============================================================
	// Step 4: Initialize policy config service
	// ============================================================
	configService, err := policy.NewConfigService(ctx, cfg.PolicyDefaults(), configStore, cfg.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to init config service: %w", err)
	}
	logrus.Infof("policy config loaded (profile: %s)", cfg.ProfileID)

	// ============================================================
	// Step 5: Initialize ads service
	// ============================================================
	appMetrics := metrics.New()

	app.adsService, err = bootstrap.InitAdsService(ctx, cfg, sessionStore, configService, backend, placements, appMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to init ads service: %w", err)
	}

	// ============================================================
	// Step 6: Setup servers
	// ============================================================
	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort)
	if err := app.grpcServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics", appMetrics)
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	admin := handler.NewAdmin(app.adsService, configService, health)
	app.adminServer = server.NewAdminServer(cfg.AdminPort, admin)
	if err := app.adminServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup admin server: %w", err)
	}

	// ============================================================
	// Step 7: Setup telemetry
	// ============================================================
	shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to setup telemetry: %w", err)
	}
	app.shutdownTelemetry = shutdownTelemetry

	logrus.Info("application initialized successfully")

	return app, nil
}

// initStore connects the configured persistence backend and returns the
// session and config stores plus a health checker for the admin probe.
func (a *App) initStore(ctx context.Context) (policy.SessionStore, policy.ConfigStore, *policy.HealthChecker, error) {
	switch a.cfg.StoreBackend {
	case config.StoreBackendRedis:
		if err := a.initRedis(ctx); err != nil {
			return nil, nil, nil, err
		}
		sessionStore := policy.NewRedisSessionStore(a.redisClient, policy.RedisSessionStoreConfig{})
		configStore := policy.NewRedisConfigStore(a.redisClient, policy.RedisConfigStoreConfig{})
		return sessionStore, configStore, policy.NewRedisHealthChecker(a.redisClient), nil

	case config.StoreBackendSQLite:
		db, err := policy.OpenSQLite(a.cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open sqlite at %s: %w", a.cfg.SQLitePath, err)
		}
		a.sqliteDB = db
		logrus.Infof("SQLite store opened at %s", a.cfg.SQLitePath)
		return policy.NewSQLiteSessionStore(db), policy.NewSQLiteConfigStore(db), policy.NewSQLiteHealthChecker(db), nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend: %q", a.cfg.StoreBackend)
	}
}

// initRedis initializes the Redis client.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisHost + ":" + a.cfg.RedisPort,
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	maxRetries := backoff.WithMaxRetries(b, uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}

// loadPlacements reads the placement table. A missing file at the default
// path falls back to the built-in table so a bare checkout still runs.
func (a *App) loadPlacements() (*placement.Config, error) {
	placements, err := placement.LoadConfig(a.cfg.PlacementsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logrus.Warnf("placement file %s not found, using built-in defaults", a.cfg.PlacementsPath)
			return placement.DefaultConfig(), nil
		}
		return nil, err
	}
	logrus.Infof("loaded placement configuration from %s", a.cfg.PlacementsPath)
	return placements, nil
}
