// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run(ctx context.Context) error {
	// Start the ads control loop before the surfaces that call into it
	a.adsService.Start()

	// Start servers
	if err := a.grpcServer.Start(ctx); err != nil {
		return err
	}
	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}
	if err := a.adminServer.Start(ctx); err != nil {
		return err
	}

	logrus.Info("application started successfully")

	// Wait for shutdown signal
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logrus.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down all application components.
//
// Components are shut down in reverse dependency order:
// 1. Stop accepting new requests (gRPC, metrics, admin servers)
// 2. Drain the ads control loop and release ad handles
// 3. Close external connections (Redis, SQLite)
// 4. Flush telemetry data (OpenTelemetry)
//
// Shutdown errors are logged but don't stop the sequence. Each
// component gets a chance to clean up.
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down application...")

	// ============================================================
	// Step 1: Shutdown servers (stop accepting new requests)
	// ============================================================
	if err := a.grpcServer.Shutdown(ctx); err != nil {
		logrus.Errorf("gRPC server shutdown error: %v", err)
	}
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		logrus.Errorf("metrics server shutdown error: %v", err)
	}
	if err := a.adminServer.Shutdown(ctx); err != nil {
		logrus.Errorf("admin server shutdown error: %v", err)
	}

	// ============================================================
	// Step 2: Drain the ads control loop
	// ============================================================
	if err := a.adsService.Shutdown(ctx); err != nil {
		logrus.Errorf("ads service shutdown error: %v", err)
	}

	// ============================================================
	// Step 3: Close external connections
	// ============================================================
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.Errorf("Redis close error: %v", err)
		}
	}
	if a.sqliteDB != nil {
		if err := a.sqliteDB.Close(); err != nil {
			logrus.Errorf("SQLite close error: %v", err)
		}
	}

	// ============================================================
	// Step 4: Flush telemetry data
	// ============================================================
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}

	logrus.Info("application shutdown complete")
	return nil
}
