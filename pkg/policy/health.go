// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// HealthChecker probes the configured store backend.
type HealthChecker struct {
	name  string
	check func(ctx context.Context) error
}

// NewRedisHealthChecker creates a health checker over a Redis client.
func NewRedisHealthChecker(client *redis.Client) *HealthChecker {
	return &HealthChecker{
		name: "redis",
		check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

// NewSQLiteHealthChecker creates a health checker over a SQLite handle.
func NewSQLiteHealthChecker(db *sql.DB) *HealthChecker {
	return &HealthChecker{
		name: "sqlite",
		check: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
	}
}

// Check performs a store health check
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.check(ctx); err != nil {
		logrus.Errorf("%s health check failed: %v", h.name, err)
		return err
	}

	logrus.Debugf("%s health check passed", h.name)
	return nil
}

// IsHealthy returns true if the store is accessible
func (h *HealthChecker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx) == nil
}
