// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/AccelByte/extend-ads-policy/pkg/handler"

	"github.com/sirupsen/logrus"
)

// AdminServer manages the admin HTTP API: runtime config overrides,
// session resets, status inspection and liveness probes.
type AdminServer struct {
	server *http.Server
	port   int
	admin  *handler.Admin
}

// NewAdminServer creates a new admin server instance.
func NewAdminServer(port int, admin *handler.Admin) *AdminServer {
	return &AdminServer{
		port:  port,
		admin: admin,
	}
}

// Setup configures the admin server routes.
func (a *AdminServer) Setup() error {
	mux := http.NewServeMux()
	a.admin.Register(mux)

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: mux,
	}

	return nil
}

// Start begins serving admin requests on the configured port.
func (a *AdminServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("admin server listening on port %d", a.port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("admin server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the admin server.
func (a *AdminServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down admin server...")
	if err := a.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("admin server stopped")
	return nil
}
