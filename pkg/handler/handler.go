// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package handler implements the admin HTTP surface: policy config
// inspection and overrides, session resets, and a status snapshot.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/AccelByte/extend-ads-policy/pkg/ads"
	"github.com/AccelByte/extend-ads-policy/pkg/common"
	"github.com/AccelByte/extend-ads-policy/pkg/policy"
	"github.com/sirupsen/logrus"
)

// Admin serves the administrative endpoints. It never touches policy state
// directly; everything goes through the ads service and the config service.
type Admin struct {
	ads    *ads.Service
	config *policy.ConfigService
	health *policy.HealthChecker
}

// NewAdmin creates the admin handler set.
func NewAdmin(adsService *ads.Service, configService *policy.ConfigService, health *policy.HealthChecker) *Admin {
	return &Admin{
		ads:    adsService,
		config: configService,
		health: health,
	}
}

// Register wires every admin route onto the mux.
func (a *Admin) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/config", a.handleConfig)
	mux.HandleFunc("/v1/config/reset", a.handleConfigReset)
	mux.HandleFunc("/v1/session/reset", a.handleSessionReset)
	mux.HandleFunc("/v1/session/reset-all", a.handleSessionResetAll)
	mux.HandleFunc("/v1/status", a.handleStatus)
	mux.HandleFunc("/healthz", a.handleHealth)
}

func (a *Admin) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	scope := common.GetScopeFromContext(r.Context(), "Admin.SessionReset")
	defer scope.Finish()

	if err := a.ads.ResetSession(scope.Ctx); err != nil {
		scope.TraceError(err)
		logrus.Errorf("session reset failed: %v", err)
		writeError(w, http.StatusInternalServerError, "session reset failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": "session reset"})
}

func (a *Admin) handleSessionResetAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	scope := common.GetScopeFromContext(r.Context(), "Admin.SessionResetAll")
	defer scope.Finish()

	if err := a.ads.ResetAll(scope.Ctx); err != nil {
		scope.TraceError(err)
		logrus.Errorf("full reset failed: %v", err)
		writeError(w, http.StatusInternalServerError, "full reset failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": "all policy state reset"})
}

func (a *Admin) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	scope := common.GetScopeFromContext(r.Context(), "Admin.Status")
	defer scope.Finish()

	writeJSON(w, http.StatusOK, a.ads.Status())
}

func (a *Admin) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil && !a.health.IsHealthy(r.Context()) {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("failed to write admin response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
