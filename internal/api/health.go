// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"log/slog"
	"net/http"

	"github.com/hermes-search/hermes/internal/platform/constants"
	"github.com/hermes-search/hermes/internal/platform/respond"
)

// HealthDependencies holds the injectable dependency checkers for system probes.
type HealthDependencies struct {
	// CheckDatabase performs a shallow ping of the PostgreSQL pool.
	CheckDatabase func() error

	// CheckVectorStore performs a shallow ping of the configured vector
	// store backend (nil for the in-process local backend, which has
	// nothing to dial).
	CheckVectorStore func() error
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

// NewHealthHandlers constructs the liveness and readiness [http.HandlerFunc] pair.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health: confirms the process is alive.
func (h *healthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	respond.OK(w, map[string]string{
		constants.FieldStatus:  "ok",
		constants.FieldApp:     constants.AppName,
		constants.FieldVersion: constants.AppVersion,
	})
}

// readiness handles GET /ready: verifies downstream dependencies.
func (h *healthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	type checkResult struct {
		Name  string `json:"name"`
		IsOK  bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	results := make([]checkResult, 0, 2)
	ready := true

	if h.dependencies.CheckDatabase != nil {
		result := checkResult{Name: "postgres", IsOK: true}
		if err := h.dependencies.CheckDatabase(); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			ready = false
			h.logger.Error("readiness_check_failed", slog.String("dependency", "postgres"), slog.Any("error", err))
		}
		results = append(results, result)
	}

	if h.dependencies.CheckVectorStore != nil {
		result := checkResult{Name: "vector_store", IsOK: true}
		if err := h.dependencies.CheckVectorStore(); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			ready = false
			h.logger.Error("readiness_check_failed", slog.String("dependency", "vector_store"), slog.Any("error", err))
		}
		results = append(results, result)
	}

	status := "ready"
	httpStatus := http.StatusOK
	if !ready {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(httpStatus)
	}

	respond.OK(w, map[string]any{
		constants.FieldStatus: status,
		constants.FieldChecks: results,
	})
}
