package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/errors"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/utils"
)

// readyTimeout bounds the store ping behind /readyz
const readyTimeout = 2 * time.Second

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	store   user.Store
	logger  *logger.Logger
	started time.Time
}

func NewHealthHandler(store user.Store, log *logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: log, started: time.Now()}
}

// Healthz reports that the process is serving
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is alive"
// @Router /healthz [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(h.started).Truncate(time.Second).String(),
	})
}

// Readyz reports whether the user store is reachable. The gate cannot admit
// or settle anything without it.
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is ready"
// @Failure 503 {object} utils.Envelope "Service unavailable"
// @Router /readyz [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	start := time.Now()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.ErrorWithErr(err, "User store ping failed")
		utils.WriteError(w, errors.ServiceUnavailableErr("User store unavailable", err))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"store":   "connected",
		"latency": time.Since(start).String(),
	})
}
