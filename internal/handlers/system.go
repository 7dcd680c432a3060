package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/config"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
)

// HealthCheck pings an optional dependency.
type HealthCheck func(ctx context.Context) error

type SystemHandler struct {
	db    *gorm.DB
	app   config.AppConfig
	redis HealthCheck
	log   *zap.Logger
}

// NewSystemHandler builds the root and health endpoints. redis may be nil
// when Redis is not configured.
func NewSystemHandler(conn *gorm.DB, app config.AppConfig, redis HealthCheck, log *zap.Logger) *SystemHandler {
	return &SystemHandler{db: conn, app: app, redis: redis, log: log}
}

func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"name":        h.app.Name,
		"version":     h.app.Version,
		"environment": h.app.Env,
		"docs":        "/docs",
	})
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "healthy", "version": h.app.Version})
}

// Ready reports 503 when the database is unreachable. Redis only degrades the
// status.
func (h *SystemHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	database := "connected"
	if err := db.Ping(ctx, h.db); err != nil {
		h.log.Error("readiness: database unreachable", zap.Error(err))
		database = "disconnected"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	redis := "not_configured"
	if h.redis != nil {
		redis = "connected"
		if err := h.redis(ctx); err != nil {
			h.log.Warn("readiness: redis unreachable", zap.Error(err))
			redis = "disconnected"
		}
	}
	httpx.JSON(w, code, map[string]any{
		"status":   status,
		"database": database,
		"redis":    redis,
	})
}
