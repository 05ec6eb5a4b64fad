package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"matlog/internal/respond"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	logger *zap.Logger
}

func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		respond.JSON(w, http.StatusServiceUnavailable, healthDTO{Status: "unavailable"})
		return
	}
	respond.JSON(w, http.StatusOK, healthDTO{Status: "ok"})
}
