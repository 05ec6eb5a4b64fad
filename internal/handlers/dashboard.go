package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"matlog/internal/respond"
	"matlog/internal/services"
)

type DashboardHandler struct {
	svc    *services.TrainingService
	logger *zap.Logger
}

func NewDashboardHandler(svc *services.TrainingService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// Get aggregates the caller's rank, recent entries and counts for the home page.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, d)
}
