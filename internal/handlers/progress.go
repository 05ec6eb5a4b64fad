package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"matlog/internal/belt"
	"matlog/internal/models"
	"matlog/internal/respond"
	"matlog/internal/services"
)

// ProgressHandler serves the belt taxonomy and the caller's promotion history.
type ProgressHandler struct {
	svc    *services.TrainingService
	logger *zap.Logger
}

func NewProgressHandler(svc *services.TrainingService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{svc: svc, logger: logger}
}

func (h *ProgressHandler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.svc.ListPromotions(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, promotions)
}

// CreatePromotion records a promotion and moves the profile to that rank.
func (h *ProgressHandler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var body models.NewPromotion
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.svc.CreatePromotion(r.Context(), userID(r), body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, p)
}

func (h *ProgressHandler) Belts(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, belt.All())
}
