package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"matlog/internal/models"
	"matlog/internal/respond"
	"matlog/internal/services"
)

type ProfileHandler struct {
	svc    *services.TrainingService
	logger *zap.Logger
}

func NewProfileHandler(svc *services.TrainingService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

// Get returns the caller's profile, or null before onboarding.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// Create onboards the caller and records their starting rank as a promotion.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body models.NewProfile
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.svc.CreateProfile(r.Context(), userID(r), body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, p)
}

// Update applies whichever of name, academyName, currentBelt and
// currentStripes are present in the body.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body models.ProfileUpdate
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.svc.UpdateProfile(r.Context(), userID(r), body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}
