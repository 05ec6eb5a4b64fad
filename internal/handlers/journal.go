package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"matlog/internal/models"
	"matlog/internal/respond"
	"matlog/internal/services"
)

type JournalHandler struct {
	svc    *services.TrainingService
	logger *zap.Logger
}

func NewJournalHandler(svc *services.TrainingService, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{svc: svc, logger: logger}
}

// List returns every entry of the caller, newest first.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListJournal(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, entries)
}

// Create godoc
// @Summary Create journal entry
// @Description Stores a session note stamped with the caller's current belt
// @Tags journal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.JournalEntry
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 500 {object} map[string]string "Store failure"
// @Router /journal [post]
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body models.NewJournalEntry
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	e, err := h.svc.CreateJournalEntry(r.Context(), userID(r), body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, e)
}

// Get answers null for ids the caller does not own, same as for unknown ids.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetJournalEntry(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, e)
}

// Delete godoc
// @Summary Delete journal entry
// @Description Removes the entry if the caller owns it; unknown ids also succeed
// @Tags journal
// @Security BearerAuth
// @Success 204
// @Router /journal/{id} [delete]
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteJournalEntry(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.NoContent(w)
}

func (h *JournalHandler) SuggestTitle(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, titleSuggestionDTO{Title: services.SuggestTitle()})
}
