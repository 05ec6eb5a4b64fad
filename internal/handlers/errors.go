package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"matlog/internal/models"
	"matlog/internal/respond"
	"matlog/internal/services"
)

// writeError maps service errors onto the {"error": message} body. Store
// failures are logged with their cause; the client only sees the generic text.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var ve *models.ValidationError
	var se *services.StoreError
	switch {
	case errors.Is(err, errInvalidBody):
		respond.Error(w, http.StatusBadRequest, "Invalid request body.")
	case errors.As(err, &ve):
		respond.Error(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, services.ErrProfileExists):
		respond.Error(w, http.StatusConflict, "Profile already exists.")
	case errors.Is(err, services.ErrProfileNotFound):
		respond.Error(w, http.StatusNotFound, "Profile not found.")
	case errors.As(err, &se):
		logger.Error(se.Message,
			zap.Error(se.Err),
			zap.String("user_id", userID(r)),
			zap.String("path", r.URL.Path),
		)
		respond.Error(w, http.StatusInternalServerError, se.Message)
	default:
		logger.Error("unhandled error", zap.Error(err), zap.String("path", r.URL.Path))
		respond.Error(w, http.StatusInternalServerError, "Internal server error.")
	}
}
