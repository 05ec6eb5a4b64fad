package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"matlog/internal/auth"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errInvalidBody
	}
	return nil
}

// userID returns the caller placed on the context by RequireAuth.
func userID(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.UserID
}

type titleSuggestionDTO struct {
	Title string `json:"title"`
}

type healthDTO struct {
	Status string `json:"status"`
}
