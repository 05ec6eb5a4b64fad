package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"matlog/internal/auth"
	"matlog/internal/respond"
)

type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

func NewAuthMiddleware(v TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: v, logger: logger}
}

// RequireAuth resolves the caller's identity and stores it on the request
// context. Requests without a valid session stop here with 401.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, err := auth.TokenFromRequest(r)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}
		id, err := m.verifier.Verify(tokenStr)
		if err != nil {
			m.logger.Debug("session rejected", zap.Error(err), zap.String("path", r.URL.Path))
			respond.Error(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}
		recordUserID(r.Context(), id.UserID)
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}
