package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"matlog/internal/respond"
)

var (
	ErrMissingOrigin = errors.New("missing origin header")
	ErrInvalidOrigin = errors.New("invalid origin header")
	ErrCrossSite     = errors.New("cross-site request")
)

func originMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingOrigin):
		return "Missing Origin header."
	case errors.Is(err, ErrInvalidOrigin):
		return "Invalid Origin header."
	}
	return "Cross-site request blocked."
}

// OriginGuard rejects state-changing requests whose Origin differs from the
// origin the request was served on. The session rides on an ambient cookie,
// so this is the CSRF check.
type OriginGuard struct {
	trustForwarded bool
	logger         *zap.Logger
}

func NewOriginGuard(trustForwarded bool, logger *zap.Logger) *OriginGuard {
	return &OriginGuard{trustForwarded: trustForwarded, logger: logger}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func (g *OriginGuard) RequireSameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isMutating(r.Method) {
			if err := g.Check(r); err != nil {
				g.logger.Warn("origin check failed",
					zap.String("origin", r.Header.Get("Origin")),
					zap.String("expected", g.ServerOrigin(r)),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				respond.Error(w, http.StatusForbidden, originMessage(err))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Check compares the Origin header with ServerOrigin.
func (g *OriginGuard) Check(r *http.Request) error {
	header := r.Header.Get("Origin")
	if header == "" {
		return ErrMissingOrigin
	}
	u, err := url.Parse(header)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidOrigin
	}
	if normalizeOrigin(u.Scheme, u.Host) != g.ServerOrigin(r) {
		return ErrCrossSite
	}
	return nil
}

// ServerOrigin is scheme://host for the request, preferring forwarding
// headers set by a trusted proxy.
func (g *OriginGuard) ServerOrigin(r *http.Request) string {
	proto := "http"
	if r.TLS != nil {
		proto = "https"
	}
	host := r.Host
	if g.trustForwarded {
		if fp := firstValue(r.Header.Get("X-Forwarded-Proto")); fp != "" {
			proto = fp
		}
		if fh := firstValue(r.Header.Get("X-Forwarded-Host")); fh != "" {
			host = fh
		}
	}
	return normalizeOrigin(proto, host)
}

func firstValue(h string) string {
	if i := strings.IndexByte(h, ','); i >= 0 {
		h = h[:i]
	}
	return strings.TrimSpace(h)
}

func normalizeOrigin(scheme, host string) string {
	scheme = strings.ToLower(scheme)
	host = strings.ToLower(host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	return scheme + "://" + host
}
