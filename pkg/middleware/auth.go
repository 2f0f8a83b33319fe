package middleware

import (
	"context"
	"net/http"
	"strings"

	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

const PrincipalKey contextKey = "principal"

const tokenScheme = "Token"

// Authenticator resolves an opaque token key to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, tokenKey string) (*model.Principal, error)
}

// TokenAuth resolves the Authorization header into a principal and stores it
// in the request context. A missing header leaves the request anonymous;
// handlers and services decide whether a principal is required. A present
// but invalid or expired token is rejected with 401 outright, before any
// routing or object lookup happens.
func TokenAuth(auth Authenticator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			key, ok := parseTokenHeader(header)
			if !ok {
				writeUnauthorized(w, "Invalid authorization header")
				return
			}

			principal, err := auth.Authenticate(r.Context(), key)
			if err != nil {
				log.Warn("Token authentication failed",
					"request_id", requestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				writeUnauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseTokenHeader(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], tokenScheme) {
		return "", false
	}
	key := strings.TrimSpace(parts[1])
	return key, key != ""
}

func extractTokenKey(r *http.Request) string {
	key, _ := parseTokenHeader(strings.TrimSpace(r.Header.Get("Authorization")))
	return key
}

// TokenKeyFromRequest returns the raw token key of the Authorization header,
// or "" when the request is anonymous.
func TokenKeyFromRequest(r *http.Request) string {
	return extractTokenKey(r)
}

// PrincipalFromContext returns the authenticated principal, or nil for an
// anonymous request.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	if v := ctx.Value(PrincipalKey); v != nil {
		if p, ok := v.(*model.Principal); ok {
			return p
		}
	}
	return nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	_ = httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
		Error: message,
	})
}
