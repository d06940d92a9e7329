package middleware

import (
	"net/http"
	"strings"

	"github.com/seqlabs/genoportal/internal/api/response"
	"github.com/seqlabs/genoportal/internal/session"
)

// Auth provides session-token authentication middleware.
type Auth struct {
	sessions session.Store
}

// NewAuth creates a new Auth middleware.
func NewAuth(sessions session.Store) *Auth {
	return &Auth{sessions: sessions}
}

// Authenticate validates the Bearer session token and sets the session in
// the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"NO_SESSION", "Missing or invalid Authorization header", nil)
			return
		}

		sess, ok, err := a.sessions.Get(r.Context(), token)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to validate session", nil)
			return
		}
		if !ok {
			response.Error(w, http.StatusUnauthorized,
				"NO_SESSION", "Session expired or unknown", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetSession(r.Context(), sess)))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
