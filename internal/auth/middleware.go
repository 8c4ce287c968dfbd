package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"inventory-api/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const UserIDContextKey ContextKey = "user_id"

// Middleware handles authentication for protected routes.
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth validates the session token. The cookie is the primary
// transport; an Authorization header works for non-browser clients.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := GetSessionTokenFromCookie(r)
		if err != nil || token == "" {
			authHeader := r.Header.Get("Authorization")
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		if token == "" {
			httputil.RespondError(w, "Not authorized, please login", http.StatusUnauthorized)
			return
		}

		userID, err := m.tokenService.VerifyToken(token)
		if err != nil {
			httputil.RespondError(w, "Not authorized, please login", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts the authenticated user id from the request context.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return userID, ok
}
