package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/response"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/user"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// TokenVerifier validates a JWT and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*user.Claims, error)
}

// Auth provides JWT authentication and role-checking middleware.
type Auth struct {
	verifier TokenVerifier
}

// NewAuth creates a new Auth middleware.
func NewAuth(v TokenVerifier) *Auth {
	return &Auth{verifier: v}
}

// Authenticate validates the Bearer token and sets user_id and role in
// the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		claims, err := a.verifier.VerifyToken(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid or expired token", nil)
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid token subject", nil)
			return
		}

		ctx := SetUserID(r.Context(), userID)
		ctx = SetRole(ctx, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects requests whose token does not carry the admin role.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetRole(r)
		if !ok || role != models.RoleAdmin {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions", nil)
			return
		}
		next.ServeHTTP(w, r)
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
