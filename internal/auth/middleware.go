// internal/auth/middleware.go
// Bearer token authentication for the matching API

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/mye-app/mye-backend/internal/common/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// TokenValidator turns a raw bearer token into claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
}

// HMACValidator validates tokens signed with a shared secret.
type HMACValidator struct {
	secret string
}

// NewHMACValidator creates a validator for HS256 tokens
func NewHMACValidator(secret string) *HMACValidator {
	return &HMACValidator{secret: secret}
}

// ValidateToken implements TokenValidator
func (v *HMACValidator) ValidateToken(_ context.Context, token string) (*utils.JWTClaims, error) {
	return utils.ValidateJWT(token, v.secret)
}

// Middleware provides authentication middleware
type Middleware struct {
	validator TokenValidator
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(validator TokenValidator) *Middleware {
	return &Middleware{validator: validator}
}

// Authenticate verifies the JWT token and adds the caller's user id to the
// request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			utils.ErrorResponse(w, "Missing or invalid authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := m.validator.ValidateToken(r.Context(), token)
		if err != nil {
			utils.ErrorResponse(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		if claims.Type != utils.TokenTypeAccess {
			utils.ErrorResponse(w, "Invalid token type", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
	})
}

// extractToken supports "Bearer <token>" and, for websocket upgrades where
// browsers cannot set headers, a token query parameter.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			return r.URL.Query().Get("token")
		}
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}
