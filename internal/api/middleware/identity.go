package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/ec-cart/internal/auth"
	"github.com/example/ec-cart/internal/domain/cart"
	"github.com/google/uuid"
)

const SessionCookieName = "cart_session"

type contextKey string

const ownerContextKey contextKey = "cart_owner"

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ExtractToken extracts JWT token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// ResolveOwner resolves the cart owner exactly once per request: a valid JWT
// yields a user identity; otherwise the session cookie is used, issued here
// if the browser does not have one yet. A request with a token that fails
// validation is rejected rather than silently downgraded to a session.
func ResolveOwner(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var owner cart.Owner

			if tokenString := ExtractToken(r); tokenString != "" {
				claims, err := jwtService.ValidateAccessToken(tokenString)
				if err != nil {
					respondError(w, "invalid token", http.StatusUnauthorized)
					return
				}
				owner = cart.UserOwner(claims.UserID)
			} else if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				owner = cart.SessionOwner(cookie.Value)
			} else {
				sessionID := uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				owner = cart.SessionOwner(sessionID)
			}

			if !owner.Valid() {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ownerContextKey, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetOwner retrieves the resolved cart owner from the request context.
func GetOwner(ctx context.Context) (cart.Owner, bool) {
	owner, ok := ctx.Value(ownerContextKey).(cart.Owner)
	return owner, ok
}
