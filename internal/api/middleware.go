package api

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	ctxKeyAccountID contextKey = "accountID"
	ctxKeyEmail     contextKey = "email"
)

// JWTAuthMiddleware validates the bearer token on protected routes. The
// header scheme is the standard Authorization: Bearer <token> everywhere.
// Failures are authorization failures (401), never generic errors.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		accountID, email, err := h.tokens.ValidateToken(tokenString)
		if err != nil {
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyAccountID, accountID)
		ctx = context.WithValue(ctx, ctxKeyEmail, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountIDFrom(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxKeyAccountID).(int64)
	return id
}

// CORSMiddleware sets the headers the browser frontend needs. Streaming
// responses pass through untouched apart from the origin headers.
func CORSMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
