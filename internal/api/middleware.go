// Package api implements the propscope REST API using chi.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/propscope/internal/apperr"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/userdata"
)

// SessionHeader carries the demo session token returned by POST /session.
const SessionHeader = "X-Session-Token"

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type userCtxKey struct{}

func withUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// userFrom returns the session user attached by SessionMiddleware.
func userFrom(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(models.User)
	return u, ok
}

func sessionToken(r *http.Request) string {
	if tok := r.Header.Get(SessionHeader); tok != "" {
		return tok
	}
	// EventSource cannot set headers.
	return r.URL.Query().Get("session")
}

// SessionMiddleware resolves the session token to a user. With required set,
// requests without a valid session are rejected; otherwise they continue
// anonymously.
func SessionMiddleware(users *userdata.Service, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := sessionToken(r)
			if tok == "" && !required {
				next.ServeHTTP(w, r)
				return
			}
			u, err := users.CurrentUser(r.Context(), tok)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
			case errors.Is(err, apperr.ErrUnauthorized) && !required:
				next.ServeHTTP(w, r)
			case errors.Is(err, apperr.ErrUnauthorized):
				writeJSON(w, http.StatusUnauthorized, errorBody("session required"))
			default:
				slog.Error("session lookup failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			}
		})
	}
}
