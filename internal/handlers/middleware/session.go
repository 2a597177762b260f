package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/handlers/render"
	"github.com/nkiryanov/trippit/internal/handlers/sessionctx"
	"github.com/nkiryanov/trippit/internal/models"
)

type sessionStore interface {
	Get(ctx context.Context, token string) (models.Session, error)
}

// Read session token from 'Authorization: Bearer <token>' header
func BearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// Put session of the request to context or answer 401
func SessionMiddleware(sessions sessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			s, err := sessions.Get(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, apperrors.ErrSessionExpired):
				render.ServiceError(w, "Session expired", http.StatusUnauthorized)
				return
			case errors.Is(err, apperrors.ErrSessionNotFound):
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			default:
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			ctx := sessionctx.New(r.Context(), s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
