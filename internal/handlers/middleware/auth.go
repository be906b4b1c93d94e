package middleware

import (
	"context"
	"net/http"

	"github.com/nkazants/accounts-service/internal/handlers/render"
	"github.com/nkazants/accounts-service/internal/handlers/userctx"
	"github.com/nkazants/accounts-service/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware resolves the request access token to a user and puts it
// into the request context. Every failure is answered with the same
// unauthorized response, the reason is never exposed to the caller.
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Auth(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
