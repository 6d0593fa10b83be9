package middleware

import (
	"net/http"
	"strings"

	"github.com/refurbmart/refurbmart-backend/api/responses"
	pkgAuth "github.com/refurbmart/refurbmart-backend/pkg/auth"
	"github.com/refurbmart/refurbmart-backend/pkg/config"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
	"github.com/refurbmart/refurbmart-backend/pkg/logger"
)

// Auth validates a bearer token issued by the identity service and seeds
// the request context with the caller.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := claims.Actor()
			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"account_id": actor.AccountID.String(),
					"actor_role": string(actor.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
