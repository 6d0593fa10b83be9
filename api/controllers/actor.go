package controllers

import (
	"net/http"

	"github.com/refurbmart/refurbmart-backend/api/middleware"
	"github.com/refurbmart/refurbmart-backend/pkg/auth"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

// RequireActor returns the authenticated caller or an UNAUTHORIZED error.
func RequireActor(r *http.Request) (auth.Actor, error) {
	actor := middleware.ActorFromContext(r.Context())
	if !actor.Valid() {
		return auth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}
