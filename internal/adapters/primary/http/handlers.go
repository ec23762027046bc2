package http

import (
	"net/http"

	mw "github.com/lorrc/chamados/internal/adapters/primary/http/middleware"
	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
)

// actorFromRequest returns the caller identity set by the JWT middleware.
func actorFromRequest(r *http.Request) (domain.Actor, error) {
	claims, ok := mw.ClaimsFromContext(r.Context())
	if !ok {
		return domain.Actor{}, apperrors.ErrUnauthorized
	}
	return claims.Actor(), nil
}
