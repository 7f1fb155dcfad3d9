package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/api/middleware"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
)

// requesterID extracts the authenticated user id placed in the context by
// the auth middleware.
func requesterID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return parsed, nil
}
