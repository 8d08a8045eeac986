package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

func engineFromRequest(registry *cart.Registry, r *http.Request) (*cart.Engine, error) {
	sessionID, err := pathUUID(r, "sessionID")
	if err != nil {
		return nil, err
	}
	return registry.Get(sessionID)
}
