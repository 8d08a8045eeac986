package controllers

import (
	"net/http"

	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

// SessionOpen starts a register session with an empty draft order.
func SessionOpen(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if registry == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session registry unavailable"))
			return
		}

		engine, err := registry.Open(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithSessionID(r.Context(), engine.SessionID().String())
		logg.Info(ctx, "session.opened")
		responses.WriteSuccessStatus(w, http.StatusCreated, engine.Snapshot())
	}
}

// SessionClose drops a session and its draft order.
func SessionClose(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := pathUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		registry.Close(sessionID)
		responses.WriteSuccess(w, map[string]string{"status": "closed"})
	}
}
