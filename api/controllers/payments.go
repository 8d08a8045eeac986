package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

type addTenderRequest struct {
	MethodID    uuid.UUID `json:"method_id" validate:"required"`
	MethodName  string    `json:"method_name" validate:"required,max=100"`
	AmountCents int64     `json:"amount_cents" validate:"min=0"`
	Reference   string    `json:"reference" validate:"omitempty,max=100"`
}

// TenderAdd appends a payment row. A zero amount defaults to the
// remaining balance.
func TenderAdd(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addTenderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry := payments.Tender{
			MethodID:    payload.MethodID,
			MethodName:  payload.MethodName,
			AmountCents: payload.AmountCents,
			Reference:   validators.SanitizeString(payload.Reference, 100),
		}
		if err := engine.AddTender(entry); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// TenderRemove drops a payment row by position.
func TenderRemove(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		idx, err := validators.ParseQueryInt(r, "index", -1, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if idx < 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "index query parameter is required"))
			return
		}

		engine.RemoveTender(idx)
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// SaleSubmit validates the order and posts it to the backend. The cart
// clears only on success.
func SaleSubmit(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := engine.Submit(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
