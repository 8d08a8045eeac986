package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

type bindLotRequest struct {
	LotID uuid.UUID `json:"lot_id" validate:"required"`
}

type bindSerialRequest struct {
	SerialID uuid.UUID `json:"serial_id" validate:"required"`
}

// PendingBinding returns the first line, in cart order, that still needs
// a lot or serial. The register resolves one binding at a time.
func PendingBinding(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line := engine.PendingBinding()
		if line == nil {
			responses.WriteSuccess(w, map[string]any{"pending": false})
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"pending":        true,
			"line_id":        line.ID,
			"product_id":     line.ProductID,
			"product_name":   line.ProductName,
			"lot_tracked":    line.LotTracked,
			"serial_tracked": line.SerialTracked,
		})
	}
}

// LotCandidates lists the lots a line may bind, FEFO ordered.
func LotCandidates(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := pathUUID(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lots, err := engine.LotCandidatesFor(r.Context(), lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lots)
	}
}

// SerialCandidates lists the in-stock serials a line may bind.
func SerialCandidates(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := pathUUID(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		serials, err := engine.SerialCandidatesFor(r.Context(), lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, serials)
	}
}

// BindLot binds a concrete lot to a lot-tracked line.
func BindLot(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := pathUUID(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bindLotRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.BindLot(r.Context(), lineID, payload.LotID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// BindSerial binds one serial unit to a serial-tracked line.
func BindSerial(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := pathUUID(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bindSerialRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.BindSerial(r.Context(), lineID, payload.SerialID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}
