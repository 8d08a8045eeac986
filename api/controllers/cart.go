package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/types"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

type discountRequest struct {
	Type  string `json:"type" validate:"required,oneof=percentage amount"`
	Value string `json:"value" validate:"required"`
}

type customerRequest struct {
	// an explicit null customer_id detaches the customer
	CustomerID types.NullableUUID `json:"customer_id"`
	Name       string             `json:"name" validate:"omitempty,max=200"`
}

type warehouseRequest struct {
	WarehouseID uuid.UUID `json:"warehouse_id" validate:"required"`
}

type priceListRequest struct {
	PriceListID uuid.UUID `json:"price_list_id"`
}

type documentTypeRequest struct {
	DocumentType string `json:"document_type" validate:"required"`
}

type priceOverrideRequest struct {
	PriceCents int64     `json:"price_cents" validate:"min=0"`
	EmployeeID uuid.UUID `json:"employee_id" validate:"required"`
	PIN        string    `json:"pin" validate:"required"`
}

// CartFetch returns the current draft order snapshot.
func CartFetch(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// CartAddItem adds a product, expanding packs into their components.
func CartAddItem(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := engine.AddProduct(r.Context(), payload.ProductID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// CartSetQuantity changes a line's quantity; zero or below removes it.
func CartSetQuantity(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
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

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.SetQuantity(lineID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// CartRemoveItem deletes a line; for a pack member the whole group goes.
func CartRemoveItem(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
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
		engine.RemoveLine(lineID)
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// CartSetLineDiscount applies a manual discount to one line.
func CartSetLineDiscount(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
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

		kind, value, err := parseDiscount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.SetLineDiscount(lineID, kind, value); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// CartSetGlobalDiscount applies the single order-level discount.
func CartSetGlobalDiscount(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, value, err := parseDiscount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.SetGlobalDiscount(kind, value); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// CartClear empties the draft order.
func CartClear(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engine.Clear()
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// CartSetCustomer attaches or detaches the order's customer.
func CartSetCustomer(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload customerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID := uuid.Nil
		if payload.CustomerID.Valid && payload.CustomerID.Value != nil {
			customerID = *payload.CustomerID.Value
		}
		engine.SetCustomer(customerID, validators.SanitizeString(payload.Name, 200))
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// CartSetWarehouse selects the selling warehouse. Rejected while the
// cart holds items.
func CartSetWarehouse(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload warehouseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.SetWarehouse(payload.WarehouseID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// CartSetPriceList activates a tiered price list and reprices the cart.
func CartSetPriceList(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload priceListRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine.SetPriceList(r.Context(), payload.PriceListID)
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// CartSetDocumentType selects the fiscal document for submission.
func CartSetDocumentType(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFromRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload documentTypeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dt, err := enums.ParseDocumentType(payload.DocumentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document type"))
			return
		}

		if err := engine.SetDocumentType(dt); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// CartPriceOverride sets a custom unit price after PIN verification.
func CartPriceOverride(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
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

		var payload priceOverrideRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.ManualPriceOverride(r.Context(), lineID, payload.PriceCents, payload.EmployeeID, payload.PIN); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

func parseDiscount(r *http.Request) (enums.DiscountType, decimal.Decimal, error) {
	var payload discountRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return "", decimal.Zero, err
	}
	kind, err := enums.ParseDiscountType(payload.Type)
	if err != nil {
		return "", decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	value, err := decimal.NewFromString(payload.Value)
	if err != nil {
		return "", decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount value")
	}
	return kind, value, nil
}
