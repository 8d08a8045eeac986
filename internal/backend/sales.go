package backend

import (
	"context"
	"time"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/google/uuid"
)

// SaleItem is one submitted line of a completed sale.
type SaleItem struct {
	ProductID       uuid.UUID  `json:"product_id"`
	Quantity        int        `json:"quantity"`
	UnitPriceCents  int64      `json:"unit_price_cents"`
	DiscountType    string     `json:"discount_type,omitempty"`
	DiscountValue   string     `json:"discount_value,omitempty"`
	TaxRateID       *uuid.UUID `json:"tax_rate_id,omitempty"`
	LotID           *uuid.UUID `json:"lot_id,omitempty"`
	SerialID        *uuid.UUID `json:"serial_id,omitempty"`
	PackGroup       *uuid.UUID `json:"pack_group_id,omitempty"`
	IsPackComponent bool       `json:"is_pack_component"`
}

// SalePayment is one tender row of a submitted sale.
type SalePayment struct {
	MethodID    uuid.UUID `json:"method_id"`
	AmountCents int64     `json:"amount_cents"`
	Reference   string    `json:"reference,omitempty"`
}

// SaleRequest is the submission payload for a completed draft order.
type SaleRequest struct {
	CustomerID    *uuid.UUID         `json:"customer_id,omitempty"`
	WarehouseID   uuid.UUID          `json:"warehouse_id"`
	DocumentType  enums.DocumentType `json:"document_type"`
	Items         []SaleItem         `json:"items"`
	DiscountType  string             `json:"discount_type,omitempty"`
	DiscountValue string             `json:"discount_value,omitempty"`
	Payments      []SalePayment      `json:"payments"`
}

// SaleResponse is the backend acknowledgment of a stored sale.
type SaleResponse struct {
	SaleID         uuid.UUID `json:"sale_id"`
	DocumentNumber string    `json:"document_number"`
}

// SubmitSale posts a completed draft order to the backend.
func (c *Client) SubmitSale(ctx context.Context, req SaleRequest) (*SaleResponse, error) {
	c.log(ctx, "request", "submit_sale", map[string]any{
		"warehouse_id": req.WarehouseID,
		"items":        len(req.Items),
		"payments":     len(req.Payments),
	})

	var resp SaleResponse
	if err := c.post(ctx, "/v1/sales", req, &resp); err != nil {
		return nil, err
	}

	c.log(ctx, "response", "submit_sale", map[string]any{"sale_id": resp.SaleID})
	return &resp, nil
}

// VerifyPIN checks a supervisor PIN for a privileged override. The
// collaborator's message is surfaced verbatim on failure.
func (c *Client) VerifyPIN(ctx context.Context, employeeID uuid.UUID, pin string) error {
	payload := map[string]string{
		"employee_id": employeeID.String(),
		"pin":         pin,
	}
	var resp struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/v1/auth/verify-pin", payload, &resp); err != nil {
		return err
	}
	if !resp.Valid {
		msg := resp.Message
		if msg == "" {
			msg = "pin verification failed"
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, msg)
	}
	return nil
}

// timeString decodes RFC 3339 timestamps and bare dates.
type timeString string

func (t *timeString) timePtr() *time.Time {
	if t == nil || *t == "" {
		return nil
	}
	raw := string(*t)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed
		}
	}
	return nil
}
