package cart

import (
	"time"

	"github.com/angelmondragon/tillpoint-backend/internal/payments"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/google/uuid"
)

// LineSnapshot is one line with its computed totals, as exposed to the
// API and the customer display.
type LineSnapshot struct {
	ID             uuid.UUID      `json:"id"`
	ProductID      uuid.UUID      `json:"product_id"`
	ProductName    string         `json:"product_name"`
	SKU            string         `json:"sku,omitempty"`
	Quantity       int            `json:"quantity"`
	UnitPriceCents int64          `json:"unit_price_cents"`
	DiscountType   string         `json:"discount_type,omitempty"`
	DiscountValue  string         `json:"discount_value,omitempty"`
	PackRole       enums.PackRole `json:"pack_role"`
	PackGroupID    *uuid.UUID     `json:"pack_group_id,omitempty"`
	LotNumber      string         `json:"lot_number,omitempty"`
	LotExpiresAt   *time.Time     `json:"lot_expires_at,omitempty"`
	SerialNumber   string         `json:"serial_number,omitempty"`
	NeedsBinding   bool           `json:"needs_binding"`
	Overridden     bool           `json:"promotion_override"`
	Totals         LineTotals     `json:"totals"`
}

// AppliedPromotion is one promotion effect visible on the snapshot.
type AppliedPromotion struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	AmountCents int64     `json:"amount_cents"`
}

// Snapshot is the full state of the draft order at one instant. The
// display side-channel and the HTTP layer both serialize it.
type Snapshot struct {
	SessionID       uuid.UUID          `json:"session_id"`
	WarehouseID     *uuid.UUID         `json:"warehouse_id,omitempty"`
	CustomerID      *uuid.UUID         `json:"customer_id,omitempty"`
	CustomerName    string             `json:"customer_name,omitempty"`
	DocumentType    enums.DocumentType `json:"document_type"`
	Lines           []LineSnapshot     `json:"lines"`
	Totals          OrderTotals        `json:"totals"`
	Promotions      []AppliedPromotion `json:"promotions,omitempty"`
	PromotionActive bool               `json:"promotion_active"`
	Tenders         []payments.Tender  `json:"tenders,omitempty"`
	RemainingCents  int64              `json:"remaining_cents"`
}

// Snapshot returns a copy of the current draft order state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:       e.sessionID,
		WarehouseID:     e.warehouseID,
		CustomerID:      e.customerID,
		CustomerName:    e.customerName,
		DocumentType:    e.documentType,
		Lines:           make([]LineSnapshot, len(e.lines)),
		Totals:          e.totals,
		PromotionActive: e.promoResult.Active(),
		Tenders:         append([]payments.Tender(nil), e.tenders...),
		RemainingCents:  e.reconciler.Remaining(e.totals.TotalCents, e.tenders),
	}

	for i := range e.lines {
		line := e.lines[i]
		_, overridden := e.promoResult.Overrides[i]
		ls := LineSnapshot{
			ID:             line.ID,
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			SKU:            line.SKU,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			PackRole:       line.PackRole,
			PackGroupID:    line.PackGroupID,
			LotNumber:      line.LotNumber,
			LotExpiresAt:   line.LotExpiresAt,
			SerialNumber:   line.SerialNumber,
			NeedsBinding:   line.NeedsBinding(),
			Overridden:     overridden,
		}
		if i < len(e.lineTotals) {
			ls.Totals = e.lineTotals[i]
		}
		if !line.DiscountValue.IsZero() {
			ls.DiscountType = line.DiscountType.String()
			ls.DiscountValue = line.DiscountValue.String()
		}
		snap.Lines[i] = ls
	}

	for _, applied := range e.promoResult.Applied {
		snap.Promotions = append(snap.Promotions, AppliedPromotion{
			ID:          applied.ID,
			Name:        applied.Name,
			AmountCents: applied.AmountCents,
		})
	}
	return snap
}
