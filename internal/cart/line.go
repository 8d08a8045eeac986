package cart

import (
	"time"

	"github.com/angelmondragon/tillpoint-backend/internal/promo"
	"github.com/angelmondragon/tillpoint-backend/internal/tax"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one row of the draft order. Pack components get their own line
// id but share the parent's pack group id.
type Line struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	SKU          string
	CategoryID   *uuid.UUID
	BrandID      *uuid.UUID
	CustomFields []string

	Quantity       int
	UnitPriceCents int64
	BasePriceCents int64
	ManualPrice    bool

	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal

	Tax tax.Resolution

	LotTracked    bool
	SerialTracked bool
	LotID         *uuid.UUID
	LotNumber     string
	LotExpiresAt  *time.Time
	SerialID      *uuid.UUID
	SerialNumber  string

	PackRole    enums.PackRole
	PackGroupID *uuid.UUID
	// Multiplier is units of this component per one pack unit. Zero for
	// non-pack lines and pack parents.
	Multiplier int
}

// NeedsBinding reports whether the line still lacks its tracked lot or
// serial. A line needing a binding is not submittable.
func (l *Line) NeedsBinding() bool {
	if l.SerialTracked && l.SerialID == nil {
		return true
	}
	if l.LotTracked && l.LotID == nil {
		return true
	}
	return false
}

func (l *Line) promoView() promo.LineView {
	return promo.LineView{
		ProductID:       l.ProductID,
		CategoryID:      l.CategoryID,
		BrandID:         l.BrandID,
		CustomFields:    l.CustomFields,
		Qty:             l.Quantity,
		IsPackComponent: l.PackRole == enums.PackRoleComponent,
	}
}
