package cart

import (
	"github.com/angelmondragon/tillpoint-backend/internal/promo"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineTotals is the computed money breakdown for one line. All amounts
// are integer minor units. TotalCents is always BaseCents + TaxCents.
type LineTotals struct {
	GrossCents    int64           `json:"gross_cents"`
	DiscountCents int64           `json:"discount_cents"`
	NetCents      int64           `json:"net_cents"`
	BaseCents     int64           `json:"base_cents"`
	TaxCents      int64           `json:"tax_cents"`
	TotalCents    int64           `json:"total_cents"`
	RatePct       decimal.Decimal `json:"rate_pct"`
}

// ComputeLine produces the money breakdown for one line. When a
// promotion override is present its target price replaces the line's
// unit price. The function is pure: identical inputs yield identical
// output.
func ComputeLine(line Line, override *promo.Override, pricesIncludeTax bool) LineTotals {
	unit := line.UnitPriceCents
	if override != nil {
		unit = override.TargetUnitPriceCents
	}

	gross := unit * int64(line.Quantity)
	if gross < 0 {
		gross = 0
	}

	discount := lineDiscount(gross, line.DiscountType, line.DiscountValue)
	net := gross - discount
	if net < 0 {
		net = 0
	}

	totals := LineTotals{
		GrossCents:    gross,
		DiscountCents: discount,
		NetCents:      net,
		RatePct:       line.Tax.Percentage,
	}

	if !line.Tax.Taxable || line.Tax.Percentage.IsZero() || net == 0 {
		totals.BaseCents = net
		totals.TotalCents = net
		return totals
	}

	netD := decimal.NewFromInt(net)
	rate := line.Tax.Percentage.Div(hundred)
	if pricesIncludeTax {
		base := netD.Div(decimal.NewFromInt(1).Add(rate)).Round(0).IntPart()
		totals.BaseCents = base
		totals.TaxCents = net - base
		totals.TotalCents = net
	} else {
		tax := netD.Mul(rate).Round(0).IntPart()
		totals.BaseCents = net
		totals.TaxCents = tax
		totals.TotalCents = net + tax
	}
	return totals
}

// lineDiscount clamps a percent discount to [0,100] of gross and caps an
// amount discount at gross.
func lineDiscount(gross int64, kind enums.DiscountType, value decimal.Decimal) int64 {
	if gross <= 0 || value.IsZero() || value.IsNegative() {
		return 0
	}
	switch kind {
	case enums.DiscountTypePercentage:
		pct := value
		if pct.GreaterThan(hundred) {
			pct = hundred
		}
		return decimal.NewFromInt(gross).Mul(pct).Div(hundred).Round(0).IntPart()
	case enums.DiscountTypeAmount:
		amount := value.Mul(hundred).Round(0).IntPart()
		if amount > gross {
			return gross
		}
		return amount
	}
	return 0
}
