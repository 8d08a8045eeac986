package tax

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rate is one configured tax rate as served by the backend.
type Rate struct {
	ID         uuid.UUID
	Name       string
	Percentage decimal.Decimal
	IsDefault  bool
}

// ProductInfo carries the taxability attributes a product declares.
type ProductInfo struct {
	Taxable    bool
	RateID     *uuid.UUID
	Percentage *decimal.Decimal
}

// Resolution is the effective tax treatment for a line.
type Resolution struct {
	RateID     *uuid.UUID
	Percentage decimal.Decimal
	Taxable    bool
}

// Resolve yields the effective rate for a product.
//
// Resolution order: non-taxable products are exempt outright; a known
// product rate id wins; an explicit product percentage is used untracked
// by id; then the configured default rate id; then the rate flagged
// default or the first known rate. A product that is taxable but matches
// nothing resolves to 0% while staying taxable. Callers that care
// should watch for that combination.
func Resolve(product ProductInfo, rates []Rate, defaultRateID *uuid.UUID) Resolution {
	if !product.Taxable {
		return Resolution{Percentage: decimal.Zero, Taxable: false}
	}

	if product.RateID != nil {
		if rate := rateByID(rates, *product.RateID); rate != nil {
			return Resolution{RateID: &rate.ID, Percentage: rate.Percentage, Taxable: true}
		}
	}

	if product.Percentage != nil {
		return Resolution{Percentage: *product.Percentage, Taxable: true}
	}

	if defaultRateID != nil {
		if rate := rateByID(rates, *defaultRateID); rate != nil {
			return Resolution{RateID: &rate.ID, Percentage: rate.Percentage, Taxable: true}
		}
	}

	for i := range rates {
		if rates[i].IsDefault {
			return Resolution{RateID: &rates[i].ID, Percentage: rates[i].Percentage, Taxable: true}
		}
	}
	if len(rates) > 0 {
		return Resolution{RateID: &rates[0].ID, Percentage: rates[0].Percentage, Taxable: true}
	}

	return Resolution{Percentage: decimal.Zero, Taxable: true}
}

func rateByID(rates []Rate, id uuid.UUID) *Rate {
	for i := range rates {
		if rates[i].ID == id {
			return &rates[i]
		}
	}
	return nil
}
