package promo

import (
	"strings"
	"time"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Scope restricts which carts and lines a promotion is allowed to touch.
// Empty sets impose no restriction.
type Scope struct {
	Categories   []uuid.UUID
	Products     []uuid.UUID
	Brands       []uuid.UUID
	Customers    []string
	Employees    []string
	Channels     []string
	Days         []string
	CustomFields []string
}

// HasItemScope reports whether the promotion restricts individual lines.
func (s Scope) HasItemScope() bool {
	return len(s.Categories) > 0 || len(s.Products) > 0 || len(s.Brands) > 0 || len(s.CustomFields) > 0
}

// Promotion is one rule loaded from the backend, read-only during evaluation.
type Promotion struct {
	ID        uuid.UUID
	Name      string
	Enabled   bool
	Type      enums.PromotionType
	Value     decimal.Decimal
	Priority  int
	Stackable bool
	MinQty    int
	Scope     Scope
	StartAt   *time.Time
	EndAt     *time.Time
	Timezone  string
}

// ValueCents interprets the promotion value as a currency amount.
func (p Promotion) ValueCents() int64 {
	return p.Value.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (p Promotion) location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WithinWindow checks the optional start/end window in the promotion's zone.
func (p Promotion) WithinWindow(now time.Time) bool {
	local := now.In(p.location())
	if p.StartAt != nil && local.Before(p.StartAt.In(p.location())) {
		return false
	}
	if p.EndAt != nil && local.After(p.EndAt.In(p.location())) {
		return false
	}
	return true
}

// DayCode returns the lowercase three-letter day code for now in the
// promotion's zone, e.g. "mon".
func (p Promotion) DayCode(now time.Time) string {
	return strings.ToLower(now.In(p.location()).Format("Mon"))
}

func containsFold(set []string, value string) bool {
	for _, entry := range set {
		if strings.EqualFold(strings.TrimSpace(entry), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

func containsUUID(set []uuid.UUID, id uuid.UUID) bool {
	for _, entry := range set {
		if entry == id {
			return true
		}
	}
	return false
}
