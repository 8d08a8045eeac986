package promo

import (
	"sort"
	"time"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineView is the snapshot of one cart line the evaluator works against.
type LineView struct {
	ProductID       uuid.UUID
	CategoryID      *uuid.UUID
	BrandID         *uuid.UUID
	CustomFields    []string
	Qty             int
	NetCents        int64
	IsPackComponent bool
}

// Context carries the cart-level facts promotions are matched against.
type Context struct {
	Now          time.Time
	Channel      string
	CustomerName string
	EmployeeName string
}

// Override replaces a line's unit price with a promotion target price.
type Override struct {
	TargetUnitPriceCents int64
	SavingsCents         int64
}

// Applied records one promotion that produced an effect.
type Applied struct {
	ID          uuid.UUID
	Name        string
	Type        enums.PromotionType
	AmountCents int64
}

// Result is the outcome of one evaluation pass over the cart snapshot.
type Result struct {
	TotalDiscountCents int64
	Applied            []Applied
	Overrides          map[int]Override
}

// Active reports whether any promotion effect is in force; callers use it
// to disable manual line and global discounts.
func (r Result) Active() bool {
	return r.TotalDiscountCents > 0 || len(r.Overrides) > 0
}

// Evaluate scans enabled promotions in priority order against the cart
// snapshot. A non-stackable promotion that produces an effect stops the
// scan; stackable promotions accumulate.
func Evaluate(promotions []Promotion, lines []LineView, evalCtx Context) Result {
	result := Result{Overrides: map[int]Override{}}

	ordered := make([]Promotion, 0, len(promotions))
	for _, p := range promotions {
		if p.Enabled {
			ordered = append(ordered, p)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for _, p := range ordered {
		matched := eligibleLineIndexes(p, lines, evalCtx)
		if matched == nil {
			continue
		}

		produced := false
		switch p.Type {
		case enums.PromotionTypeFixedPrice:
			savings := applyFixedPrice(p, lines, matched, result.Overrides)
			if savings > 0 {
				result.Applied = append(result.Applied, Applied{ID: p.ID, Name: p.Name, Type: p.Type, AmountCents: savings})
				produced = true
			}
		case enums.PromotionTypePercentage, enums.PromotionTypeAmount:
			discount := subtotalDiscount(p, lines, matched)
			if discount > 0 {
				result.TotalDiscountCents += discount
				result.Applied = append(result.Applied, Applied{ID: p.ID, Name: p.Name, Type: p.Type, AmountCents: discount})
				produced = true
			}
		}

		if produced && !p.Stackable {
			break
		}
	}

	return result
}

// eligibleLineIndexes runs the full eligibility gauntlet. It returns nil
// when the promotion does not apply, and the matched line indexes when
// it does (all lines for promotions without an item scope).
func eligibleLineIndexes(p Promotion, lines []LineView, evalCtx Context) []int {
	if !p.WithinWindow(evalCtx.Now) {
		return nil
	}
	if len(p.Scope.Days) > 0 && !containsFold(p.Scope.Days, p.DayCode(evalCtx.Now)) {
		return nil
	}
	if len(p.Scope.Channels) > 0 && !containsFold(p.Scope.Channels, evalCtx.Channel) {
		return nil
	}
	if len(p.Scope.Customers) > 0 {
		if evalCtx.CustomerName == "" || !containsFold(p.Scope.Customers, evalCtx.CustomerName) {
			return nil
		}
	}
	if len(p.Scope.Employees) > 0 {
		if evalCtx.EmployeeName == "" || !containsFold(p.Scope.Employees, evalCtx.EmployeeName) {
			return nil
		}
	}

	matched := make([]int, 0, len(lines))
	matchedQty := 0
	for i, line := range lines {
		// components carry no price of their own, only the parent counts
		if line.IsPackComponent {
			continue
		}
		if !lineMatchesScope(p.Scope, line) {
			continue
		}
		matched = append(matched, i)
		matchedQty += line.Qty
	}
	if len(matched) == 0 {
		return nil
	}
	if p.MinQty > 0 && matchedQty < p.MinQty {
		return nil
	}
	return matched
}

func lineMatchesScope(scope Scope, line LineView) bool {
	if !scope.HasItemScope() {
		return true
	}
	if len(scope.Products) > 0 && containsUUID(scope.Products, line.ProductID) {
		return true
	}
	if len(scope.Categories) > 0 && line.CategoryID != nil && containsUUID(scope.Categories, *line.CategoryID) {
		return true
	}
	if len(scope.Brands) > 0 && line.BrandID != nil && containsUUID(scope.Brands, *line.BrandID) {
		return true
	}
	if len(scope.CustomFields) > 0 {
		for _, field := range line.CustomFields {
			if containsFold(scope.CustomFields, field) {
				return true
			}
		}
	}
	return false
}

// applyFixedPrice records target-price overrides for every matched line
// whose current net unit price sits above the target. An existing
// override is only replaced by a strictly lower target; an equal target
// accumulates savings.
func applyFixedPrice(p Promotion, lines []LineView, matched []int, overrides map[int]Override) int64 {
	target := p.ValueCents()
	var total int64
	for _, idx := range matched {
		line := lines[idx]
		if line.Qty <= 0 {
			continue
		}
		savings := line.NetCents - target*int64(line.Qty)
		if savings <= 0 {
			continue
		}

		existing, ok := overrides[idx]
		switch {
		case !ok:
			overrides[idx] = Override{TargetUnitPriceCents: target, SavingsCents: savings}
			total += savings
		case target < existing.TargetUnitPriceCents:
			overrides[idx] = Override{TargetUnitPriceCents: target, SavingsCents: savings}
			total += savings
		case target == existing.TargetUnitPriceCents:
			existing.SavingsCents += savings
			overrides[idx] = existing
			total += savings
		}
	}
	return total
}

func subtotalDiscount(p Promotion, lines []LineView, matched []int) int64 {
	var subtotal int64
	for _, idx := range matched {
		if lines[idx].NetCents > 0 {
			subtotal += lines[idx].NetCents
		}
	}
	if subtotal <= 0 {
		return 0
	}

	switch p.Type {
	case enums.PromotionTypePercentage:
		pct := p.Value
		if pct.IsNegative() {
			return 0
		}
		hundred := decimal.NewFromInt(100)
		if pct.GreaterThan(hundred) {
			pct = hundred
		}
		return decimal.NewFromInt(subtotal).Mul(pct).Div(hundred).Round(0).IntPart()
	case enums.PromotionTypeAmount:
		amount := p.ValueCents()
		if amount > subtotal {
			return subtotal
		}
		if amount < 0 {
			return 0
		}
		return amount
	}
	return 0
}
