package promo

import (
	"testing"
	"time"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func value(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func basicLine(qty int, netCents int64) LineView {
	return LineView{ProductID: uuid.New(), Qty: qty, NetCents: netCents}
}

func evalContext() Context {
	return Context{
		Now:     time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC), // a Monday
		Channel: "pos",
	}
}

func TestEvaluateStackablePromotionsBothApply(t *testing.T) {
	t.Parallel()

	lines := []LineView{basicLine(1, 10000)}
	promos := []Promotion{
		{ID: uuid.New(), Name: "ten off", Enabled: true, Type: enums.PromotionTypePercentage, Value: value("10"), Priority: 10, Stackable: true},
		{ID: uuid.New(), Name: "fixed fifty", Enabled: true, Type: enums.PromotionTypeFixedPrice, Value: value("50"), Priority: 5, Stackable: true},
	}

	res := Evaluate(promos, lines, evalContext())
	require.EqualValues(t, 1000, res.TotalDiscountCents)
	require.Len(t, res.Applied, 2)
	require.Len(t, res.Overrides, 1)
	require.EqualValues(t, 5000, res.Overrides[0].TargetUnitPriceCents)
	require.EqualValues(t, 5000, res.Overrides[0].SavingsCents)
	require.True(t, res.Active())
}

func TestEvaluateNonStackableSuppressesLowerPriority(t *testing.T) {
	t.Parallel()

	lines := []LineView{basicLine(1, 10000)}
	promos := []Promotion{
		{ID: uuid.New(), Name: "fixed fifty", Enabled: true, Type: enums.PromotionTypeFixedPrice, Value: value("50"), Priority: 5, Stackable: true},
		{ID: uuid.New(), Name: "ten off", Enabled: true, Type: enums.PromotionTypePercentage, Value: value("10"), Priority: 10, Stackable: false},
	}

	res := Evaluate(promos, lines, evalContext())
	require.EqualValues(t, 1000, res.TotalDiscountCents)
	require.Len(t, res.Applied, 1)
	require.Empty(t, res.Overrides)
}

func TestEvaluateDisabledAndWindowedPromotionsSkipped(t *testing.T) {
	t.Parallel()

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	lines := []LineView{basicLine(1, 10000)}
	promos := []Promotion{
		{ID: uuid.New(), Enabled: false, Type: enums.PromotionTypePercentage, Value: value("50")},
		{ID: uuid.New(), Enabled: true, Type: enums.PromotionTypePercentage, Value: value("50"), EndAt: &past},
	}

	res := Evaluate(promos, lines, evalContext())
	require.False(t, res.Active())
}

func TestEvaluateDayAndChannelScope(t *testing.T) {
	t.Parallel()

	lines := []LineView{basicLine(1, 10000)}
	monday := Promotion{ID: uuid.New(), Enabled: true, Type: enums.PromotionTypePercentage, Value: value("10"), Scope: Scope{Days: []string{"mon"}}}
	sunday := Promotion{ID: uuid.New(), Enabled: true, Type: enums.PromotionTypePercentage, Value: value("10"), Scope: Scope{Days: []string{"sun"}}}
	webOnly := Promotion{ID: uuid.New(), Enabled: true, Type: enums.PromotionTypePercentage, Value: value("10"), Scope: Scope{Channels: []string{"web"}}}

	require.True(t, Evaluate([]Promotion{monday}, lines, evalContext()).Active())
	require.False(t, Evaluate([]Promotion{sunday}, lines, evalContext()).Active())
	require.False(t, Evaluate([]Promotion{webOnly}, lines, evalContext()).Active())
}

func TestEvaluateCustomerScopeRequiresSelectedCustomer(t *testing.T) {
	t.Parallel()

	lines := []LineView{basicLine(1, 10000)}
	promo := Promotion{ID: uuid.New(), Enabled: true, Type: enums.PromotionTypePercentage, Value: value("10"), Scope: Scope{Customers: []string{"Jane Doe"}}}

	anonymous := evalContext()
	require.False(t, Evaluate([]Promotion{promo}, lines, anonymous).Active())

	named := evalContext()
	named.CustomerName = "jane doe"
	require.True(t, Evaluate([]Promotion{promo}, lines, named).Active())
}

func TestEvaluateItemScopeAndMinQty(t *testing.T) {
	t.Parallel()

	scopedProduct := uuid.New()
	lines := []LineView{
		{ProductID: scopedProduct, Qty: 2, NetCents: 4000},
		{ProductID: uuid.New(), Qty: 10, NetCents: 9000},
	}
	promo := Promotion{
		ID:      uuid.New(),
		Enabled: true,
		Type:    enums.PromotionTypePercentage,
		Value:   value("50"),
		MinQty:  3,
		Scope:   Scope{Products: []uuid.UUID{scopedProduct}},
	}

	// Only the scoped line counts toward the minimum quantity.
	require.False(t, Evaluate([]Promotion{promo}, lines, evalContext()).Active())

	promo.MinQty = 2
	res := Evaluate([]Promotion{promo}, lines, evalContext())
	require.EqualValues(t, 2000, res.TotalDiscountCents)
}

func TestEvaluatePackComponentsDoNotCountTowardMinQty(t *testing.T) {
	t.Parallel()

	lines := []LineView{
		{ProductID: uuid.New(), Qty: 1, NetCents: 5000},
		{ProductID: uuid.New(), Qty: 6, NetCents: 0, IsPackComponent: true},
	}
	promo := Promotion{ID: uuid.New(), Enabled: true, Type: enums.PromotionTypePercentage, Value: value("10"), MinQty: 3}

	require.False(t, Evaluate([]Promotion{promo}, lines, evalContext()).Active())

	promo.MinQty = 1
	res := Evaluate([]Promotion{promo}, lines, evalContext())
	require.EqualValues(t, 500, res.TotalDiscountCents)
}

func TestEvaluateAmountPromotionClampedToSubtotal(t *testing.T) {
	t.Parallel()

	lines := []LineView{basicLine(1, 500)}
	promo := Promotion{ID: uuid.New(), Enabled: true, Type: enums.PromotionTypeAmount, Value: value("100")}

	res := Evaluate([]Promotion{promo}, lines, evalContext())
	require.EqualValues(t, 500, res.TotalDiscountCents)
}

func TestEvaluateFixedPriceOverrideReplacement(t *testing.T) {
	t.Parallel()

	lines := []LineView{basicLine(2, 20000)}
	higher := Promotion{ID: uuid.New(), Name: "eighty", Enabled: true, Type: enums.PromotionTypeFixedPrice, Value: value("80"), Priority: 10, Stackable: true}
	lower := Promotion{ID: uuid.New(), Name: "sixty", Enabled: true, Type: enums.PromotionTypeFixedPrice, Value: value("60"), Priority: 5, Stackable: true}

	res := Evaluate([]Promotion{higher, lower}, lines, evalContext())
	require.EqualValues(t, 6000, res.Overrides[0].TargetUnitPriceCents)

	// A later, higher target does not displace the lower one.
	res = Evaluate([]Promotion{lower, higher}, lines, Context{Now: evalContext().Now, Channel: "pos"})
	require.EqualValues(t, 6000, res.Overrides[0].TargetUnitPriceCents)
}

func TestEvaluateFixedPriceEqualTargetsAccumulateSavings(t *testing.T) {
	t.Parallel()

	lines := []LineView{basicLine(1, 10000)}
	a := Promotion{ID: uuid.New(), Enabled: true, Type: enums.PromotionTypeFixedPrice, Value: value("70"), Priority: 10, Stackable: true}
	b := Promotion{ID: uuid.New(), Enabled: true, Type: enums.PromotionTypeFixedPrice, Value: value("70"), Priority: 5, Stackable: true}

	res := Evaluate([]Promotion{a, b}, lines, evalContext())
	require.EqualValues(t, 7000, res.Overrides[0].TargetUnitPriceCents)
	require.EqualValues(t, 6000, res.Overrides[0].SavingsCents)
}

func TestEvaluatePriorityTiesKeepStableOrder(t *testing.T) {
	t.Parallel()

	lines := []LineView{basicLine(1, 10000)}
	first := Promotion{ID: uuid.New(), Name: "first", Enabled: true, Type: enums.PromotionTypePercentage, Value: value("10"), Priority: 5, Stackable: false}
	second := Promotion{ID: uuid.New(), Name: "second", Enabled: true, Type: enums.PromotionTypePercentage, Value: value("20"), Priority: 5, Stackable: false}

	res := Evaluate([]Promotion{first, second}, lines, evalContext())
	require.Len(t, res.Applied, 1)
	require.Equal(t, "first", res.Applied[0].Name)
}
