package tax

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func pct(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestResolveNonTaxableProduct(t *testing.T) {
	t.Parallel()

	res := Resolve(ProductInfo{Taxable: false}, []Rate{{ID: uuid.New(), Percentage: pct("19")}}, nil)
	require.False(t, res.Taxable)
	require.True(t, res.Percentage.IsZero())
	require.Nil(t, res.RateID)
}

func TestResolveProductRateIDWins(t *testing.T) {
	t.Parallel()

	target := Rate{ID: uuid.New(), Percentage: pct("10.5")}
	other := Rate{ID: uuid.New(), Percentage: pct("21"), IsDefault: true}
	explicit := pct("7")

	res := Resolve(ProductInfo{Taxable: true, RateID: &target.ID, Percentage: &explicit}, []Rate{other, target}, &other.ID)
	require.True(t, res.Taxable)
	require.NotNil(t, res.RateID)
	require.Equal(t, target.ID, *res.RateID)
	require.True(t, res.Percentage.Equal(pct("10.5")))
}

func TestResolveExplicitPercentageIsUntracked(t *testing.T) {
	t.Parallel()

	explicit := pct("7")
	unknown := uuid.New()

	res := Resolve(ProductInfo{Taxable: true, RateID: &unknown, Percentage: &explicit}, []Rate{{ID: uuid.New(), Percentage: pct("19")}}, nil)
	require.True(t, res.Taxable)
	require.Nil(t, res.RateID)
	require.True(t, res.Percentage.Equal(explicit))
}

func TestResolveConfiguredDefault(t *testing.T) {
	t.Parallel()

	def := Rate{ID: uuid.New(), Percentage: pct("19")}
	res := Resolve(ProductInfo{Taxable: true}, []Rate{def}, &def.ID)
	require.NotNil(t, res.RateID)
	require.Equal(t, def.ID, *res.RateID)
}

func TestResolveFlaggedDefaultThenFirst(t *testing.T) {
	t.Parallel()

	first := Rate{ID: uuid.New(), Percentage: pct("5")}
	flagged := Rate{ID: uuid.New(), Percentage: pct("19"), IsDefault: true}

	res := Resolve(ProductInfo{Taxable: true}, []Rate{first, flagged}, nil)
	require.Equal(t, flagged.ID, *res.RateID)

	res = Resolve(ProductInfo{Taxable: true}, []Rate{first}, nil)
	require.Equal(t, first.ID, *res.RateID)
}

func TestResolveNoRatesStaysTaxableAtZero(t *testing.T) {
	t.Parallel()

	// Deliberate behavior: a taxable product with no resolvable rate keeps
	// its taxable flag at 0%.
	res := Resolve(ProductInfo{Taxable: true}, nil, nil)
	require.True(t, res.Taxable)
	require.True(t, res.Percentage.IsZero())
	require.Nil(t, res.RateID)
}
