package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUnitPriceTierResolution(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	book := NewBook([]Item{
		{ProductID: productID, MinQty: 5, UnitPriceCents: 9000},
		{ProductID: productID, MinQty: 10, UnitPriceCents: 8000},
	})

	require.EqualValues(t, 10000, book.UnitPrice(productID, 3, 10000))
	require.EqualValues(t, 9000, book.UnitPrice(productID, 5, 10000))
	require.EqualValues(t, 8000, book.UnitPrice(productID, 12, 10000))
}

func TestUnitPriceUnknownProductFallsBack(t *testing.T) {
	t.Parallel()

	book := NewBook([]Item{{ProductID: uuid.New(), MinQty: 2, UnitPriceCents: 100}})
	require.EqualValues(t, 555, book.UnitPrice(uuid.New(), 10, 555))
}

func TestNilAndEmptyBookUseBasePrice(t *testing.T) {
	t.Parallel()

	var nilBook *Book
	require.EqualValues(t, 250, nilBook.UnitPrice(uuid.New(), 4, 250))

	empty := NewBook(nil)
	require.EqualValues(t, 250, empty.UnitPrice(uuid.New(), 4, 250))
}

func TestNewBookClampsNonPositiveMinQty(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	book := NewBook([]Item{
		{ProductID: productID, MinQty: 0, UnitPriceCents: 700},
	})
	require.EqualValues(t, 700, book.UnitPrice(productID, 1, 1000))

	tiers := book.Tiers(productID)
	require.Len(t, tiers, 1)
	require.Equal(t, 1, tiers[0].MinQty)
}
