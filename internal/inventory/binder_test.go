package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	lots    []Lot
	fefo    *Lot
	serials []Serial
	err     error
}

func (s *stubSource) Lots(context.Context, uuid.UUID, uuid.UUID) ([]Lot, error) {
	return s.lots, s.err
}

func (s *stubSource) FEFOLot(context.Context, uuid.UUID, uuid.UUID) (*Lot, error) {
	return s.fefo, s.err
}

func (s *stubSource) Serials(context.Context, uuid.UUID) ([]Serial, error) {
	return s.serials, s.err
}

func TestFEFOPicksSoonestExpiringWithStock(t *testing.T) {
	t.Parallel()

	now := time.Now()
	lots := []Lot{
		{ID: uuid.New(), Number: "L3", Quantity: 4, ExpiresAt: now.Add(72 * time.Hour)},
		{ID: uuid.New(), Number: "L1", Quantity: 0, ExpiresAt: now.Add(time.Hour)},
		{ID: uuid.New(), Number: "L2", Quantity: 2, ExpiresAt: now.Add(24 * time.Hour)},
	}

	picked := FEFO(lots)
	require.NotNil(t, picked)
	require.Equal(t, "L2", picked.Number)
}

func TestFEFOUnexpiringLotsSortLast(t *testing.T) {
	t.Parallel()

	lots := []Lot{
		{Number: "open", Quantity: 5},
		{Number: "dated", Quantity: 5, ExpiresAt: time.Now().Add(time.Hour)},
	}
	require.Equal(t, "dated", FEFO(lots).Number)

	require.Equal(t, "open", FEFO([]Lot{{Number: "open", Quantity: 1}}).Number)
	require.Nil(t, FEFO(nil))
	require.Nil(t, FEFO([]Lot{{Number: "empty", Quantity: 0}}))
}

func TestBinderGuardInvalidatesStaleGenerations(t *testing.T) {
	t.Parallel()

	binder := NewBinder(&stubSource{lots: []Lot{{Number: "L1", Quantity: 1}}})

	gen, lots, err := binder.LotCandidates(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.True(t, binder.Accept(gen))

	// Warehouse changed while the response was in flight.
	binder.Invalidate()
	require.False(t, binder.Accept(gen))
	require.True(t, binder.Accept(binder.Generation()))
}

func TestBinderSuggestLotFallsBackToLocalFEFO(t *testing.T) {
	t.Parallel()

	now := time.Now()
	src := &stubSource{lots: []Lot{
		{Number: "late", Quantity: 1, ExpiresAt: now.Add(48 * time.Hour)},
		{Number: "soon", Quantity: 1, ExpiresAt: now.Add(2 * time.Hour)},
	}}
	binder := NewBinder(src)

	_, lot, err := binder.SuggestLot(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, lot)
	require.Equal(t, "soon", lot.Number)
}

func TestBinderFetchFailureIsStateConflict(t *testing.T) {
	t.Parallel()

	binder := NewBinder(&stubSource{err: errors.New("backend down")})

	_, _, err := binder.SerialCandidates(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}
