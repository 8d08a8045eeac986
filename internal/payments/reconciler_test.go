package payments

import (
	"testing"

	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func tender(name string, amount int64) Tender {
	return Tender{MethodID: uuid.New(), MethodName: name, AmountCents: amount}
}

func TestIsCashClassification(t *testing.T) {
	t.Parallel()

	r := NewReconciler(nil)
	require.True(t, r.IsCash("Cash"))
	require.True(t, r.IsCash("Caja - EFECTIVO"))
	require.True(t, r.IsCash("petty cash drawer"))
	require.False(t, r.IsCash("Visa Credit"))
	require.False(t, r.IsCash("Transfer"))
}

func TestReconcileAcceptsExactSplit(t *testing.T) {
	t.Parallel()

	r := NewReconciler(nil)
	tenders := []Tender{tender("cash", 60000), tender("card", 40000)}

	out, err := r.Reconcile(100000, tenders)
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestReconcileRejectsOverpayment(t *testing.T) {
	t.Parallel()

	r := NewReconciler(nil)
	tenders := []Tender{tender("cash", 60000), tender("card", 50000)}

	_, err := r.Reconcile(100000, tenders)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestReconcileRejectsTwoCashRows(t *testing.T) {
	t.Parallel()

	r := NewReconciler(nil)
	tenders := []Tender{tender("cash", 500), tender("efectivo", 500)}

	_, err := r.Reconcile(100000, tenders)
	require.Error(t, err)
}

func TestReconcileDropsZeroRowsAndRejectsEmpty(t *testing.T) {
	t.Parallel()

	r := NewReconciler(nil)

	out, err := r.Reconcile(1000, []Tender{tender("card", 1000), tender("voucher", 0)})
	require.NoError(t, err)
	require.Len(t, out, 1)

	_, err = r.Reconcile(1000, []Tender{tender("card", 0)})
	require.Error(t, err)

	_, err = r.Reconcile(1000, nil)
	require.Error(t, err)
}

func TestAddDefaultsToRemainingBalance(t *testing.T) {
	t.Parallel()

	r := NewReconciler(nil)
	tenders, err := r.Add(nil, tender("cash", 600), 1000)
	require.NoError(t, err)

	tenders, err = r.Add(tenders, Tender{MethodID: uuid.New(), MethodName: "card"}, 1000)
	require.NoError(t, err)
	require.EqualValues(t, 400, tenders[1].AmountCents)
}

func TestAddRejectsSecondCashRow(t *testing.T) {
	t.Parallel()

	r := NewReconciler(nil)
	tenders, err := r.Add(nil, tender("cash", 600), 1000)
	require.NoError(t, err)

	_, err = r.Add(tenders, tender("efectivo", 100), 1000)
	require.Error(t, err)
}

func TestRemoveFoldsAmountOntoLastRow(t *testing.T) {
	t.Parallel()

	r := NewReconciler(nil)
	tenders := []Tender{tender("cash", 600), tender("card", 300), tender("gift", 100)}

	out := r.Remove(tenders, 1, 1000)
	require.Len(t, out, 2)
	// The last row absorbs the removed amount up to the remaining balance.
	require.EqualValues(t, 400, out[1].AmountCents)

	// Removing with an out-of-range index is a no-op.
	require.Len(t, r.Remove(out, 5, 1000), 2)
}

func TestRemainingFloorsAtZero(t *testing.T) {
	t.Parallel()

	r := NewReconciler(nil)
	require.EqualValues(t, 400, r.Remaining(1000, []Tender{tender("cash", 600)}))
	require.EqualValues(t, 0, r.Remaining(1000, []Tender{tender("cash", 1200)}))
}
