package payments

import (
	"strings"

	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/google/uuid"
)

// Tender is one payment entry in a multi-tender checkout.
type Tender struct {
	MethodID    uuid.UUID `json:"method_id"`
	MethodName  string    `json:"method_name"`
	AmountCents int64     `json:"amount_cents"`
	Reference   string    `json:"reference,omitempty"`
}

// Reconciler validates a tender set against an order total.
type Reconciler struct {
	cashKeywords []string
}

// NewReconciler builds a reconciler with the given cash keyword set.
// Keywords are matched case-insensitively as substrings of the method name.
func NewReconciler(cashKeywords []string) *Reconciler {
	if len(cashKeywords) == 0 {
		cashKeywords = []string{"cash", "efectivo"}
	}
	normalized := make([]string, 0, len(cashKeywords))
	for _, kw := range cashKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return &Reconciler{cashKeywords: normalized}
}

// IsCash classifies a payment method name.
func (r *Reconciler) IsCash(methodName string) bool {
	name := strings.ToLower(methodName)
	for _, kw := range r.cashKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Remaining returns the unpaid balance given the current tender set,
// floored at zero.
func (r *Reconciler) Remaining(totalCents int64, tenders []Tender) int64 {
	remaining := totalCents - sum(tenders)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Add appends a tender. A zero amount defaults to the remaining balance.
// A second cash-classified row is rejected.
func (r *Reconciler) Add(tenders []Tender, entry Tender, totalCents int64) ([]Tender, error) {
	if entry.MethodID == uuid.Nil {
		return tenders, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if r.IsCash(entry.MethodName) && r.hasCash(tenders) {
		return tenders, pkgerrors.New(pkgerrors.CodeValidation, "only one cash payment is allowed")
	}
	if entry.AmountCents == 0 {
		entry.AmountCents = r.Remaining(totalCents, tenders)
	}
	if entry.AmountCents < 0 {
		return tenders, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must not be negative")
	}
	return append(tenders, entry), nil
}

// Remove drops the tender at idx and folds its amount onto the last
// remaining row, floored at the newly required remaining balance.
func (r *Reconciler) Remove(tenders []Tender, idx int, totalCents int64) []Tender {
	if idx < 0 || idx >= len(tenders) {
		return tenders
	}
	out := make([]Tender, 0, len(tenders)-1)
	out = append(out, tenders[:idx]...)
	out = append(out, tenders[idx+1:]...)
	if len(out) == 0 {
		return out
	}

	last := len(out) - 1
	needed := totalCents - sum(out[:last])
	if needed < 0 {
		needed = 0
	}
	if out[last].AmountCents < needed {
		out[last].AmountCents = needed
	}
	return out
}

// Reconcile validates the tender set for submission and returns the
// filtered list with zero-amount rows dropped.
func (r *Reconciler) Reconcile(totalCents int64, tenders []Tender) ([]Tender, error) {
	filtered := make([]Tender, 0, len(tenders))
	cashRows := 0
	var tendered int64
	for _, t := range tenders {
		if t.AmountCents <= 0 {
			continue
		}
		if r.IsCash(t.MethodName) {
			cashRows++
		}
		tendered += t.AmountCents
		filtered = append(filtered, t)
	}

	if len(filtered) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one payment is required")
	}
	if cashRows > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only one cash payment is allowed")
	}
	if tendered > totalCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payments exceed the order total")
	}
	return filtered, nil
}

func (r *Reconciler) hasCash(tenders []Tender) bool {
	for _, t := range tenders {
		if r.IsCash(t.MethodName) {
			return true
		}
	}
	return false
}

func sum(tenders []Tender) int64 {
	var total int64
	for _, t := range tenders {
		if t.AmountCents > 0 {
			total += t.AmountCents
		}
	}
	return total
}
