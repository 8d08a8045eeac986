package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Lot is one lot candidate for a (product, warehouse) pair.
type Lot struct {
	ID        uuid.UUID
	Number    string
	Quantity  int
	ExpiresAt time.Time
}

// Serial is one serialized unit available for sale.
type Serial struct {
	ID     uuid.UUID
	Number string
}

// FEFO picks the first-expire, first-out lot: the soonest-expiring
// candidate holding stock. Lots without an expiration sort last.
func FEFO(lots []Lot) *Lot {
	var best *Lot
	for i := range lots {
		candidate := &lots[i]
		if candidate.Quantity <= 0 {
			continue
		}
		if best == nil {
			best = candidate
			continue
		}
		if expiresBefore(candidate.ExpiresAt, best.ExpiresAt) {
			best = candidate
		}
	}
	return best
}

func expiresBefore(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	if b.IsZero() {
		return true
	}
	return a.Before(b)
}
