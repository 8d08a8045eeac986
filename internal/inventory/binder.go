package inventory

import (
	"context"
	"sync"

	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/google/uuid"
)

// CandidateSource serves lot and serial candidates from the backend.
type CandidateSource interface {
	Lots(ctx context.Context, productID, warehouseID uuid.UUID) ([]Lot, error)
	FEFOLot(ctx context.Context, productID, warehouseID uuid.UUID) (*Lot, error)
	Serials(ctx context.Context, productID uuid.UUID) ([]Serial, error)
}

// Binder fetches lot/serial candidates with a latest-request-wins guard:
// responses started before the most recent Invalidate call are rejected
// so a stale warehouse's candidates never reach the cart.
type Binder struct {
	src CandidateSource

	mu  sync.Mutex
	gen uint64
}

func NewBinder(src CandidateSource) *Binder {
	return &Binder{src: src}
}

// Invalidate advances the guard generation. Call whenever the warehouse
// or active price list changes.
func (b *Binder) Invalidate() {
	b.mu.Lock()
	b.gen++
	b.mu.Unlock()
}

// Generation returns the current guard generation.
func (b *Binder) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

// Accept reports whether a response fetched under gen may still be applied.
func (b *Binder) Accept(gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return gen == b.gen
}

// LotCandidates returns the lots for a (product, warehouse) pair together
// with the generation the caller must re-check before applying them.
func (b *Binder) LotCandidates(ctx context.Context, productID, warehouseID uuid.UUID) (uint64, []Lot, error) {
	gen := b.Generation()
	lots, err := b.src.Lots(ctx, productID, warehouseID)
	if err != nil {
		return gen, nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "fetch lot candidates")
	}
	return gen, lots, nil
}

// SuggestLot asks the backend for its FEFO pick, falling back to a local
// FEFO over the candidate list when the backend has no dedicated pick.
func (b *Binder) SuggestLot(ctx context.Context, productID, warehouseID uuid.UUID) (uint64, *Lot, error) {
	gen := b.Generation()
	lot, err := b.src.FEFOLot(ctx, productID, warehouseID)
	if err != nil {
		return gen, nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "fetch fefo lot")
	}
	if lot != nil {
		return gen, lot, nil
	}
	lots, err := b.src.Lots(ctx, productID, warehouseID)
	if err != nil {
		return gen, nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "fetch lot candidates")
	}
	return gen, FEFO(lots), nil
}

// SerialCandidates returns the in-stock serials for a product.
func (b *Binder) SerialCandidates(ctx context.Context, productID uuid.UUID) (uint64, []Serial, error) {
	gen := b.Generation()
	serials, err := b.src.Serials(ctx, productID)
	if err != nil {
		return gen, nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "fetch serial candidates")
	}
	return gen, serials, nil
}
