package cart

import (
	"context"

	"github.com/angelmondragon/tillpoint-backend/internal/backend"
	"github.com/angelmondragon/tillpoint-backend/internal/tax"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/google/uuid"
)

// addPack expands a pack product into a priced parent line plus one
// zero-priced, tax-exempt component line per bill-of-materials row. The
// expansion is atomic: every required FEFO lot must resolve before any
// line enters the cart.
func (e *Engine) addPack(ctx context.Context, product *backend.Product, qty int) (*Line, error) {
	components, err := e.catalog.PackComponents(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if len(components) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack has no components")
	}

	group := uuid.New()
	parent := e.newLine(product, qty)
	parent.PackRole = enums.PackRoleParent
	parent.PackGroupID = &group
	if err := e.resolvePackLot(ctx, product, &parent); err != nil {
		return nil, err
	}

	children := make([]Line, 0, len(components))
	for _, comp := range components {
		compProduct, err := e.catalog.Product(ctx, comp.ComponentProductID)
		if err != nil {
			return nil, err
		}
		if comp.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack component quantity must be positive")
		}

		child := e.newLine(compProduct, comp.Quantity*qty)
		child.PackRole = enums.PackRoleComponent
		child.PackGroupID = &group
		child.Multiplier = comp.Quantity
		child.UnitPriceCents = 0
		child.BasePriceCents = 0
		child.Tax = tax.Resolution{Taxable: false}
		child.SerialTracked = false
		if err := e.resolvePackLot(ctx, compProduct, &child); err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	e.mu.Lock()
	parent.UnitPriceCents = e.unitPrice(product.ID, qty, product.PriceCents)
	parent.Tax = tax.Resolve(product.TaxInfo(), e.taxRates, e.cfg.DefaultRateID())
	e.lines = append(e.lines, parent)
	e.lines = append(e.lines, children...)
	e.recompute("add_pack")
	e.mu.Unlock()
	return &parent, nil
}

// resolvePackLot binds the FEFO lot for a lot-tracked pack member. Any
// failure aborts the whole pack add.
func (e *Engine) resolvePackLot(ctx context.Context, product *backend.Product, line *Line) error {
	if !product.LotTracked {
		return nil
	}
	warehouse := e.currentWarehouse()
	if warehouse == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "select a warehouse before adding lot-tracked packs")
	}
	gen, lot, err := e.binder.SuggestLot(ctx, product.ID, *warehouse)
	if err != nil {
		return err
	}
	if !e.binder.Accept(gen) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "lot suggestion is stale, retry")
	}
	if lot == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no lot with stock for a pack member")
	}
	bindLotFields(line, lot)
	return nil
}

// cascadePack pins every component's quantity to multiplier times the
// new parent quantity. Caller holds the lock.
func (e *Engine) cascadePack(group *uuid.UUID, parentQty int) {
	if group == nil {
		return
	}
	for i := range e.lines {
		line := &e.lines[i]
		if line.PackRole != enums.PackRoleComponent || line.PackGroupID == nil || *line.PackGroupID != *group {
			continue
		}
		line.Quantity = line.Multiplier * parentQty
	}
}
