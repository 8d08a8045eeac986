package cart

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/tillpoint-backend/internal/backend"
	"github.com/angelmondragon/tillpoint-backend/internal/inventory"
	"github.com/angelmondragon/tillpoint-backend/internal/payments"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/internal/promo"
	"github.com/angelmondragon/tillpoint-backend/internal/tax"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Catalog is the read side of the backend the engine depends on.
type Catalog interface {
	Product(ctx context.Context, id uuid.UUID) (*backend.Product, error)
	PackComponents(ctx context.Context, productID uuid.UUID) ([]backend.PackComponent, error)
	PriceListItems(ctx context.Context, priceListID uuid.UUID) ([]pricing.Item, error)
	TaxRates(ctx context.Context) ([]tax.Rate, error)
	Promotions(ctx context.Context) ([]promo.Promotion, error)
}

// SaleGateway submits completed orders and verifies supervisor PINs.
type SaleGateway interface {
	SubmitSale(ctx context.Context, req backend.SaleRequest) (*backend.SaleResponse, error)
	VerifyPIN(ctx context.Context, employeeID uuid.UUID, pin string) error
}

// DisplaySink receives cart snapshots for the customer-facing display.
// Implementations must never block the caller.
type DisplaySink interface {
	Publish(snapshot Snapshot)
}

// OrderTotals is the derived money summary of the draft order. It is
// recomputed after every mutation and never stored independently.
type OrderTotals struct {
	SubtotalCents          int64 `json:"subtotal_cents"`
	LineDiscountCents      int64 `json:"line_discount_cents"`
	GlobalDiscountCents    int64 `json:"global_discount_cents"`
	PromotionDiscountCents int64 `json:"promotion_discount_cents"`
	TaxCents               int64 `json:"tax_cents"`
	TotalCents             int64 `json:"total_cents"`
}

// Engine holds one session's draft order. All mutations are synchronous
// and serialized by a mutex; every mutation ends with a full recompute
// of prices, promotions and totals.
type Engine struct {
	mu sync.Mutex

	cfg        config.POSConfig
	catalog    Catalog
	gateway    SaleGateway
	binder     *inventory.Binder
	reconciler *payments.Reconciler
	display    DisplaySink
	metrics    *metrics.EngineMetrics
	logger     *logger.Logger
	now        func() time.Time

	sessionID    uuid.UUID
	warehouseID  *uuid.UUID
	customerID   *uuid.UUID
	customerName string
	employeeName string
	documentType enums.DocumentType

	lines       []Line
	priceListID *uuid.UUID
	book        *pricing.Book
	taxRates    []tax.Rate
	promotions  []promo.Promotion

	globalDiscountType  enums.DiscountType
	globalDiscountValue decimal.Decimal

	tenders []payments.Tender

	promoResult promo.Result
	lineTotals  []LineTotals
	totals      OrderTotals
}

// EngineDeps wires an engine's collaborators.
type EngineDeps struct {
	Config     config.POSConfig
	Catalog    Catalog
	Gateway    SaleGateway
	Binder     *inventory.Binder
	Reconciler *payments.Reconciler
	Display    DisplaySink
	Metrics    *metrics.EngineMetrics
	Logger     *logger.Logger
}

// NewEngine builds an empty draft order for one session. Tax rates and
// promotions are loaded eagerly; a failed fetch degrades to an empty set
// rather than failing the session.
func NewEngine(ctx context.Context, sessionID uuid.UUID, deps EngineDeps) (*Engine, error) {
	if deps.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart engine requires a catalog")
	}
	if deps.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart engine requires a sale gateway")
	}
	if deps.Binder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart engine requires a binder")
	}
	if deps.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart engine requires a logger")
	}
	if deps.Reconciler == nil {
		deps.Reconciler = payments.NewReconciler(deps.Config.CashKeywords())
	}

	e := &Engine{
		cfg:          deps.Config,
		catalog:      deps.Catalog,
		gateway:      deps.Gateway,
		binder:       deps.Binder,
		reconciler:   deps.Reconciler,
		display:      deps.Display,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		now:          time.Now,
		sessionID:    sessionID,
		documentType: enums.DocumentTypeReceipt,
	}
	e.loadReference(ctx)
	return e, nil
}

// loadReference fetches the read-only snapshots the pipeline consumes.
// Failures degrade to empty sets so the register keeps selling on base
// prices and without promotions.
func (e *Engine) loadReference(ctx context.Context) {
	rates, err := e.catalog.TaxRates(ctx)
	if err != nil {
		e.logger.Warn(e.logger.WithOperation(ctx, "load_tax_rates"), "tax rate fetch failed, continuing without")
		rates = nil
	}
	promos, err := e.catalog.Promotions(ctx)
	if err != nil {
		e.logger.Warn(e.logger.WithOperation(ctx, "load_promotions"), "promotion fetch failed, continuing without")
		promos = nil
	}
	e.mu.Lock()
	e.taxRates = rates
	e.promotions = promos
	e.mu.Unlock()
}

// SessionID returns the owning session's id.
func (e *Engine) SessionID() uuid.UUID { return e.sessionID }

// SetWarehouse selects the warehouse lines sell from. Changing it while
// the cart holds lines is rejected, the caller must clear first.
func (e *Engine) SetWarehouse(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.warehouseID != nil && *e.warehouseID == id {
		return nil
	}
	if len(e.lines) > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot change warehouse while the cart has items")
	}
	e.warehouseID = &id
	e.binder.Invalidate()
	return nil
}

// SetCustomer attaches a customer to the draft order. Pass uuid.Nil to
// detach.
func (e *Engine) SetCustomer(id uuid.UUID, name string) {
	e.mu.Lock()
	if id == uuid.Nil {
		e.customerID = nil
		e.customerName = ""
	} else {
		e.customerID = &id
		e.customerName = name
	}
	e.recompute("customer")
	e.mu.Unlock()
}

// SetEmployee records the attending employee for promotion scoping.
func (e *Engine) SetEmployee(name string) {
	e.mu.Lock()
	e.employeeName = name
	e.recompute("employee")
	e.mu.Unlock()
}

// SetDocumentType selects the fiscal document for submission.
func (e *Engine) SetDocumentType(dt enums.DocumentType) error {
	if !dt.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown document type")
	}
	e.mu.Lock()
	e.documentType = dt
	e.mu.Unlock()
	return nil
}

// SetPriceList activates a tiered price list and reprices every line.
// Passing uuid.Nil deactivates it. A failed item fetch falls back to
// base pricing.
func (e *Engine) SetPriceList(ctx context.Context, id uuid.UUID) {
	e.binder.Invalidate()

	var book *pricing.Book
	var listID *uuid.UUID
	if id != uuid.Nil {
		items, err := e.catalog.PriceListItems(ctx, id)
		if err != nil {
			e.logger.Warn(e.logger.WithOperation(ctx, "load_price_list"), "price list fetch failed, using base prices")
			items = nil
		}
		book = pricing.NewBook(items)
		listID = &id
	}

	e.mu.Lock()
	e.priceListID = listID
	e.book = book
	for i := range e.lines {
		line := &e.lines[i]
		if line.PackRole == enums.PackRoleComponent || line.ManualPrice {
			continue
		}
		line.UnitPriceCents = e.unitPrice(line.ProductID, line.Quantity, line.BasePriceCents)
	}
	e.recompute("price_list")
	e.mu.Unlock()
}

// AddProduct appends a line for the product. Packs expand atomically
// via their bill of materials. Serial-tracked products are added at
// quantity one and rejected outright when no serial is in stock;
// lot-tracked products come in with their FEFO lot pre-bound.
func (e *Engine) AddProduct(ctx context.Context, productID uuid.UUID, qty int) (*Line, error) {
	if qty <= 0 {
		qty = 1
	}

	product, err := e.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.IsPack {
		return e.addPack(ctx, product, qty)
	}

	line := e.newLine(product, qty)
	if err := e.prepareTracking(ctx, product, &line); err != nil {
		return nil, err
	}

	e.mu.Lock()
	line.UnitPriceCents = e.unitPrice(product.ID, qty, product.PriceCents)
	line.Tax = tax.Resolve(product.TaxInfo(), e.taxRates, e.cfg.DefaultRateID())
	e.lines = append(e.lines, line)
	e.recompute("add_product")
	e.mu.Unlock()
	return &line, nil
}

// newLine builds an unpriced line from catalog attributes.
func (e *Engine) newLine(product *backend.Product, qty int) Line {
	if product.SerialTracked {
		qty = 1
	}
	return Line{
		ID:             uuid.New(),
		ProductID:      product.ID,
		ProductName:    product.Name,
		SKU:            product.SKU,
		CategoryID:     product.CategoryID,
		BrandID:        product.BrandID,
		CustomFields:   product.CustomFields,
		Quantity:       qty,
		BasePriceCents: product.PriceCents,
		UnitPriceCents: product.PriceCents,
		DiscountType:   enums.DiscountTypePercentage,
		LotTracked:     product.LotTracked,
		SerialTracked:  product.SerialTracked,
		PackRole:       enums.PackRoleNone,
	}
}

// prepareTracking resolves the inventory attributes a tracked line needs
// before it may enter the cart. Serial-tracked lines only verify stock
// exists, the concrete serial is bound by the caller afterwards.
func (e *Engine) prepareTracking(ctx context.Context, product *backend.Product, line *Line) error {
	if product.SerialTracked {
		gen, serials, err := e.binder.SerialCandidates(ctx, product.ID)
		if err != nil {
			return err
		}
		if !e.binder.Accept(gen) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "serial candidates are stale, retry")
		}
		if len(serials) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no serial units in stock for this product")
		}
		return nil
	}

	if product.LotTracked {
		warehouse := e.currentWarehouse()
		if warehouse == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "select a warehouse before adding lot-tracked products")
		}
		gen, lot, err := e.binder.SuggestLot(ctx, product.ID, *warehouse)
		if err != nil {
			return err
		}
		if !e.binder.Accept(gen) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lot suggestion is stale, retry")
		}
		if lot == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no lot with stock for this product")
		}
		bindLotFields(line, lot)
	}
	return nil
}

func (e *Engine) currentWarehouse() *uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.warehouseID
}

func bindLotFields(line *Line, lot *inventory.Lot) {
	id := lot.ID
	line.LotID = &id
	line.LotNumber = lot.Number
	if !lot.ExpiresAt.IsZero() {
		expires := lot.ExpiresAt
		line.LotExpiresAt = &expires
	}
}

// SetQuantity changes a line's quantity. Serial-bound lines are capped
// at one unit, pack parents cascade to their components, and a quantity
// at or below zero removes the line (the whole group for packs). An
// unknown line id is a no-op.
func (e *Engine) SetQuantity(lineID uuid.UUID, qty int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.lineIndex(lineID)
	if idx < 0 {
		return nil
	}
	line := &e.lines[idx]

	if line.PackRole == enums.PackRoleComponent {
		return pkgerrors.New(pkgerrors.CodeValidation, "pack component quantity follows the parent")
	}
	if line.SerialTracked && qty > 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "serial-tracked lines hold one unit, add another line instead")
	}

	if qty <= 0 {
		e.removeAt(idx)
		e.recompute("remove_line")
		return nil
	}

	line.Quantity = qty
	if !line.ManualPrice {
		line.UnitPriceCents = e.unitPrice(line.ProductID, qty, line.BasePriceCents)
	}
	if line.PackRole == enums.PackRoleParent {
		e.cascadePack(line.PackGroupID, qty)
	}
	e.recompute("set_quantity")
	return nil
}

// SetLineDiscount sets a manual discount on one line. Rejected while a
// promotion effect is active and on pack components.
func (e *Engine) SetLineDiscount(lineID uuid.UUID, kind enums.DiscountType, value decimal.Decimal) error {
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown discount type")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.promoResult.Active() {
		return pkgerrors.New(pkgerrors.CodeConflict, "manual discounts are disabled while a promotion applies")
	}
	idx := e.lineIndex(lineID)
	if idx < 0 {
		return nil
	}
	if e.lines[idx].PackRole == enums.PackRoleComponent {
		return pkgerrors.New(pkgerrors.CodeValidation, "pack components cannot be discounted")
	}
	if value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value cannot be negative")
	}

	e.lines[idx].DiscountType = kind
	e.lines[idx].DiscountValue = value
	e.recompute("line_discount")
	return nil
}

// SetGlobalDiscount sets the single order-level discount. Rejected while
// a promotion effect is active.
func (e *Engine) SetGlobalDiscount(kind enums.DiscountType, value decimal.Decimal) error {
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown discount type")
	}
	if value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value cannot be negative")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.promoResult.Active() {
		return pkgerrors.New(pkgerrors.CodeConflict, "the global discount is disabled while a promotion applies")
	}
	e.globalDiscountType = kind
	e.globalDiscountValue = value
	e.recompute("global_discount")
	return nil
}

// RemoveLine deletes a line. Removing any member of a pack group removes
// the whole group. Unknown ids are a no-op.
func (e *Engine) RemoveLine(lineID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.lineIndex(lineID)
	if idx < 0 {
		return
	}
	e.removeAt(idx)
	e.recompute("remove_line")
}

// Clear empties the draft order but keeps session, warehouse and
// reference data.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.resetOrder()
	e.recompute("clear")
	e.mu.Unlock()
}

func (e *Engine) resetOrder() {
	e.lines = nil
	e.tenders = nil
	e.globalDiscountType = ""
	e.globalDiscountValue = decimal.Zero
	e.customerID = nil
	e.customerName = ""
	e.documentType = enums.DocumentTypeReceipt
}

// BindLot binds a concrete lot to a lot-tracked line. The caller picks
// from LotCandidates, FEFO is only the suggested default.
func (e *Engine) BindLot(ctx context.Context, lineID uuid.UUID, lotID uuid.UUID) error {
	warehouse := e.currentWarehouse()
	if warehouse == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no warehouse selected")
	}

	e.mu.Lock()
	idx := e.lineIndex(lineID)
	if idx < 0 || !e.lines[idx].LotTracked {
		e.mu.Unlock()
		return nil
	}
	productID := e.lines[idx].ProductID
	e.mu.Unlock()

	gen, lots, err := e.binder.LotCandidates(ctx, productID, *warehouse)
	if err != nil {
		return err
	}
	if !e.binder.Accept(gen) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "lot candidates are stale, retry")
	}

	var picked *inventory.Lot
	for i := range lots {
		if lots[i].ID == lotID {
			picked = &lots[i]
			break
		}
	}
	if picked == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "lot is not available for this product and warehouse")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	idx = e.lineIndex(lineID)
	if idx < 0 {
		return nil
	}
	bindLotFields(&e.lines[idx], picked)
	e.recompute("bind_lot")
	return nil
}

// BindSerial binds a concrete serial unit to a serial-tracked line and
// pins its quantity to one.
func (e *Engine) BindSerial(ctx context.Context, lineID uuid.UUID, serialID uuid.UUID) error {
	e.mu.Lock()
	idx := e.lineIndex(lineID)
	if idx < 0 || !e.lines[idx].SerialTracked {
		e.mu.Unlock()
		return nil
	}
	productID := e.lines[idx].ProductID
	e.mu.Unlock()

	gen, serials, err := e.binder.SerialCandidates(ctx, productID)
	if err != nil {
		return err
	}
	if !e.binder.Accept(gen) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "serial candidates are stale, retry")
	}

	var picked *inventory.Serial
	for i := range serials {
		if serials[i].ID == serialID {
			picked = &serials[i]
			break
		}
	}
	if picked == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "serial is not in stock for this product")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	idx = e.lineIndex(lineID)
	if idx < 0 {
		return nil
	}

	for i := range e.lines {
		if e.lines[i].SerialID != nil && *e.lines[i].SerialID == serialID && e.lines[i].ID != lineID {
			return pkgerrors.New(pkgerrors.CodeConflict, "serial is already on another line")
		}
	}

	id := picked.ID
	e.lines[idx].SerialID = &id
	e.lines[idx].SerialNumber = picked.Number
	e.lines[idx].Quantity = 1
	e.recompute("bind_serial")
	return nil
}

// PendingBinding returns the first line, in cart order, that still needs
// a lot or serial bound. Callers resolve one binding at a time.
func (e *Engine) PendingBinding() *Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.lines {
		if e.lines[i].NeedsBinding() {
			line := e.lines[i]
			return &line
		}
	}
	return nil
}

// LotCandidatesFor lists the lots a lot-tracked line may bind, FEFO
// ordered by the backend.
func (e *Engine) LotCandidatesFor(ctx context.Context, lineID uuid.UUID) ([]inventory.Lot, error) {
	warehouse := e.currentWarehouse()
	if warehouse == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no warehouse selected")
	}

	e.mu.Lock()
	idx := e.lineIndex(lineID)
	if idx < 0 || !e.lines[idx].LotTracked {
		e.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line is not lot-tracked")
	}
	productID := e.lines[idx].ProductID
	e.mu.Unlock()

	gen, lots, err := e.binder.LotCandidates(ctx, productID, *warehouse)
	if err != nil {
		return nil, err
	}
	if !e.binder.Accept(gen) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "lot candidates are stale, retry")
	}
	return lots, nil
}

// SerialCandidatesFor lists the in-stock serials a serial-tracked line
// may bind.
func (e *Engine) SerialCandidatesFor(ctx context.Context, lineID uuid.UUID) ([]inventory.Serial, error) {
	e.mu.Lock()
	idx := e.lineIndex(lineID)
	if idx < 0 || !e.lines[idx].SerialTracked {
		e.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line is not serial-tracked")
	}
	productID := e.lines[idx].ProductID
	e.mu.Unlock()

	gen, serials, err := e.binder.SerialCandidates(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !e.binder.Accept(gen) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "serial candidates are stale, retry")
	}
	return serials, nil
}

// ManualPriceOverride sets a custom unit price on a line after the
// supervisor PIN clears. The overridden price is exempt from price list
// repricing until the line is removed.
func (e *Engine) ManualPriceOverride(ctx context.Context, lineID uuid.UUID, priceCents int64, employeeID uuid.UUID, pin string) error {
	if priceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if err := e.gateway.VerifyPIN(ctx, employeeID, pin); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.lineIndex(lineID)
	if idx < 0 {
		return nil
	}
	if e.lines[idx].PackRole == enums.PackRoleComponent {
		return pkgerrors.New(pkgerrors.CodeValidation, "pack components are always priced at zero")
	}
	e.lines[idx].UnitPriceCents = priceCents
	e.lines[idx].ManualPrice = true
	e.recompute("price_override")
	return nil
}

// AddTender appends a payment row. A zero amount defaults to the
// remaining balance.
func (e *Engine) AddTender(entry payments.Tender) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	updated, err := e.reconciler.Add(e.tenders, entry, e.totals.TotalCents)
	if err != nil {
		return err
	}
	e.tenders = updated
	return nil
}

// RemoveTender drops a payment row, folding its amount onto the last
// remaining row capped at the still-unpaid balance.
func (e *Engine) RemoveTender(idx int) {
	e.mu.Lock()
	e.tenders = e.reconciler.Remove(e.tenders, idx, e.totals.TotalCents)
	e.mu.Unlock()
}

// Remaining returns the unpaid balance.
func (e *Engine) Remaining() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reconciler.Remaining(e.totals.TotalCents, e.tenders)
}

// Submit validates the draft order, reconciles the tender set and posts
// the sale. The cart is cleared only on success.
func (e *Engine) Submit(ctx context.Context) (*backend.SaleResponse, error) {
	e.mu.Lock()
	req, err := e.buildSaleRequest()
	e.mu.Unlock()
	if err != nil {
		e.observeSubmit("rejected")
		return nil, err
	}

	resp, err := e.gateway.SubmitSale(ctx, *req)
	if err != nil {
		e.observeSubmit("failed")
		return nil, err
	}

	e.mu.Lock()
	applied := e.promoResult.Applied
	e.resetOrder()
	e.recompute("submit")
	e.mu.Unlock()

	if e.metrics != nil {
		for _, a := range applied {
			e.metrics.IncPromotionApplied(a.Type.String())
		}
	}
	e.observeSubmit("accepted")
	e.logger.Info(e.logger.WithSessionID(e.logger.WithOperation(ctx, "submit_sale"), e.sessionID.String()), "sale submitted")
	return resp, nil
}

func (e *Engine) observeSubmit(outcome string) {
	if e.metrics != nil {
		e.metrics.IncSubmit(outcome)
	}
}

// buildSaleRequest runs the submission validations and assembles the
// payload. Caller holds the lock.
func (e *Engine) buildSaleRequest() (*backend.SaleRequest, error) {
	if e.warehouseID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no warehouse selected")
	}
	if len(e.lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "the cart is empty")
	}
	if e.documentType == enums.DocumentTypeInvoice && e.customerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "an invoice requires a customer")
	}
	for i := range e.lines {
		if e.lines[i].NeedsBinding() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a line still needs its lot or serial resolved")
		}
	}

	tenders, err := e.reconciler.Reconcile(e.totals.TotalCents, e.tenders)
	if err != nil {
		return nil, err
	}

	items := make([]backend.SaleItem, 0, len(e.lines))
	for i := range e.lines {
		line := e.lines[i]
		unit := line.UnitPriceCents
		if ov, ok := e.promoResult.Overrides[i]; ok {
			unit = ov.TargetUnitPriceCents
		}
		item := backend.SaleItem{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			UnitPriceCents:  unit,
			TaxRateID:       line.Tax.RateID,
			LotID:           line.LotID,
			SerialID:        line.SerialID,
			PackGroup:       line.PackGroupID,
			IsPackComponent: line.PackRole == enums.PackRoleComponent,
		}
		if !line.DiscountValue.IsZero() {
			item.DiscountType = line.DiscountType.String()
			item.DiscountValue = line.DiscountValue.String()
		}
		items = append(items, item)
	}

	payRows := make([]backend.SalePayment, 0, len(tenders))
	for _, t := range tenders {
		payRows = append(payRows, backend.SalePayment{
			MethodID:    t.MethodID,
			AmountCents: t.AmountCents,
			Reference:   t.Reference,
		})
	}

	req := &backend.SaleRequest{
		CustomerID:   e.customerID,
		WarehouseID:  *e.warehouseID,
		DocumentType: e.documentType,
		Items:        items,
		Payments:     payRows,
	}
	if !e.globalDiscountValue.IsZero() && !e.promoResult.Active() {
		req.DiscountType = e.globalDiscountType.String()
		req.DiscountValue = e.globalDiscountValue.String()
	}
	return req, nil
}

// unitPrice resolves the effective unit price through the active price
// book. Caller holds the lock.
func (e *Engine) unitPrice(productID uuid.UUID, qty int, baseCents int64) int64 {
	if e.book == nil {
		return baseCents
	}
	return e.book.UnitPrice(productID, qty, baseCents)
}

func (e *Engine) lineIndex(lineID uuid.UUID) int {
	for i := range e.lines {
		if e.lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

// removeAt deletes a line, cascading to the whole pack group when the
// line belongs to one. Caller holds the lock.
func (e *Engine) removeAt(idx int) {
	group := e.lines[idx].PackGroupID
	if group == nil {
		e.lines = append(e.lines[:idx], e.lines[idx+1:]...)
		return
	}
	kept := e.lines[:0]
	for i := range e.lines {
		if e.lines[i].PackGroupID != nil && *e.lines[i].PackGroupID == *group {
			continue
		}
		kept = append(kept, e.lines[i])
	}
	e.lines = kept
}

// recompute is the ordered pipeline run after every mutation: reprice is
// already folded into the mutations, so this recomputes provisional
// nets, evaluates promotions against them, then produces final line
// totals and the order summary. Caller holds the lock.
func (e *Engine) recompute(trigger string) {
	started := time.Now()

	views := make([]promo.LineView, len(e.lines))
	for i := range e.lines {
		provisional := ComputeLine(e.lines[i], nil, e.cfg.PricesIncludeTax)
		views[i] = e.lines[i].promoView()
		views[i].NetCents = provisional.NetCents
	}

	e.promoResult = promo.Evaluate(e.promotions, views, promo.Context{
		Now:          e.now(),
		Channel:      e.cfg.Channel,
		CustomerName: e.customerName,
		EmployeeName: e.employeeName,
	})

	e.lineTotals = make([]LineTotals, len(e.lines))
	var totals OrderTotals
	var overrideSavings int64
	for i := range e.lines {
		var override *promo.Override
		if ov, ok := e.promoResult.Overrides[i]; ok {
			override = &ov
			overrideSavings += ov.SavingsCents
		}
		lt := ComputeLine(e.lines[i], override, e.cfg.PricesIncludeTax)
		e.lineTotals[i] = lt
		totals.SubtotalCents += lt.GrossCents
		totals.LineDiscountCents += lt.DiscountCents
		totals.TaxCents += lt.TaxCents
		totals.TotalCents += lt.TotalCents
	}

	totals.PromotionDiscountCents = e.promoResult.TotalDiscountCents + overrideSavings
	if !e.promoResult.Active() {
		totals.GlobalDiscountCents = e.globalDiscount(totals.TotalCents)
	}
	totals.TotalCents -= totals.GlobalDiscountCents + e.promoResult.TotalDiscountCents
	if totals.TotalCents < 0 {
		totals.TotalCents = 0
	}
	e.totals = totals

	if e.metrics != nil {
		e.metrics.ObserveRecompute(trigger, time.Since(started))
	}

	e.publishLocked()
}

// globalDiscount resolves the order-level discount against the summed
// line totals. Caller holds the lock.
func (e *Engine) globalDiscount(lineTotalSum int64) int64 {
	if e.globalDiscountValue.IsZero() || lineTotalSum <= 0 {
		return 0
	}
	switch e.globalDiscountType {
	case enums.DiscountTypePercentage:
		pct := e.globalDiscountValue
		if pct.GreaterThan(hundred) {
			pct = hundred
		}
		return decimal.NewFromInt(lineTotalSum).Mul(pct).Div(hundred).Round(0).IntPart()
	case enums.DiscountTypeAmount:
		amount := e.globalDiscountValue.Mul(hundred).Round(0).IntPart()
		if amount > lineTotalSum {
			return lineTotalSum
		}
		return amount
	}
	return 0
}

func (e *Engine) publishLocked() {
	if e.display == nil {
		return
	}
	e.display.Publish(e.snapshotLocked())
}
