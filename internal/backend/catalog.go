package backend

import (
	"context"
	"net/url"

	"github.com/angelmondragon/tillpoint-backend/internal/inventory"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/internal/promo"
	"github.com/angelmondragon/tillpoint-backend/internal/tax"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog view the register needs to sell an item.
type Product struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	SKU           string           `json:"sku"`
	PriceCents    int64            `json:"price_cents"`
	Taxable       bool             `json:"taxable"`
	TaxRateID     *uuid.UUID       `json:"tax_rate_id,omitempty"`
	TaxRatePct    *decimal.Decimal `json:"tax_rate_percentage,omitempty"`
	LotTracked    bool             `json:"lot_tracked"`
	SerialTracked bool             `json:"serial_tracked"`
	IsPack        bool             `json:"is_pack"`
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
	BrandID       *uuid.UUID       `json:"brand_id,omitempty"`
	CustomFields  []string         `json:"custom_fields,omitempty"`
}

// TaxInfo adapts the catalog attributes to the tax resolver input.
func (p *Product) TaxInfo() tax.ProductInfo {
	return tax.ProductInfo{
		Taxable:    p.Taxable,
		RateID:     p.TaxRateID,
		Percentage: p.TaxRatePct,
	}
}

// PackComponent is one bill-of-materials row of a pack product.
type PackComponent struct {
	ComponentProductID uuid.UUID `json:"component_product_id"`
	Quantity           int       `json:"component_quantity"`
}

// Product loads one product by id.
func (c *Client) Product(ctx context.Context, id uuid.UUID) (*Product, error) {
	var product Product
	if err := c.get(ctx, "/v1/products/"+id.String(), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// SearchProducts looks up products by free-text query.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	params := url.Values{"q": []string{query}}
	var products []Product
	if err := c.get(ctx, "/v1/products", params, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// PackComponents lists the component definitions of a pack product.
func (c *Client) PackComponents(ctx context.Context, productID uuid.UUID) ([]PackComponent, error) {
	var components []PackComponent
	if err := c.get(ctx, "/v1/products/"+productID.String()+"/components", nil, &components); err != nil {
		return nil, err
	}
	return components, nil
}

// PriceListItems loads the tier rows of one price list.
func (c *Client) PriceListItems(ctx context.Context, priceListID uuid.UUID) ([]pricing.Item, error) {
	var rows []struct {
		ProductID  uuid.UUID `json:"product_id"`
		MinQty     int       `json:"min_qty"`
		PriceCents int64     `json:"price_cents"`
	}
	if err := c.get(ctx, "/v1/price-lists/"+priceListID.String()+"/items", nil, &rows); err != nil {
		return nil, err
	}
	items := make([]pricing.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, pricing.Item{ProductID: row.ProductID, MinQty: row.MinQty, UnitPriceCents: row.PriceCents})
	}
	return items, nil
}

// TaxRates loads the configured tax rates.
func (c *Client) TaxRates(ctx context.Context) ([]tax.Rate, error) {
	var rows []struct {
		ID         uuid.UUID       `json:"tax_rate_id"`
		Name       string          `json:"name"`
		Percentage decimal.Decimal `json:"rate_percentage"`
		IsDefault  bool            `json:"is_default"`
	}
	if err := c.get(ctx, "/v1/tax-rates", nil, &rows); err != nil {
		return nil, err
	}
	rates := make([]tax.Rate, 0, len(rows))
	for _, row := range rows {
		rates = append(rates, tax.Rate{ID: row.ID, Name: row.Name, Percentage: row.Percentage, IsDefault: row.IsDefault})
	}
	return rates, nil
}

// Promotions loads the promotion rules once per cart session.
func (c *Client) Promotions(ctx context.Context) ([]promo.Promotion, error) {
	var rows []promotionRow
	if err := c.get(ctx, "/v1/promotions", nil, &rows); err != nil {
		return nil, err
	}
	promotions := make([]promo.Promotion, 0, len(rows))
	for _, row := range rows {
		promotions = append(promotions, row.toPromotion())
	}
	return promotions, nil
}

type promotionRow struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Enabled   bool            `json:"enabled"`
	Type      string          `json:"type"`
	Value     decimal.Decimal `json:"value"`
	Priority  int             `json:"priority"`
	Stackable bool            `json:"stackable"`
	MinQty    int             `json:"min_quantity"`
	StartAt   *timeString     `json:"start_at,omitempty"`
	EndAt     *timeString     `json:"end_at,omitempty"`
	Timezone  string          `json:"timezone"`
	Scopes    struct {
		Categories   []uuid.UUID `json:"categories,omitempty"`
		Products     []uuid.UUID `json:"products,omitempty"`
		Brands       []uuid.UUID `json:"brands,omitempty"`
		Customers    []string    `json:"customers,omitempty"`
		Employees    []string    `json:"employees,omitempty"`
		Channels     []string    `json:"channels,omitempty"`
		Days         []string    `json:"days,omitempty"`
		CustomFields []string    `json:"custom_fields,omitempty"`
	} `json:"scopes"`
}

func (r promotionRow) toPromotion() promo.Promotion {
	promoType, err := enums.ParsePromotionType(r.Type)
	if err != nil {
		// Unknown types stay loaded but disabled so evaluation skips them.
		return promo.Promotion{ID: r.ID, Name: r.Name, Enabled: false}
	}
	p := promo.Promotion{
		ID:        r.ID,
		Name:      r.Name,
		Enabled:   r.Enabled,
		Type:      promoType,
		Value:     r.Value,
		Priority:  r.Priority,
		Stackable: r.Stackable,
		MinQty:    r.MinQty,
		Timezone:  r.Timezone,
		Scope: promo.Scope{
			Categories:   r.Scopes.Categories,
			Products:     r.Scopes.Products,
			Brands:       r.Scopes.Brands,
			Customers:    r.Scopes.Customers,
			Employees:    r.Scopes.Employees,
			Channels:     r.Scopes.Channels,
			Days:         r.Scopes.Days,
			CustomFields: r.Scopes.CustomFields,
		},
	}
	if r.StartAt != nil {
		p.StartAt = r.StartAt.timePtr()
	}
	if r.EndAt != nil {
		p.EndAt = r.EndAt.timePtr()
	}
	return p
}

// Lots lists the lot candidates for a (product, warehouse) pair.
func (c *Client) Lots(ctx context.Context, productID, warehouseID uuid.UUID) ([]inventory.Lot, error) {
	params := url.Values{"warehouse_id": []string{warehouseID.String()}}
	var rows []lotRow
	if err := c.get(ctx, "/v1/products/"+productID.String()+"/lots", params, &rows); err != nil {
		return nil, err
	}
	lots := make([]inventory.Lot, 0, len(rows))
	for _, row := range rows {
		lots = append(lots, row.toLot())
	}
	return lots, nil
}

// FEFOLot asks the backend for its first-expire-first-out pick.
func (c *Client) FEFOLot(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.Lot, error) {
	params := url.Values{"warehouse_id": []string{warehouseID.String()}}
	var row *lotRow
	if err := c.get(ctx, "/v1/products/"+productID.String()+"/lots/fefo", params, &row); err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	lot := row.toLot()
	return &lot, nil
}

type lotRow struct {
	ID        uuid.UUID   `json:"product_lot_id"`
	Number    string      `json:"lot_number"`
	Quantity  int         `json:"quantity"`
	ExpiresAt *timeString `json:"expiration_date,omitempty"`
}

func (r lotRow) toLot() inventory.Lot {
	lot := inventory.Lot{ID: r.ID, Number: r.Number, Quantity: r.Quantity}
	if r.ExpiresAt != nil {
		if t := r.ExpiresAt.timePtr(); t != nil {
			lot.ExpiresAt = *t
		}
	}
	return lot
}

// Serials lists the in-stock serials of a product.
func (c *Client) Serials(ctx context.Context, productID uuid.UUID) ([]inventory.Serial, error) {
	params := url.Values{"status": []string{string(enums.SerialStatusInStock)}}
	var rows []struct {
		ID     uuid.UUID `json:"product_serial_id"`
		Number string    `json:"serial_number"`
	}
	if err := c.get(ctx, "/v1/products/"+productID.String()+"/serials", params, &rows); err != nil {
		return nil, err
	}
	serials := make([]inventory.Serial, 0, len(rows))
	for _, row := range rows {
		serials = append(serials, inventory.Serial{ID: row.ID, Number: row.Number})
	}
	return serials, nil
}
