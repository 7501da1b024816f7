package domain

import "pizza-storefront/internal/money"

// Stock states derived from a variation's stock fields.
const (
	StockInStock    = "in_stock"
	StockOutOfStock = "out_of_stock"
	StockLow        = "low"
)

// LowStockThreshold is the managed quantity at or below which stock is reported as low.
const LowStockThreshold = 5

// Variation is a concrete priced SKU of a variable product.
type Variation struct {
	ID            int64                `json:"id"`
	Price         money.Amount         `json:"price"`
	RegularPrice  money.Amount         `json:"regular_price"`
	SalePrice     money.Amount         `json:"sale_price"`
	StockStatus   string               `json:"stock_status,omitempty"`
	StockQuantity *int                 `json:"stock_quantity,omitempty"`
	Attributes    []VariationAttribute `json:"attributes"`
	Image         *Image               `json:"image,omitempty"`
}

type VariationAttribute struct {
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"name"`
	Option string `json:"option"`
}

// StockState collapses the backend stock fields into in_stock, out_of_stock or low.
func (v Variation) StockState() string {
	if v.StockStatus == "outofstock" {
		return StockOutOfStock
	}
	if v.StockQuantity != nil {
		if *v.StockQuantity <= 0 {
			return StockOutOfStock
		}
		if *v.StockQuantity <= LowStockThreshold {
			return StockLow
		}
	}
	return StockInStock
}
