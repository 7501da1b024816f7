package domain

import (
	"encoding/json"

	"pizza-storefront/internal/money"
)

// Product kinds reported by the commerce backend.
const (
	ProductSimple   = "simple"
	ProductVariable = "variable"
	ProductGrouped  = "grouped"
)

// Product is a read-only catalog snapshot as served by GET /products.
type Product struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	Slug              string        `json:"slug,omitempty"`
	Type              string        `json:"type"`
	Status            string        `json:"status,omitempty"`
	CatalogVisibility string        `json:"catalog_visibility,omitempty"`
	Description       string        `json:"description,omitempty"`
	ShortDescription  string        `json:"short_description,omitempty"`
	Price             money.Amount  `json:"price"`
	RegularPrice      money.Amount  `json:"regular_price"`
	SalePrice         money.Amount  `json:"sale_price"`
	OnSale            bool          `json:"on_sale"`
	Images            []Image       `json:"images,omitempty"`
	Categories        []CategoryRef `json:"categories,omitempty"`
	Attributes        []Attribute   `json:"attributes,omitempty"`
	Variations        []int64       `json:"variations,omitempty"`
	StockStatus       string        `json:"stock_status,omitempty"`
	MetaData          []ProductMeta `json:"meta_data,omitempty"`

	// Direct-on-product addon carriers some plugin versions expose.
	WAPFFields    json.RawMessage `json:"wapf_fields,omitempty"`
	ProductAddons json.RawMessage `json:"product_addons,omitempty"`

	// PriceRange is advisory listing data computed from the variations.
	PriceRange *PriceRange `json:"price_range,omitempty"`
}

// IsVariable reports whether the product is priced by variations.
func (p Product) IsVariable() bool {
	return p.Type == ProductVariable
}

// ImageURL returns the first image source, or "".
func (p Product) ImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].Src
}

// Meta returns the raw value stored under key and whether it exists.
func (p Product) Meta(key string) (json.RawMessage, bool) {
	for _, m := range p.MetaData {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

type Image struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// Attribute is a declared product attribute. Variation marks it as variation-determining.
type Attribute struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Position  int      `json:"position"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
	Options   []string `json:"options"`
}

type ProductMeta struct {
	ID    int64           `json:"id,omitempty"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type PriceRange struct {
	Min money.Amount `json:"min_price"`
	Max money.Amount `json:"max_price"`
}

// ProductFilter narrows GET /products.
type ProductFilter struct {
	Category string
	Status   string
	Search   string
	PerPage  int
	Page     int
}
