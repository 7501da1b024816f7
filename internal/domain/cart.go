package domain

import (
	"time"

	"pizza-storefront/internal/money"
)

// Line item kinds.
const (
	LineSimple   = "simple"
	LineVariable = "variable"
	LineCombo    = "combo"
)

// LineItem is one cart entry: one purchasable configuration at a quantity.
// Price is the resolved unit price: base plus addon contribution, never combo sub-items.
type LineItem struct {
	ID             string         `json:"id"`
	ProductID      int64          `json:"productId"`
	VariationID    int64          `json:"variationId,omitempty"`
	Name           string         `json:"name"`
	Price          money.Amount   `json:"price"`
	Quantity       int            `json:"quantity"`
	Image          string         `json:"image,omitempty"`
	Type           string         `json:"type,omitempty"`
	Customizations Customizations `json:"customizations"`
	AddedAt        time.Time      `json:"addedAt"`
}

// Customizations distinguishes configured lines from plain ones.
type Customizations struct {
	Attributes          map[string]string  `json:"attributes,omitempty"`
	AddonSelections     AddonSelection     `json:"addonSelections,omitempty"`
	Addons              []AddonLine        `json:"productAddons,omitempty"`
	SpecialInstructions string             `json:"specialInstructions,omitempty"`
	ComboSelections     ComboSelection     `json:"comboSelections,omitempty"`
	ComboConfig         ComboConfiguration `json:"comboConfig,omitempty"`
}

// IsEmpty reports whether the line carries no customization at all.
func (c Customizations) IsEmpty() bool {
	return len(c.Attributes) == 0 &&
		len(c.AddonSelections) == 0 &&
		len(c.Addons) == 0 &&
		c.SpecialInstructions == "" &&
		len(c.ComboSelections) == 0 &&
		len(c.ComboConfig) == 0
}

// EffectiveQuantity coerces a missing or invalid quantity to 1.
func (l LineItem) EffectiveQuantity() int {
	if l.Quantity < 1 {
		return 1
	}
	return l.Quantity
}

// EffectivePrice coerces a negative price to 0.
func (l LineItem) EffectivePrice() money.Amount {
	if l.Price < 0 {
		return 0
	}
	return l.Price
}

// Total is unit price times quantity after coercion.
func (l LineItem) Total() money.Amount {
	return l.EffectivePrice().Mul(l.EffectiveQuantity())
}

// IsCombo reports whether the line is a combo bundle.
func (l LineItem) IsCombo() bool {
	return l.Type == LineCombo
}
