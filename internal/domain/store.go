package domain

import "pizza-storefront/internal/money"

// Shipping method ids used by the backend.
const (
	ShippingFlatRate     = "flat_rate"
	ShippingFreeShipping = "free_shipping"
	ShippingLocalPickup  = "local_pickup"
)

type ShippingZone struct {
	ID      int64            `json:"id"`
	Name    string           `json:"name"`
	Methods []ShippingMethod `json:"methods"`
}

// ShippingMethod is a zone method. MinAmount, when set, is the order subtotal from which
// shipping becomes free.
type ShippingMethod struct {
	InstanceID int64         `json:"instance_id"`
	MethodID   string        `json:"method_id"`
	Title      string        `json:"title"`
	Enabled    bool          `json:"enabled"`
	Cost       money.Amount  `json:"cost"`
	MinAmount  *money.Amount `json:"min_amount,omitempty"`
}

type PaymentMethod struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// Payment method ids treated as cash on delivery.
const (
	PaymentCOD      = "cod"
	PaymentCash     = "cash"
	PaymentTransfer = "bacs"
)

// IsCash reports whether the payment method id means cash on delivery.
func IsCash(methodID string) bool {
	return methodID == PaymentCOD || methodID == PaymentCash
}

// StoreInfo is the display information derived from the general settings.
type StoreInfo struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
}
