package domain

import (
	"strings"

	"pizza-storefront/internal/money"
)

// Fulfillment types.
const (
	FulfillmentDelivery = "delivery"
	FulfillmentPickup   = "pickup"
)

// NormalizeFulfillment folds a client-supplied order type onto the two known types. Anything that
// is not pickup is treated as delivery.
func NormalizeFulfillment(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), FulfillmentPickup) {
		return FulfillmentPickup
	}
	return FulfillmentDelivery
}

// Order is the POST /orders body.
type Order struct {
	PaymentMethod      string         `json:"payment_method"`
	PaymentMethodTitle string         `json:"payment_method_title"`
	SetPaid            bool           `json:"set_paid"`
	Status             string         `json:"status"`
	Billing            Address        `json:"billing"`
	Shipping           Address        `json:"shipping"`
	LineItems          []OrderLine    `json:"line_items"`
	ShippingLines      []ShippingLine `json:"shipping_lines"`
	CustomerNote       string         `json:"customer_note"`
	MetaData           []MetaEntry    `json:"meta_data"`
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// OrderLine is one order entry. Total and Subtotal, when set, override the backend's own
// price so the customer is charged what they were shown.
type OrderLine struct {
	ProductID   int64       `json:"product_id"`
	VariationID int64       `json:"variation_id,omitempty"`
	Quantity    int         `json:"quantity"`
	MetaData    []MetaEntry `json:"meta_data,omitempty"`
	Subtotal    string      `json:"subtotal,omitempty"`
	Total       string      `json:"total,omitempty"`
}

type ShippingLine struct {
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
}

type MetaEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// OrderResult is what the backend answers to an order creation.
type OrderResult struct {
	ID     int64        `json:"id"`
	Number string       `json:"number,omitempty"`
	Status string       `json:"status,omitempty"`
	Total  money.Amount `json:"total"`
}

// ShippingQuote is the resolved delivery charge attached to an order.
type ShippingQuote struct {
	MethodID string       `json:"method_id"`
	Title    string       `json:"title"`
	Cost     money.Amount `json:"cost"`
}

// Fulfillment is the delivery or pickup choice. Shipping is ignored for pickup.
type Fulfillment struct {
	Type     string        `json:"type"`
	Shipping ShippingQuote `json:"shipping"`
}

// IsDelivery reports whether the order is delivered.
func (f Fulfillment) IsDelivery() bool {
	return f.Type == FulfillmentDelivery
}

// Contact is the billing/shipping contact block entered at checkout.
type Contact struct {
	Name         string `json:"customerName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
	Reference    string `json:"reference"`
	Notes        string `json:"notes"`
}

// Payment is the chosen method and, for cash, the amount the customer will hand over.
type Payment struct {
	MethodID   string       `json:"paymentMethod"`
	Title      string       `json:"paymentMethodTitle"`
	CashAmount money.Amount `json:"cashAmount,omitempty"`
}
