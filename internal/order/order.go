// Package order turns cart lines and the checkout choices into the backend order payload.
package order

import (
	"sort"
	"strings"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/money"
)

// Metadata keys written on orders and order lines.
const (
	MetaOrderType           = "_order_type"
	MetaCashAmount          = "_cash_amount"
	MetaIsCombo             = "_is_combo"
	MetaSpecialInstructions = "Special instructions"
)

const (
	StatusPending = "pending"

	// PickupAddress replaces the street address on pickup orders.
	PickupAddress = "Retiro en tienda"

	defaultShippingTitle = "Delivery"
)

// Build assembles the order. It never fails; totals are copied from the lines so the backend
// charges what the customer saw.
func Build(lines []domain.LineItem, f domain.Fulfillment, c domain.Contact, p domain.Payment, store domain.StoreInfo) domain.Order {
	addr := address(f, c, store)
	o := domain.Order{
		PaymentMethod:      p.MethodID,
		PaymentMethodTitle: paymentTitle(p),
		SetPaid:            false,
		Status:             StatusPending,
		Billing:            addr,
		Shipping:           addr,
		LineItems:          make([]domain.OrderLine, 0, len(lines)),
		ShippingLines:      []domain.ShippingLine{},
		CustomerNote:       strings.TrimSpace(c.Notes),
		MetaData:           []domain.MetaEntry{{Key: MetaOrderType, Value: fulfillmentType(f)}},
	}
	o.Billing.Email = strings.TrimSpace(c.Email)
	o.Billing.Phone = strings.TrimSpace(c.Phone)

	for _, l := range lines {
		o.LineItems = append(o.LineItems, Line(l))
	}

	if f.IsDelivery() {
		o.ShippingLines = append(o.ShippingLines, shippingLine(f.Shipping))
	}

	if domain.IsCash(p.MethodID) && p.CashAmount > 0 {
		o.MetaData = append(o.MetaData, domain.MetaEntry{Key: MetaCashAmount, Value: p.CashAmount.String()})
	}
	return o
}

// Line maps one cart line to an order line, flattening its customizations into metadata.
func Line(l domain.LineItem) domain.OrderLine {
	qty := l.EffectiveQuantity()
	out := domain.OrderLine{
		ProductID:   l.ProductID,
		VariationID: l.VariationID,
		Quantity:    qty,
		MetaData:    LineMeta(l),
	}
	if l.Price > 0 {
		total := l.Total().String()
		out.Subtotal = total
		out.Total = total
	}
	return out
}

// LineMeta returns the metadata entries describing a line's customizations: attributes sorted by
// name, populated addons, one entry per combo category with picks plus the combo flag, and the
// special instructions.
func LineMeta(l domain.LineItem) []domain.MetaEntry {
	c := l.Customizations
	var meta []domain.MetaEntry

	names := make([]string, 0, len(c.Attributes))
	for k := range c.Attributes {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if v := c.Attributes[k]; v != "" {
			meta = append(meta, domain.MetaEntry{Key: k, Value: v})
		}
	}

	for _, a := range c.Addons {
		if a.Value == "" {
			continue
		}
		meta = append(meta, domain.MetaEntry{Key: a.Label, Value: a.Value})
	}

	if l.IsCombo() || len(c.ComboSelections) > 0 {
		for _, cat := range comboCategories(c) {
			picks := c.ComboSelections[cat.ID]
			if len(picks) == 0 {
				continue
			}
			meta = append(meta, domain.MetaEntry{Key: cat.Name, Value: pickNames(picks)})
		}
		meta = append(meta, domain.MetaEntry{Key: MetaIsCombo, Value: true})
	}

	if s := strings.TrimSpace(c.SpecialInstructions); s != "" {
		meta = append(meta, domain.MetaEntry{Key: MetaSpecialInstructions, Value: s})
	}
	return meta
}

// comboCategories lists the configured categories in step order followed by any selected
// category the configuration does not name, keyed by its id.
func comboCategories(c domain.Customizations) []domain.ComboCategory {
	cats := append(domain.ComboConfiguration(nil), c.ComboConfig...)
	var extra []string
	for id := range c.ComboSelections {
		if _, ok := c.ComboConfig.Category(id); !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		cats = append(cats, domain.ComboCategory{ID: id, Name: id})
	}
	return cats
}

func pickNames(picks []domain.ComboPick) string {
	names := make([]string, 0, len(picks))
	for _, p := range picks {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func address(f domain.Fulfillment, c domain.Contact, store domain.StoreInfo) domain.Address {
	a := domain.Address{
		FirstName: strings.TrimSpace(c.Name),
		City:      store.City,
		Country:   store.Country,
	}
	if a.City == "" {
		a.City = "Santiago"
	}
	if a.Country == "" {
		a.Country = "CL"
	}
	if !f.IsDelivery() {
		a.Address1 = PickupAddress
		return a
	}
	a.Address1 = strings.TrimSpace(c.Address)
	a.Address2 = strings.TrimSpace(c.Reference)
	if n := strings.TrimSpace(c.Neighborhood); n != "" {
		a.City = n
	}
	return a
}

func fulfillmentType(f domain.Fulfillment) string {
	if f.IsDelivery() {
		return domain.FulfillmentDelivery
	}
	return domain.FulfillmentPickup
}

func shippingLine(q domain.ShippingQuote) domain.ShippingLine {
	sl := domain.ShippingLine{
		MethodID:    q.MethodID,
		MethodTitle: q.Title,
		Total:       money.Amount(max(int64(q.Cost), 0)).String(),
	}
	if sl.MethodID == "" {
		sl.MethodID = domain.ShippingFlatRate
	}
	if sl.MethodTitle == "" {
		sl.MethodTitle = defaultShippingTitle
	}
	return sl
}

// paymentTitle falls back to the storefront's labels when the method carries no title.
func paymentTitle(p domain.Payment) string {
	if p.Title != "" {
		return p.Title
	}
	switch {
	case domain.IsCash(p.MethodID):
		return "Pago en efectivo"
	case p.MethodID == domain.PaymentTransfer:
		return "Transferencia bancaria"
	}
	return p.MethodID
}
