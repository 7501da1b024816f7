package checkout

import (
	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/money"
)

const defaultShippingTitle = "Delivery"

// Quote resolves the delivery charge for a subtotal. An enabled free-shipping method wins when
// its minimum is reached (or it has none); otherwise the first enabled flat rate applies, and
// without one the default fee.
func Quote(zones []domain.ShippingZone, subtotal, defaultFee money.Amount) domain.ShippingQuote {
	var flat *domain.ShippingMethod
	for _, z := range zones {
		for i := range z.Methods {
			m := z.Methods[i]
			if !m.Enabled {
				continue
			}
			switch m.MethodID {
			case domain.ShippingFreeShipping:
				if m.MinAmount == nil || subtotal >= *m.MinAmount {
					return domain.ShippingQuote{MethodID: m.MethodID, Title: m.Title, Cost: 0}
				}
			case domain.ShippingFlatRate:
				if flat == nil {
					flat = &m
				}
			}
		}
	}
	if flat != nil {
		return domain.ShippingQuote{MethodID: flat.MethodID, Title: flat.Title, Cost: flat.Cost}
	}
	return domain.ShippingQuote{MethodID: domain.ShippingFlatRate, Title: defaultShippingTitle, Cost: defaultFee}
}
