// Package pricing resolves cart line prices. It is pure: no I/O, no clock, no logging.
//
// Each populated addon field contributes to the line:
//
//	flat               amount, whatever the quantity
//	per-unit-quantity  amount × quantity
//	per-character      amount × rune count of the text
//
// Choice fields without a field-level rule are priced per selected option with the same flat
// or per-unit-quantity semantics. The unit price folds every contribution back to one unit,
// so the line total is always unit × quantity.
package pricing

import (
	"unicode/utf8"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/money"
)

// Contribution is one field's share of a line price.
type Contribution struct {
	FieldID string       `json:"fieldId"`
	Label   string       `json:"label"`
	Kind    string       `json:"kind"`
	Amount  money.Amount `json:"amount"`
	PerUnit money.Amount `json:"perUnit"`
}

// Breakdown is the full price resolution of one prospective cart line.
type Breakdown struct {
	Base          money.Amount   `json:"base"`
	Contributions []Contribution `json:"contributions"`
	Unit          money.Amount   `json:"unit"`
	Quantity      int            `json:"quantity"`
	LineTotal     money.Amount   `json:"lineTotal"`
}

// ComputeUnitPrice returns base plus the per-unit addon charge.
func ComputeUnitPrice(base money.Amount, selection domain.AddonSelection, fields []domain.AddonField, quantity int) money.Amount {
	return Compute(base, selection, fields, quantity).Unit
}

// Compute resolves the unit price and line total, keeping the per-field detail.
func Compute(base money.Amount, selection domain.AddonSelection, fields []domain.AddonField, quantity int) Breakdown {
	qty := normalizeQuantity(quantity)
	b := Breakdown{Base: base, Quantity: qty, Unit: base}
	for _, f := range fields {
		v, ok := selection[f.ID]
		if !ok || v.IsEmpty() {
			continue
		}
		amount, perUnit, kind := fieldCharge(f, v, qty)
		if amount == 0 && perUnit == 0 {
			continue
		}
		b.Contributions = append(b.Contributions, Contribution{
			FieldID: f.ID,
			Label:   f.Label,
			Kind:    kind,
			Amount:  amount,
			PerUnit: perUnit,
		})
		b.Unit += perUnit
	}
	b.LineTotal = LineTotal(b.Unit, qty)
	return b
}

// FieldContribution is the amount one populated field adds to a line of the given quantity.
func FieldContribution(f domain.AddonField, v domain.AddonValue, quantity int) money.Amount {
	if v.IsEmpty() {
		return 0
	}
	amount, _, _ := fieldCharge(f, v, normalizeQuantity(quantity))
	return amount
}

// LineTotal is unit × quantity, with quantity coerced to at least 1.
func LineTotal(unit money.Amount, quantity int) money.Amount {
	return unit.Mul(normalizeQuantity(quantity))
}

// ComboUnitPrice is the fixed price of a combo product. Sub-selections carry no price of
// their own under this policy; ComboPick.Price is left for a priced-sub-item policy.
func ComboUnitPrice(p domain.Product) money.Amount {
	return p.Price
}

func fieldCharge(f domain.AddonField, v domain.AddonValue, qty int) (amount, perUnit money.Amount, kind string) {
	if f.Pricing.Priced() {
		amount, perUnit = ruleCharge(f.Pricing, f, v, qty)
		return amount, perUnit, f.Pricing.Kind
	}
	if !f.IsChoice() {
		return 0, 0, domain.PricingNone
	}
	kind = domain.PricingNone
	for _, label := range v.Choices() {
		opt, ok := f.Option(label)
		if !ok || opt.Pricing == nil || !opt.Pricing.Priced() {
			continue
		}
		a, u := ruleCharge(*opt.Pricing, f, v, qty)
		amount += a
		perUnit += u
		kind = opt.Pricing.Kind
	}
	return amount, perUnit, kind
}

func ruleCharge(p domain.Pricing, f domain.AddonField, v domain.AddonValue, qty int) (amount, perUnit money.Amount) {
	switch p.Kind {
	case domain.PricingFlat:
		return p.Amount, p.Amount
	case domain.PricingPerUnitQuantity:
		return p.Amount.Mul(qty), p.Amount
	case domain.PricingPerCharacter:
		if !f.IsTextual() {
			return 0, 0
		}
		n := utf8.RuneCountInString(v.String())
		return p.Amount.Mul(n), p.Amount.Mul(n)
	}
	return 0, 0
}

func normalizeQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
