package view

import (
	"context"
	"strings"

	"pizza-storefront/internal/addon"
	"pizza-storefront/internal/combo"
	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/pricing"
	"pizza-storefront/internal/variation"
)

// Configuration is what the customer chose on the detail screen.
type Configuration struct {
	Quantity            int                   `json:"quantity"`
	Attributes          map[string]string     `json:"attributes,omitempty"`
	Addons              domain.AddonSelection `json:"addons,omitempty"`
	ComboSelections     domain.ComboSelection `json:"comboSelections,omitempty"`
	SpecialInstructions string                `json:"specialInstructions,omitempty"`
}

// Priced is a configuration resolved against the catalog.
type Priced struct {
	Line      domain.LineItem   `json:"line"`
	Variation *domain.Variation `json:"variation,omitempty"`
	Price     pricing.Breakdown `json:"price"`
}

// Match resolves the variation for an attribute selection; nil when it does not fully resolve.
func (l *Loader) Match(ctx context.Context, productID int64, selected map[string]string) (*domain.Variation, error) {
	vars, err := l.catalog.FetchVariations(ctx, productID)
	if err != nil {
		return nil, err
	}
	return variation.Match(selected, vars), nil
}

// Configure prices a configuration and builds the cart line for it. Input problems come back as
// domain.ValidationErrors; catalog failures as they are.
func (l *Loader) Configure(ctx context.Context, productID int64, cfg Configuration) (Priced, error) {
	p, err := l.catalog.FetchProduct(ctx, productID)
	if err != nil {
		return Priced{}, err
	}
	qty := cfg.Quantity
	if qty < 1 {
		qty = 1
	}
	line := domain.LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  qty,
		Image:     p.ImageURL(),
		Type:      domain.LineSimple,
		Customizations: domain.Customizations{
			SpecialInstructions: strings.TrimSpace(cfg.SpecialInstructions),
		},
	}

	if pc, _ := l.combos.ProductConfig(ctx, p.ID); pc.IsCombo {
		return l.configureCombo(ctx, p, pc.ComboConfig, cfg, line)
	}

	base := p.Price
	var matched *domain.Variation
	if p.IsVariable() {
		line.Type = domain.LineVariable
		vars, err := l.catalog.FetchVariations(ctx, p.ID)
		if err != nil {
			return Priced{}, err
		}
		matched = variation.Match(cfg.Attributes, vars)
		if matched == nil {
			return Priced{}, domain.ValidationErrors{{
				Field:   "attributes",
				Code:    "unmatched",
				Message: "Select an option for every attribute",
			}}
		}
		if matched.StockState() == domain.StockOutOfStock {
			return Priced{}, domain.ValidationErrors{{Field: "attributes", Code: "out_of_stock", Message: p.Name + " is out of stock in this option"}}
		}
		base = variationBase(*matched, p)
		line.VariationID = matched.ID
		if matched.Image != nil && matched.Image.Src != "" {
			line.Image = matched.Image.Src
		}
		line.Customizations.Attributes = attributeLabels(p, *matched, cfg.Attributes)
	}

	fields := l.addons.Resolve(ctx, p)
	if errs := addon.Validate(fields, cfg.Addons); len(errs) > 0 {
		return Priced{}, errs
	}
	sel := populated(cfg.Addons)
	b := pricing.Compute(base, sel, fields, qty)
	line.Price = b.Unit
	if len(sel) > 0 {
		line.Customizations.AddonSelections = sel
		line.Customizations.Addons = addon.Describe(fields, sel, qty)
	}
	return Priced{Line: line, Variation: matched, Price: b}, nil
}

func (l *Loader) configureCombo(ctx context.Context, p domain.Product, cfg domain.ComboConfiguration, in Configuration, line domain.LineItem) (Priced, error) {
	if errs := combo.Validate(cfg, in.ComboSelections); len(errs) > 0 {
		return Priced{}, errs
	}
	eligible := combo.EligibleProducts(ctx, l.catalog, p.ID, cfg, l.logger)

	sel := domain.ComboSelection{}
	var errs domain.ValidationErrors
	for _, cat := range cfg {
		picks := in.ComboSelections[cat.ID]
		if len(picks) == 0 {
			continue
		}
		resolved := make([]domain.ComboPick, 0, len(picks))
		for _, pick := range picks {
			prod, ok := findProduct(eligible[cat.ID], pick.ID)
			if !ok {
				errs = append(errs, domain.ValidationError{Field: cat.ID, Code: "ineligible", Message: "Selection not available in " + cat.Name})
				continue
			}
			resolved = append(resolved, domain.ComboPick{ID: prod.ID, Name: prod.Name, Price: prod.Price})
		}
		sel[cat.ID] = resolved
	}
	if len(errs) > 0 {
		return Priced{}, errs
	}

	unit := pricing.ComboUnitPrice(p)
	line.Type = domain.LineCombo
	line.Price = unit
	line.Customizations.ComboConfig = cfg
	line.Customizations.ComboSelections = sel
	return Priced{Line: line, Price: pricing.Compute(unit, nil, nil, line.Quantity)}, nil
}

// attributeLabels keys the matched options by the product's attribute names.
func attributeLabels(p domain.Product, v domain.Variation, selected map[string]string) map[string]string {
	byNorm := make(map[string]string, len(selected))
	for k, val := range selected {
		byNorm[variation.NormalizeName(k)] = val
	}
	out := make(map[string]string, len(v.Attributes))
	for _, a := range v.Attributes {
		name := a.Name
		for _, pa := range p.Attributes {
			if variation.NormalizeName(pa.Name) == variation.NormalizeName(a.Name) {
				name = pa.Name
				break
			}
		}
		opt := a.Option
		if opt == "" {
			opt = byNorm[variation.NormalizeName(a.Name)]
		}
		out[name] = opt
	}
	return out
}

func populated(sel domain.AddonSelection) domain.AddonSelection {
	out := domain.AddonSelection{}
	for id, v := range sel {
		if !v.IsEmpty() {
			out[id] = v
		}
	}
	return out
}

func findProduct(products []domain.Product, id int64) (domain.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}
