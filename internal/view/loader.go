// Package view assembles what a product detail screen needs and turns a customer's
// configuration into a priced cart line.
package view

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"pizza-storefront/internal/addon"
	"pizza-storefront/internal/combo"
	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/logs"
	"pizza-storefront/internal/money"
	"pizza-storefront/internal/pricing"
	"pizza-storefront/internal/variation"
)

type Catalog interface {
	FetchProduct(ctx context.Context, id int64) (domain.Product, error)
	FetchVariations(ctx context.Context, productID int64) ([]domain.Variation, error)
	FetchProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
}

type Combos interface {
	ProductConfig(ctx context.Context, productID int64) (domain.ProductConfig, bool)
}

type Addons interface {
	Resolve(ctx context.Context, p domain.Product) []domain.AddonField
}

// Detail is the assembled product detail.
type Detail struct {
	Product          domain.Product              `json:"product"`
	Variations       []domain.Variation          `json:"variations"`
	Options          []domain.Attribute          `json:"options"`
	DefaultVariation *domain.Variation           `json:"defaultVariation,omitempty"`
	Selection        map[string]string           `json:"selection"`
	PriceRange       *domain.PriceRange          `json:"priceRange,omitempty"`
	Addons           []domain.AddonField         `json:"addons"`
	AddonValues      domain.AddonSelection       `json:"addonValues"`
	IsCombo          bool                        `json:"isCombo"`
	ComboConfig      domain.ComboConfiguration   `json:"comboConfig,omitempty"`
	Eligible         map[string][]domain.Product `json:"eligibleProducts,omitempty"`
	Labels           []string                    `json:"labels"`
	Price            pricing.Breakdown           `json:"price"`
}

type Loader struct {
	catalog Catalog
	combos  Combos
	addons  Addons
	tracker *Tracker
	logger  *slog.Logger
}

func NewLoader(catalog Catalog, combos Combos, addons Addons, logger *slog.Logger) *Loader {
	return &Loader{
		catalog: catalog,
		combos:  combos,
		addons:  addons,
		tracker: NewTracker(),
		logger:  logs.OrDiscard(logger),
	}
}

// Load assembles the detail of one product. Combos get their categories and eligible products
// instead of addon fields; variable products get their variations with the highest priced one
// preselected.
func (l *Loader) Load(ctx context.Context, productID int64) (Detail, error) {
	p, err := l.catalog.FetchProduct(ctx, productID)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{
		Product:     p,
		Variations:  []domain.Variation{},
		Options:     variation.Options(p),
		Selection:   map[string]string{},
		Addons:      []domain.AddonField{},
		AddonValues: domain.AddonSelection{},
		Labels:      []string{},
	}
	pc, _ := l.combos.ProductConfig(ctx, p.ID)
	if pc.Labels != nil {
		d.Labels = pc.Labels
	}

	if pc.IsCombo {
		d.IsCombo = true
		d.ComboConfig = pc.ComboConfig
		d.Eligible = combo.EligibleProducts(ctx, l.catalog, p.ID, pc.ComboConfig, l.logger)
		d.Price = pricing.Compute(pricing.ComboUnitPrice(p), nil, nil, 1)
		return d, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if p.IsVariable() {
		g.Go(func() error {
			vars, err := l.catalog.FetchVariations(gctx, p.ID)
			if err != nil {
				return err
			}
			d.Variations = vars
			return nil
		})
	}
	g.Go(func() error {
		if fields := l.addons.Resolve(gctx, p); fields != nil {
			d.Addons = fields
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}

	d.AddonValues = addon.InitialValues(d.Addons)
	base := p.Price
	if p.IsVariable() {
		d.DefaultVariation = variation.ResolveDefault(d.Variations)
		d.Selection = variation.DefaultSelection(d.DefaultVariation)
		if r, ok := variation.PriceRange(d.Variations); ok {
			d.PriceRange = &r
		}
		if d.DefaultVariation != nil {
			base = variationBase(*d.DefaultVariation, p)
		}
	}
	d.Price = pricing.Compute(base, d.AddonValues, d.Addons, 1)
	return d, nil
}

// LoadLatest loads like Load but fails with domain.ErrSuperseded when another load for the same
// key began while this one was in flight.
func (l *Loader) LoadLatest(ctx context.Context, key string, productID int64) (Detail, error) {
	tk := l.tracker.Begin(key)
	d, err := l.Load(ctx, productID)
	if cerr := tk.Current(); cerr != nil {
		l.logger.Debug("discarding superseded product load", "key", key, "product_id", productID)
		return Detail{}, cerr
	}
	tk.Done()
	return d, err
}

func variationBase(v domain.Variation, p domain.Product) money.Amount {
	if v.Price > 0 {
		return v.Price
	}
	return p.Price
}
