package combo

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/logs"
)

// ProductLister is the catalog read the eligible-products lookup needs.
type ProductLister interface {
	FetchProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
}

const eligibleConcurrency = 4

// EligibleProducts lists, per category, the products a customer may pick: published, not
// hidden and never the combo itself. A category whose lookup fails gets an empty list.
func EligibleProducts(ctx context.Context, lister ProductLister, comboProductID int64, cfg domain.ComboConfiguration, logger *slog.Logger) map[string][]domain.Product {
	logger = logs.OrDiscard(logger)
	out := make(map[string][]domain.Product, len(cfg))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(eligibleConcurrency)
	for _, cat := range cfg {
		g.Go(func() error {
			products, err := lister.FetchProducts(gctx, domain.ProductFilter{Category: cat.ID, Status: "publish"})
			eligible := []domain.Product{}
			if err != nil {
				logger.Warn("combo category products unavailable", "category", cat.ID, "err", err)
			} else {
				for _, p := range products {
					if p.ID == comboProductID || p.Status != "publish" || p.CatalogVisibility == "hidden" {
						continue
					}
					eligible = append(eligible, p)
				}
			}
			mu.Lock()
			out[cat.ID] = eligible
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
