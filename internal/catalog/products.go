package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/variation"
)

const enrichConcurrency = 4

// FetchProducts lists products and fills the advisory price range of variable products from
// their variations. An enrichment failure leaves that product without a range.
func (c *Client) FetchProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	q := url.Values{}
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	q.Set("per_page", strconv.Itoa(perPage))
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}

	var products []domain.Product
	if err := c.do(ctx, "fetch products", http.MethodGet, "/products", q, nil, &products); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range products {
		if !products[i].IsVariable() {
			continue
		}
		p := &products[i]
		g.Go(func() error {
			vars, err := c.FetchVariations(gctx, p.ID)
			if err != nil {
				c.logger.Warn("price range enrichment failed", "product_id", p.ID, "err", err)
				return nil
			}
			if r, ok := variation.PriceRange(vars); ok {
				p.PriceRange = &r
			}
			return nil
		})
	}
	_ = g.Wait()
	return products, nil
}

func (c *Client) FetchProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, "fetch product", http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, nil, &p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (c *Client) FetchVariations(ctx context.Context, productID int64) ([]domain.Variation, error) {
	q := url.Values{"per_page": {strconv.Itoa(defaultPerPage)}}
	var vars []domain.Variation
	path := "/products/" + strconv.FormatInt(productID, 10) + "/variations"
	if err := c.do(ctx, "fetch variations", http.MethodGet, path, q, nil, &vars); err != nil {
		return nil, err
	}
	return vars, nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	q := url.Values{"per_page": {strconv.Itoa(defaultPerPage)}}
	var cats []domain.Category
	if err := c.do(ctx, "fetch categories", http.MethodGet, "/products/categories", q, nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) FetchAttributes(ctx context.Context) ([]domain.ProductAttribute, error) {
	var attrs []domain.ProductAttribute
	if err := c.do(ctx, "fetch attributes", http.MethodGet, "/products/attributes", nil, nil, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (c *Client) FetchAttributeTerms(ctx context.Context, attributeID int64) ([]domain.AttributeTerm, error) {
	var terms []domain.AttributeTerm
	path := "/products/attributes/" + strconv.FormatInt(attributeID, 10) + "/terms"
	q := url.Values{"per_page": {strconv.Itoa(defaultPerPage)}}
	if err := c.do(ctx, "fetch attribute terms", http.MethodGet, path, q, nil, &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

// SubmitOrder creates the order. It has no fallback: failures reach the caller.
func (c *Client) SubmitOrder(ctx context.Context, o domain.Order) (domain.OrderResult, error) {
	var res domain.OrderResult
	if err := c.do(ctx, "submit order", http.MethodPost, "/orders", nil, o, &res); err != nil {
		return domain.OrderResult{}, err
	}
	return res, nil
}
