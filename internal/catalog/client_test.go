package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizza-storefront/internal/config"
	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/money"
)

type fakeWoo struct {
	t        *testing.T
	srv      *httptest.Server
	routes   map[string]http.HandlerFunc
	requests map[string]*atomic.Int32
}

func newFakeWoo(t *testing.T) *fakeWoo {
	t.Helper()
	f := &fakeWoo{t: t, routes: map[string]http.HandlerFunc{}, requests: map[string]*atomic.Int32{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck" || pass != "cs" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"woocommerce_rest_cannot_view","message":"Sorry, you cannot list resources."}`))
			return
		}
		path := strings.TrimPrefix(r.URL.Path, APIPath)
		key := r.Method + " " + path
		if c, ok := f.requests[key]; ok {
			c.Add(1)
		}
		h, ok := f.routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"rest_no_route","message":"No route was found"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeWoo) handle(method, path string, h http.HandlerFunc) {
	f.routes[method+" "+path] = h
	f.requests[method+" "+path] = &atomic.Int32{}
}

func (f *fakeWoo) json(method, path, body string) {
	f.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func (f *fakeWoo) count(method, path string) int {
	return int(f.requests[method+" "+path].Load())
}

func (f *fakeWoo) client(opts ...Option) *Client {
	return New(
		config.Woo{BaseURL: f.srv.URL, ConsumerKey: "ck", ConsumerSecret: "cs", Timeout: 5 * time.Second},
		config.Store{Name: "Escandalosos Pizzas", City: "Santiago", Country: "CL", Currency: "CLP"},
		nil,
		opts...,
	)
}

func TestFetchProducts_EnrichesVariablePriceRange(t *testing.T) {
	f := newFakeWoo(t)
	f.handle(http.MethodGet, "/products", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "12", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"Margarita","type":"simple","price":"8000"},
			{"id":2,"name":"Pepperoni","type":"variable","price":""},
			{"id":3,"name":"Napolitana","type":"variable","price":""}
		]`))
	})
	f.json(http.MethodGet, "/products/2/variations", `[
		{"id":21,"price":"9000","attributes":[{"name":"Tamaño","option":"Mediana"}]},
		{"id":22,"price":"12000","attributes":[{"name":"Tamaño","option":"Familiar"}]},
		{"id":23,"price":"0","attributes":[{"name":"Tamaño","option":"Chica"}]}
	]`)
	f.handle(http.MethodGet, "/products/3/variations", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"bad","message":"boom"}`))
	})

	products, err := f.client().FetchProducts(context.Background(), domain.ProductFilter{Category: "12"})
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, money.Amount(8000), products[0].Price)
	assert.Nil(t, products[0].PriceRange)
	require.NotNil(t, products[1].PriceRange)
	assert.Equal(t, domain.PriceRange{Min: 9000, Max: 12000}, *products[1].PriceRange)
	assert.Nil(t, products[2].PriceRange, "failed enrichment leaves no range")
}

func TestFetchProduct_NotFound(t *testing.T) {
	f := newFakeWoo(t)

	_, err := f.client().FetchProduct(context.Background(), 99)
	require.Error(t, err)

	var ce *domain.CatalogUnavailableError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusNotFound, ce.Status)
	assert.Equal(t, "No route was found", ce.Message)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDo_ErrorMapping(t *testing.T) {
	f := newFakeWoo(t)
	f.json(http.MethodGet, "/products/categories", `not json`)
	f.handle(http.MethodGet, "/products/attributes", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"rest_invalid_param"}`))
	})

	c := f.client()

	_, err := c.FetchCategories(context.Background())
	var ce *domain.CatalogUnavailableError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "undecodable response", ce.Message)

	_, err = c.FetchAttributes(context.Background())
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusBadRequest, ce.Status)
	assert.Equal(t, "rest_invalid_param", ce.Message)

	bad := New(config.Woo{BaseURL: f.srv.URL, ConsumerKey: "ck", ConsumerSecret: "wrong", Timeout: time.Second}, config.Store{}, nil)
	_, err = bad.FetchCategories(context.Background())
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusUnauthorized, ce.Status)
	assert.Contains(t, ce.Error(), "Sorry, you cannot list resources.")
}

func TestDo_NetworkFailure(t *testing.T) {
	f := newFakeWoo(t)
	c := f.client()
	f.srv.Close()

	_, err := c.FetchCategories(context.Background())
	assert.True(t, domain.IsCatalogUnavailable(err))
}

func TestDo_OpenCircuitFailsFast(t *testing.T) {
	f := newFakeWoo(t)
	f.handle(http.MethodGet, "/products/categories", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c := f.client(WithBreakerSettings(gobreaker.Settings{
		Name:    "test",
		Timeout: time.Hour,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}))

	for range 2 {
		_, err := c.FetchCategories(context.Background())
		var ce *domain.CatalogUnavailableError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, http.StatusInternalServerError, ce.Status)
	}

	_, err := c.FetchCategories(context.Background())
	var ce *domain.CatalogUnavailableError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusServiceUnavailable, ce.Status)
	assert.Equal(t, "circuit open", ce.Message)
	assert.Equal(t, 2, f.count(http.MethodGet, "/products/categories"))
}

func TestDo_CancelledCallsDoNotTripBreaker(t *testing.T) {
	f := newFakeWoo(t)
	f.json(http.MethodGet, "/products/categories", `[{"id":12,"name":"Pizzas"}]`)

	c := f.client(WithBreakerSettings(gobreaker.Settings{
		Name:    "test",
		Timeout: time.Hour,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for range 3 {
		_, err := c.FetchCategories(cancelled)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	}

	cats, err := c.FetchCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestFetchAttributesAndTerms(t *testing.T) {
	f := newFakeWoo(t)
	f.json(http.MethodGet, "/products/attributes", `[{"id":3,"name":"Tamaño","slug":"pa_tamano","type":"select"}]`)
	f.handle(http.MethodGet, "/products/attributes/3/terms", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(`[{"id":31,"name":"Mediana","slug":"mediana"},{"id":32,"name":"Familiar","slug":"familiar"}]`))
	})
	c := f.client()

	attrs, err := c.FetchAttributes(context.Background())
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "pa_tamano", attrs[0].Slug)

	terms, err := c.FetchAttributeTerms(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "Familiar", terms[1].Name)

	_, err = c.FetchAttributeTerms(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchShippingMethods_DecodesSettingsAndCaches(t *testing.T) {
	f := newFakeWoo(t)
	f.json(http.MethodGet, "/shipping/zones", `[{"id":1,"name":"Santiago"}]`)
	f.json(http.MethodGet, "/shipping/zones/1/methods", `[
		{"instance_id":3,"method_id":"flat_rate","title":"Despacho","enabled":true,"settings":{"cost":{"value":"2990"}}},
		{"instance_id":4,"method_id":"free_shipping","title":"Gratis","enabled":true,"settings":{"min_amount":{"value":"25000"}}},
		{"instance_id":5,"method_id":"local_pickup","title":"Retiro","enabled":false,"settings":{}}
	]`)

	c := f.client()
	zones, err := c.FetchShippingMethods(context.Background())
	require.NoError(t, err)
	require.Len(t, zones, 1)
	require.Len(t, zones[0].Methods, 3)

	flat := zones[0].Methods[0]
	assert.Equal(t, money.Amount(2990), flat.Cost)
	assert.Nil(t, flat.MinAmount)

	free := zones[0].Methods[1]
	require.NotNil(t, free.MinAmount)
	assert.Equal(t, money.Amount(25000), *free.MinAmount)
	assert.False(t, zones[0].Methods[2].Enabled)

	_, err = c.FetchShippingMethods(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(http.MethodGet, "/shipping/zones"))

	c.ClearCache()
	_, err = c.FetchShippingMethods(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.count(http.MethodGet, "/shipping/zones"))
}

func TestFetchPaymentMethods_EnabledOnly(t *testing.T) {
	f := newFakeWoo(t)
	f.json(http.MethodGet, "/payment_gateways", `[
		{"id":"cod","title":"Efectivo","enabled":true},
		{"id":"bacs","title":"Transferencia","enabled":false},
		{"id":"cheque","title":"Cheque","enabled":true}
	]`)

	methods, err := f.client().FetchPaymentMethods(context.Background())
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "cod", methods[0].ID)
	assert.Equal(t, "cheque", methods[1].ID)
}

func TestFetchStoreInfo(t *testing.T) {
	f := newFakeWoo(t)
	f.json(http.MethodGet, "/settings/general", `[
		{"id":"woocommerce_store_address","value":"Av. Siempre Viva 742"},
		{"id":"woocommerce_store_city","value":""},
		{"id":"woocommerce_default_country","value":"CL:RM"},
		{"id":"woocommerce_currency","value":"CLP"},
		{"id":"woocommerce_allowed_countries","value":["CL"]}
	]`)

	info, err := f.client().FetchStoreInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StoreInfo{
		Name:     "Escandalosos Pizzas",
		Address:  "Av. Siempre Viva 742",
		City:     "Santiago",
		Country:  "CL",
		Currency: "CLP",
	}, info)
}

func TestOrDefault_Fallbacks(t *testing.T) {
	f := newFakeWoo(t)
	c := f.client()
	ctx := context.Background()

	assert.Equal(t, "Santiago", c.StoreInfoOrDefault(ctx).City)
	assert.Equal(t, DefaultPaymentMethods(), c.PaymentMethodsOrDefault(ctx))

	zones := c.ShippingMethodsOrDefault(ctx, 2500)
	require.Len(t, zones, 1)
	assert.Equal(t, money.Amount(2500), zones[0].Methods[0].Cost)
}

func TestSubmitOrder(t *testing.T) {
	f := newFakeWoo(t)
	var got domain.Order
	f.handle(http.MethodPost, "/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":501,"number":"501","status":"pending","total":"37000"}`))
	})

	res, err := f.client().SubmitOrder(context.Background(), domain.Order{
		PaymentMethod: "cod",
		Status:        "pending",
		LineItems:     []domain.OrderLine{{ProductID: 1, Quantity: 2, Total: "16000", Subtotal: "16000"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderResult{ID: 501, Number: "501", Status: "pending", Total: 37000}, res)
	assert.Equal(t, "cod", got.PaymentMethod)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, "16000", got.LineItems[0].Total)
}

func TestSubmitOrder_FailureIsCatalogUnavailable(t *testing.T) {
	f := newFakeWoo(t)
	f.handle(http.MethodPost, "/orders", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"woocommerce_rest_invalid_product_id","message":"Invalid product ID."}`))
	})

	_, err := f.client().SubmitOrder(context.Background(), domain.Order{})
	var ce *domain.CatalogUnavailableError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Invalid product ID.", ce.Message)
}
