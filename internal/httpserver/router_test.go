package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizza-storefront/internal/cart"
	"pizza-storefront/internal/checkout"
	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/logs"
	"pizza-storefront/internal/money"
	"pizza-storefront/internal/session"
	"pizza-storefront/internal/storage"
	"pizza-storefront/internal/view"
)

type stubCatalog struct {
	products  []domain.Product
	err       error
	submitErr error

	mu      sync.Mutex
	orders  []domain.Order
	cleared int
}

func (s *stubCatalog) FetchProducts(_ context.Context, _ domain.ProductFilter) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalog) FetchCategories(_ context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 12, Name: "Pizzas"}}, s.err
}

func (s *stubCatalog) FetchAttributes(_ context.Context) ([]domain.ProductAttribute, error) {
	return []domain.ProductAttribute{{ID: 3, Name: "Tamaño", Slug: "pa_tamano"}}, s.err
}

func (s *stubCatalog) FetchAttributeTerms(_ context.Context, id int64) ([]domain.AttributeTerm, error) {
	if s.err != nil {
		return nil, s.err
	}
	if id != 3 {
		return nil, &domain.CatalogUnavailableError{Op: "fetch attribute terms", Status: 404, Err: domain.ErrNotFound}
	}
	return []domain.AttributeTerm{{ID: 30, Name: "Familiar", Slug: "familiar"}, {ID: 31, Name: "Mediana", Slug: "mediana"}}, nil
}

func (s *stubCatalog) StoreInfoOrDefault(_ context.Context) domain.StoreInfo {
	return domain.StoreInfo{Name: "Escandalosos Pizzas", City: "Santiago", Country: "CL", Currency: "CLP"}
}

func (s *stubCatalog) ShippingMethodsOrDefault(_ context.Context, fee money.Amount) []domain.ShippingZone {
	return nil
}

func (s *stubCatalog) PaymentMethodsOrDefault(_ context.Context) []domain.PaymentMethod {
	return []domain.PaymentMethod{{ID: "cash", Title: "Pago en efectivo", Enabled: true}}
}

func (s *stubCatalog) SubmitOrder(_ context.Context, o domain.Order) (domain.OrderResult, error) {
	if s.submitErr != nil {
		return domain.OrderResult{}, s.submitErr
	}
	s.mu.Lock()
	s.orders = append(s.orders, o)
	s.mu.Unlock()
	return domain.OrderResult{ID: 321, Status: "pending"}, nil
}

func (s *stubCatalog) ClearCache() {
	s.mu.Lock()
	s.cleared++
	s.mu.Unlock()
}

type stubProducts struct {
	err error
}

func (s *stubProducts) Load(_ context.Context, id int64) (view.Detail, error) {
	if s.err != nil {
		return view.Detail{}, s.err
	}
	return view.Detail{Product: domain.Product{ID: id, Name: "Margarita"}}, nil
}

func (s *stubProducts) LoadLatest(ctx context.Context, _ string, id int64) (view.Detail, error) {
	return s.Load(ctx, id)
}

func (s *stubProducts) Match(_ context.Context, _ int64, selected map[string]string) (*domain.Variation, error) {
	if selected["Tamaño"] == "Familiar" {
		return &domain.Variation{ID: 22, Price: 12000}, nil
	}
	return nil, nil
}

func (s *stubProducts) Configure(_ context.Context, id int64, cfg view.Configuration) (view.Priced, error) {
	if s.err != nil {
		return view.Priced{}, s.err
	}
	qty := cfg.Quantity
	if qty < 1 {
		qty = 1
	}
	return view.Priced{Line: domain.LineItem{ProductID: id, Name: "Margarita", Price: 5000, Quantity: qty, Type: domain.LineSimple}}, nil
}

type stubCombos struct {
	cleared int
}

func (s *stubCombos) IsCombo(_ context.Context, id int64) bool { return id == 77 }

func (s *stubCombos) ComboConfig(_ context.Context, id int64) domain.ComboConfiguration {
	if id != 77 {
		return nil
	}
	return domain.ComboConfiguration{
		{ID: "pizzas", Name: "Pizzas", MinSelection: 2, MaxSelection: 2},
		{ID: "bebida", Name: "Bebida", MinSelection: 1, MaxSelection: 1},
	}
}

func (s *stubCombos) ProductLabels(_ context.Context, id int64) []string {
	if id == 77 {
		return []string{"Promo"}
	}
	return []string{}
}

func (s *stubCombos) AllLabels(context.Context) []string { return []string{"Promo", "Nuevo"} }

func (s *stubCombos) ClearCache() { s.cleared++ }

type testEnv struct {
	router  *gin.Engine
	catalog *stubCatalog
	combos  *stubCombos
	session string
}

func newTestEnv(t *testing.T, products *stubProducts, opts ...func(*Deps)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := storage.NewMemory()
	cat := &stubCatalog{products: []domain.Product{{ID: 1, Name: "Margarita", Price: 5000}}}
	combos := &stubCombos{}
	carts := cart.NewRegistry(st, nil, nil)
	deps := Deps{
		Catalog:     cat,
		Products:    products,
		Combos:      combos,
		Carts:       carts,
		Checkout:    checkout.New(st, carts, cat, 2500, nil),
		Sessions:    session.NewIssuer(time.Hour, false),
		Storage:     st,
		DeliveryFee: 2500,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	router, err := buildRouter(logs.Discard(), deps)
	require.NoError(t, err)
	return &testEnv{router: router, catalog: cat, combos: combos, session: uuid.NewString()}
}

func (e *testEnv) request(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	return e.request(method, path, body, http.Header{session.Header: {e.session}})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/readyz", "").Code)
}

func TestBuildRouter_RequiresDeps(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, err := buildRouter(logs.Discard(), Deps{})
	assert.EqualError(t, err, "httpserver: catalog is required")

	_, err = buildRouter(logs.Discard(), Deps{Catalog: &stubCatalog{}, Products: &stubProducts{}})
	assert.EqualError(t, err, "httpserver: combos is required")
}

func TestIssueSession(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})
	rec := env.do(http.MethodPost, "/session", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[map[string]any](t, rec)
	id, _ := body["sessionId"].(string)
	_, err := uuid.Parse(id)
	require.NoError(t, err, "expected uuid session id, got %q", id)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), session.Cookie+"="+id)
}

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})

	rec := env.do(http.MethodPost, "/cart/items", `{"productId":1,"quantity":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = env.do(http.MethodPost, "/cart/items", `{"productId":1,"quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	got := decode[struct {
		Cart cartResponse `json:"cart"`
	}](t, rec).Cart
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, money.Amount(15000), got.Total)
	assert.Equal(t, "$15.000", got.FormattedTotal)
	lineID := got.Items[0].ID

	rec = env.do(http.MethodPatch, "/cart/items/"+lineID, `{"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, money.Amount(5000), decode[cartResponse](t, rec).Total)

	rec = env.do(http.MethodPatch, "/cart/items/missing", `{"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPatch, "/cart/items/"+lineID, `{"quantity":0}`)
	assert.Empty(t, decode[cartResponse](t, rec).Items, "quantity 0 removes the line")

	env.do(http.MethodPost, "/cart/items", `{"productId":1,"quantity":1}`)
	rec = env.do(http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cartResponse](t, rec).Items)
}

func TestCart_ConcurrentAddsAreNotLost(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.do(http.MethodPost, "/cart/items", `{"productId":1,"quantity":1}`)
		}()
	}
	wg.Wait()

	c := decode[cartResponse](t, env.do(http.MethodGet, "/cart", ""))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 10, c.Items[0].Quantity)
}

func TestCart_IssuesSessionWhenMissing(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})
	rec := env.request(http.MethodGet, "/cart", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Header().Get(session.Header))
	assert.NoError(t, err)
}

func TestCart_InvalidSession(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})
	env.session = "nope"
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/cart", "").Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.ValidationErrors{{Field: "nombre", Code: "required", Message: "Name is required"}}, http.StatusUnprocessableEntity},
		{"not found", &domain.CatalogUnavailableError{Status: 404, Err: domain.ErrNotFound}, http.StatusNotFound},
		{"unavailable", &domain.CatalogUnavailableError{Status: 500}, http.StatusBadGateway},
		{"superseded", domain.ErrSuperseded, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, &stubProducts{err: tc.err})
			assert.Equal(t, tc.want, env.do(http.MethodGet, "/products/1", "").Code)
		})
	}
}

func TestPriceProduct_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, &stubProducts{err: domain.ValidationErrors{{Field: "nombre", Code: "required", Message: "Name is required"}}})
	rec := env.do(http.MethodPost, "/products/1/price", `{"quantity":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode[apiError](t, rec)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "nombre", body.Errors[0].Field)
}

func TestMatchVariation(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})
	rec := env.do(http.MethodPost, "/products/2/match", `{"attributes":{"Tamaño":"Familiar"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["matched"])

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/products/abc/match", `{}`).Code)
}

func TestProducts_CatalogUnavailable(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})
	env.catalog.err = &domain.CatalogUnavailableError{Op: "fetch products", Status: 503, Message: "circuit open"}
	rec := env.do(http.MethodGet, "/products?category=12", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.True(t, decode[apiError](t, rec).Retryable)
}

func TestAttributes(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})

	rec := env.do(http.MethodGet, "/attributes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	attrs := decode[struct {
		Results []domain.ProductAttribute `json:"results"`
	}](t, rec).Results
	require.Len(t, attrs, 1)
	assert.Equal(t, "pa_tamano", attrs[0].Slug)

	rec = env.do(http.MethodGet, "/attributes/3/terms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	terms := decode[struct {
		Results []domain.AttributeTerm `json:"results"`
		Count   int                    `json:"count"`
	}](t, rec)
	assert.Equal(t, 2, terms.Count)
	assert.Equal(t, "Familiar", terms.Results[0].Name)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/attributes/9/terms", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/attributes/x/terms", "").Code)
}

func TestLabels(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})

	all := decode[map[string]any](t, env.do(http.MethodGet, "/labels", ""))
	assert.Equal(t, []any{"Promo", "Nuevo"}, all["results"])

	one := decode[map[string]any](t, env.do(http.MethodGet, "/labels?productId=77", ""))
	assert.Equal(t, []any{"Promo"}, one["results"])
	assert.Equal(t, true, one["isCombo"])

	none := decode[map[string]any](t, env.do(http.MethodGet, "/labels?productId=5", ""))
	assert.Equal(t, []any{}, none["results"])
	assert.Equal(t, false, none["isCombo"])

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/labels?productId=-1", "").Code)
}

func TestComboSteps(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})

	rec := env.do(http.MethodPost, "/products/77/combo/steps", `{"selections":{"pizzas":[{"id":1,"name":"Pepperoni"}]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decode[comboState](t, rec)
	require.Len(t, st.Steps, 2)
	assert.Equal(t, comboStep{CategoryID: "pizzas", Name: "Pizzas", MinSelection: 2, MaxSelection: 2, Selected: 1, Reachable: true}, st.Steps[0])
	assert.False(t, st.Steps[1].Reachable)
	assert.False(t, st.CanAddToCart)
	assert.Equal(t, []string{"pizzas", "bebida"}, st.Errors.Fields())

	rec = env.do(http.MethodPost, "/products/77/combo/steps",
		`{"selections":{"pizzas":[{"id":1},{"id":2}],"bebida":[{"id":40}]}}`)
	st = decode[comboState](t, rec)
	assert.True(t, st.Steps[1].Reachable)
	assert.True(t, st.Steps[1].Complete)
	assert.True(t, st.CanAddToCart)
	assert.Empty(t, st.Errors)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/products/5/combo/steps", `{}`).Code)
}

func TestComboToggle(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})

	rec := env.do(http.MethodPost, "/products/77/combo/toggle",
		`{"categoryId":"bebida","pick":{"id":41,"name":"Fanta"},"selections":{"bebida":[{"id":40,"name":"Coca-Cola"}]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decode[comboState](t, rec)
	assert.Equal(t, []domain.ComboPick{{ID: 41, Name: "Fanta"}}, st.Selections["bebida"])

	rec = env.do(http.MethodPost, "/products/77/combo/toggle",
		`{"categoryId":"bebida","pick":{"id":41},"selections":{"bebida":[{"id":41}]}}`)
	st = decode[comboState](t, rec)
	assert.Empty(t, st.Selections["bebida"])
	assert.False(t, st.Steps[1].Complete)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/products/77/combo/toggle", `{"categoryId":"postre","pick":{"id":1}}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/products/77/combo/toggle", `{"categoryId":"bebida","pick":{"id":0}}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/products/77/combo/toggle", `{"pick":{"id":1}}`).Code)
}

func TestAdminCacheClear(t *testing.T) {
	env := newTestEnv(t, &stubProducts{}, func(d *Deps) { d.AdminToken = "s3cret" })

	rec := env.request(http.MethodPost, "/admin/cache/clear", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.request(http.MethodPost, "/admin/cache/clear", "", http.Header{adminTokenHeader: {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, env.catalog.cleared)

	rec = env.request(http.MethodPost, "/admin/cache/clear", "", http.Header{adminTokenHeader: {"s3cret"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, env.catalog.cleared)
	assert.Equal(t, 1, env.combos.cleared)
}

func TestAdminRoutesDisabledWithoutToken(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})
	rec := env.request(http.MethodPost, "/admin/cache/clear", "", http.Header{adminTokenHeader: {""}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, env.catalog.cleared)
}

func TestCORS(t *testing.T) {
	preflight := func(env *testEnv, origin string) *httptest.ResponseRecorder {
		return env.request(http.MethodOptions, "/cart", "", http.Header{
			"Origin":                        {origin},
			"Access-Control-Request-Method": {http.MethodGet},
		})
	}

	open := newTestEnv(t, &stubProducts{})
	rec := preflight(open, "https://shop.example")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	listed := newTestEnv(t, &stubProducts{}, func(d *Deps) { d.AllowedOrigins = []string{"https://shop.example"} })
	rec = preflight(listed, "https://shop.example")
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = preflight(listed, "https://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsConfig(t *testing.T) {
	for _, origins := range [][]string{nil, {"*"}} {
		cfg := corsConfig(origins)
		assert.True(t, cfg.AllowAllOrigins)
		assert.False(t, cfg.AllowCredentials)
		assert.Empty(t, cfg.AllowOrigins)
	}
	cfg := corsConfig([]string{"https://shop.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.True(t, cfg.AllowCredentials)
	assert.Equal(t, []string{"https://shop.example"}, cfg.AllowOrigins)
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t, &stubProducts{})
	env.do(http.MethodPost, "/cart/items", `{"productId":1,"quantity":2}`)

	form := `{"customerName":"Ana Pérez","email":"ana@example.com","phone":"+56912345678","paymentMethod":"cash","cashAmount":""}`
	require.Equal(t, http.StatusOK, env.do(http.MethodPut, "/checkout/form", form).Code)

	for _, typ := range []string{"delivery", "Delivery", ""} {
		s := decode[checkout.Summary](t, env.do(http.MethodGet, "/checkout/summary?orderType="+typ, ""))
		assert.Equal(t, money.Amount(12500), s.Total, typ)
	}
	s := decode[checkout.Summary](t, env.do(http.MethodGet, "/checkout/summary?orderType=PICKUP", ""))
	assert.Equal(t, money.Amount(10000), s.Total)

	rec := env.do(http.MethodPost, "/checkout", `{"orderType":"delivery","form":`+form+`}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "address is required for delivery")

	env.catalog.submitErr = &domain.CatalogUnavailableError{Op: "submit order", Status: 500}
	rec = env.do(http.MethodPost, "/checkout", `{"orderType":"pickup","form":`+form+`}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Len(t, decode[cartResponse](t, env.do(http.MethodGet, "/cart", "")).Items, 1, "cart kept after failed submission")

	env.catalog.submitErr = nil
	rec = env.do(http.MethodPost, "/checkout", `{"orderType":"pickup","form":`+form+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(321), decode[checkout.Result](t, rec).Order.ID)
	assert.Empty(t, decode[cartResponse](t, env.do(http.MethodGet, "/cart", "")).Items, "cart cleared after order")

	rec = env.do(http.MethodPost, "/checkout", `{"orderType":"pickup","form":`+form+`}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "resubmitting an emptied cart")
	errs := decode[apiError](t, rec).Errors
	require.Len(t, errs, 1)
	assert.Equal(t, "cart", errs[0].Field)
}
