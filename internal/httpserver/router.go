package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pizza-storefront/internal/cart"
	"pizza-storefront/internal/checkout"
	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/money"
	"pizza-storefront/internal/session"
	"pizza-storefront/internal/storage"
	"pizza-storefront/internal/view"
)

// Catalog is the catalog gateway surface the API serves directly.
type Catalog interface {
	FetchProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	FetchCategories(ctx context.Context) ([]domain.Category, error)
	StoreInfoOrDefault(ctx context.Context) domain.StoreInfo
	ShippingMethodsOrDefault(ctx context.Context, fee money.Amount) []domain.ShippingZone
	PaymentMethodsOrDefault(ctx context.Context) []domain.PaymentMethod
	FetchAttributes(ctx context.Context) ([]domain.ProductAttribute, error)
	FetchAttributeTerms(ctx context.Context, attributeID int64) ([]domain.AttributeTerm, error)
	ClearCache()
}

// Combos answers combo and label lookups from the cached plugin configuration.
type Combos interface {
	IsCombo(ctx context.Context, productID int64) bool
	ComboConfig(ctx context.Context, productID int64) domain.ComboConfiguration
	ProductLabels(ctx context.Context, productID int64) []string
	AllLabels(ctx context.Context) []string
	ClearCache()
}

// Products loads product details and prices configurations.
type Products interface {
	Load(ctx context.Context, productID int64) (view.Detail, error)
	LoadLatest(ctx context.Context, key string, productID int64) (view.Detail, error)
	Match(ctx context.Context, productID int64, selected map[string]string) (*domain.Variation, error)
	Configure(ctx context.Context, productID int64, cfg view.Configuration) (view.Priced, error)
}

// Carts runs work against a session's cart under that session's lock.
type Carts interface {
	With(ctx context.Context, session string, fn func(*cart.Store) error) error
}

type Checkout interface {
	LoadForm(ctx context.Context, session string) (checkout.Form, error)
	SaveForm(ctx context.Context, session string, f checkout.Form) error
	Addresses(ctx context.Context, session string) ([]checkout.SavedAddress, error)
	Summarize(ctx context.Context, subtotal money.Amount, fulfillment string) checkout.Summary
	Submit(ctx context.Context, session string, req checkout.Request) (checkout.Result, error)
}

// Deps carries the services behind the routes.
type Deps struct {
	Catalog        Catalog
	Products       Products
	Combos         Combos
	Carts          Carts
	Checkout       Checkout
	Sessions       *session.Issuer
	Storage        storage.Store
	DeliveryFee    money.Amount
	AllowedOrigins []string
	AdminToken     string
}

func (d Deps) validate() error {
	switch {
	case d.Catalog == nil:
		return errors.New("httpserver: catalog is required")
	case d.Products == nil:
		return errors.New("httpserver: products is required")
	case d.Combos == nil:
		return errors.New("httpserver: combos is required")
	case d.Carts == nil:
		return errors.New("httpserver: carts is required")
	case d.Checkout == nil:
		return errors.New("httpserver: checkout is required")
	case d.Sessions == nil:
		return errors.New("httpserver: sessions is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *slog.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), cors.New(corsConfig(deps.AllowedOrigins)))

	h := &handlers{deps: deps, logger: logger}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Storage))

	router.POST("/session", h.issueSession)
	router.GET("/store", h.storeInfo)
	router.GET("/categories", h.categories)
	router.GET("/products", h.products)
	router.GET("/products/:id", h.productDetail)
	router.POST("/products/:id/match", h.matchVariation)
	router.POST("/products/:id/price", h.priceProduct)
	router.POST("/products/:id/combo/steps", h.comboSteps)
	router.POST("/products/:id/combo/toggle", h.comboToggle)
	router.GET("/labels", h.labels)
	router.GET("/attributes", h.attributes)
	router.GET("/attributes/:id/terms", h.attributeTerms)
	router.GET("/shipping-methods", h.shippingMethods)
	router.GET("/payment-methods", h.paymentMethods)

	scoped := router.Group("/", sessionMiddleware(deps.Sessions))
	scoped.GET("/cart", h.getCart)
	scoped.POST("/cart/items", h.addCartItem)
	scoped.PATCH("/cart/items/:lineId", h.updateCartItem)
	scoped.DELETE("/cart/items/:lineId", h.removeCartItem)
	scoped.DELETE("/cart", h.clearCart)
	scoped.GET("/checkout/form", h.getForm)
	scoped.PUT("/checkout/form", h.putForm)
	scoped.GET("/checkout/addresses", h.addresses)
	scoped.GET("/checkout/summary", h.summary)
	scoped.POST("/checkout", h.submit)

	if deps.AdminToken != "" {
		admin := router.Group("/admin", adminAuth(deps.AdminToken))
		admin.POST("/cache/clear", h.clearCaches)
	}

	return router, nil
}

// corsConfig allows any origin without credentials when origins is empty or "*". Cookies are
// only accepted from an explicit origin list.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", session.Header, adminTokenHeader},
		ExposeHeaders: []string{session.Header},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		logger.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
		)
	}
}
