package httpserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/session"
	"pizza-storefront/internal/view"
)

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

func (h *handlers) issueSession(c *gin.Context) {
	id := h.deps.Sessions.Issue()
	http.SetCookie(c.Writer, h.deps.Sessions.Cookie(id))
	c.Header(session.Header, id)
	c.JSON(http.StatusCreated, gin.H{"sessionId": id, "expiresIn": h.deps.Sessions.TTLSeconds()})
}

func (h *handlers) storeInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Catalog.StoreInfoOrDefault(c.Request.Context()))
}

func (h *handlers) categories(c *gin.Context) {
	cats, err := h.deps.Catalog.FetchCategories(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": cats, "count": len(cats)})
}

func (h *handlers) products(c *gin.Context) {
	filter := domain.ProductFilter{
		Category: c.Query("category"),
		Search:   strings.TrimSpace(c.Query("search")),
		Status:   "publish",
	}
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if n, err := strconv.Atoi(c.Query("per_page")); err == nil && n > 0 {
		filter.PerPage = n
	}
	products, err := h.deps.Catalog.FetchProducts(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products)})
}

func (h *handlers) productDetail(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var (
		d   view.Detail
		err error
	)
	if sid, serr := session.FromRequest(c.Request); serr == nil {
		d, err = h.deps.Products.LoadLatest(c.Request.Context(), sid, id)
	} else {
		d, err = h.deps.Products.Load(c.Request.Context(), id)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type matchRequest struct {
	Attributes map[string]string `json:"attributes"`
}

func (h *handlers) matchVariation(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, "InvalidJsonInput", err.Error())
		return
	}
	v, err := h.deps.Products.Match(c.Request.Context(), id, req.Attributes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variation": v, "matched": v != nil})
}

func (h *handlers) priceProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var cfg view.Configuration
	if err := c.ShouldBindJSON(&cfg); err != nil {
		writeAPIError(c, http.StatusBadRequest, "InvalidJsonInput", err.Error())
		return
	}
	priced, err := h.deps.Products.Configure(c.Request.Context(), id, cfg)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, priced)
}

func (h *handlers) shippingMethods(c *gin.Context) {
	zones := h.deps.Catalog.ShippingMethodsOrDefault(c.Request.Context(), h.deps.DeliveryFee)
	c.JSON(http.StatusOK, gin.H{"zones": zones, "defaultFee": h.deps.DeliveryFee})
}

func (h *handlers) paymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results": h.deps.Catalog.PaymentMethodsOrDefault(c.Request.Context())})
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeAPIError(c, http.StatusBadRequest, "InvalidInput", "invalid product id")
		return 0, false
	}
	return id, true
}
