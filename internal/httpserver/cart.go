package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"pizza-storefront/internal/cart"
	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/money"
	"pizza-storefront/internal/view"
)

type cartLine struct {
	domain.LineItem
	LineTotal   money.Amount `json:"lineTotal"`
	Description string       `json:"description,omitempty"`
	Formatted   string       `json:"formattedTotal"`
}

type cartResponse struct {
	Items          []cartLine   `json:"items"`
	ItemCount      int          `json:"itemCount"`
	Total          money.Amount `json:"total"`
	FormattedTotal string       `json:"formattedTotal"`
}

func toCartResponse(s *cart.Store) cartResponse {
	items := s.Items()
	lines := make([]cartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, cartLine{
			LineItem:    it,
			LineTotal:   it.Total(),
			Description: cart.CustomizationDescription(it),
			Formatted:   money.Format(it.Total()),
		})
	}
	total := s.Total()
	return cartResponse{
		Items:          lines,
		ItemCount:      s.ItemCount(),
		Total:          total,
		FormattedTotal: money.Format(total),
	}
}

// withCart runs fn on the session's cart and answers with the resulting cart, or maps the error.
func (h *handlers) withCart(c *gin.Context, status int, fn func(*cart.Store) error) {
	var resp cartResponse
	err := h.deps.Carts.With(c.Request.Context(), sessionID(c), func(s *cart.Store) error {
		if err := fn(s); err != nil {
			return err
		}
		resp = toCartResponse(s)
		return nil
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, resp)
}

func (h *handlers) getCart(c *gin.Context) {
	h.withCart(c, http.StatusOK, func(*cart.Store) error { return nil })
}

type addItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	view.Configuration
}

// addCartItem prices the configuration against the catalog; the client never sets the price.
func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, "InvalidJsonInput", err.Error())
		return
	}
	priced, err := h.deps.Products.Configure(c.Request.Context(), req.ProductID, req.Configuration)
	if err != nil {
		h.writeError(c, err)
		return
	}
	var (
		line domain.LineItem
		resp cartResponse
	)
	err = h.deps.Carts.With(c.Request.Context(), sessionID(c), func(s *cart.Store) error {
		var err error
		if line, err = s.Add(c.Request.Context(), priced.Line); err != nil {
			return err
		}
		resp = toCartResponse(s)
		return nil
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"line": line, "cart": resp})
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, "InvalidJsonInput", err.Error())
		return
	}
	lineID := c.Param("lineId")
	h.withCart(c, http.StatusOK, func(s *cart.Store) error {
		if _, found := s.FindByID(lineID); !found {
			return errors.Wrap(domain.ErrNotFound, "cart line")
		}
		return s.UpdateQuantity(c.Request.Context(), lineID, *req.Quantity)
	})
}

func (h *handlers) removeCartItem(c *gin.Context) {
	lineID := c.Param("lineId")
	h.withCart(c, http.StatusOK, func(s *cart.Store) error {
		return s.Remove(c.Request.Context(), lineID)
	})
}

func (h *handlers) clearCart(c *gin.Context) {
	h.withCart(c, http.StatusOK, func(s *cart.Store) error {
		return s.Clear(c.Request.Context())
	})
}
