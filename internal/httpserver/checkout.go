package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pizza-storefront/internal/cart"
	"pizza-storefront/internal/checkout"
	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/money"
)

func (h *handlers) getForm(c *gin.Context) {
	f, err := h.deps.Checkout.LoadForm(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *handlers) putForm(c *gin.Context) {
	var f checkout.Form
	if err := c.ShouldBindJSON(&f); err != nil {
		writeAPIError(c, http.StatusBadRequest, "InvalidJsonInput", err.Error())
		return
	}
	if err := h.deps.Checkout.SaveForm(c.Request.Context(), sessionID(c), f); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *handlers) addresses(c *gin.Context) {
	list, err := h.deps.Checkout.Addresses(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list})
}

func (h *handlers) summary(c *gin.Context) {
	var subtotal money.Amount
	err := h.deps.Carts.With(c.Request.Context(), sessionID(c), func(s *cart.Store) error {
		subtotal = s.Total()
		return nil
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	fulfillment := domain.NormalizeFulfillment(c.Query("orderType"))
	c.JSON(http.StatusOK, h.deps.Checkout.Summarize(c.Request.Context(), subtotal, fulfillment))
}

func (h *handlers) submit(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, "InvalidJsonInput", err.Error())
		return
	}
	res, err := h.deps.Checkout.Submit(c.Request.Context(), sessionID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
