package httpserver

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pizza-storefront/internal/combo"
	"pizza-storefront/internal/domain"
)

const adminTokenHeader = "X-Admin-Token"

type comboStep struct {
	CategoryID   string `json:"categoryId"`
	Name         string `json:"name"`
	MinSelection int    `json:"minSelection"`
	MaxSelection int    `json:"maxSelection"`
	Selected     int    `json:"selected"`
	Complete     bool   `json:"complete"`
	Reachable    bool   `json:"reachable"`
}

type comboState struct {
	Selections   domain.ComboSelection   `json:"selections"`
	Steps        []comboStep             `json:"steps"`
	CanAddToCart bool                    `json:"canAddToCart"`
	Errors       domain.ValidationErrors `json:"errors"`
}

func newComboState(cfg domain.ComboConfiguration, sel domain.ComboSelection) comboState {
	if sel == nil {
		sel = domain.ComboSelection{}
	}
	steps := make([]comboStep, 0, len(cfg))
	for i, cat := range cfg {
		steps = append(steps, comboStep{
			CategoryID:   cat.ID,
			Name:         cat.Name,
			MinSelection: cat.MinSelection,
			MaxSelection: cat.MaxSelection,
			Selected:     sel.Count(cat.ID),
			Complete:     combo.StepComplete(cfg, sel, i),
			Reachable:    combo.StepReachable(cfg, sel, i),
		})
	}
	errs := combo.Validate(cfg, sel)
	if errs == nil {
		errs = domain.ValidationErrors{}
	}
	return comboState{
		Selections:   sel,
		Steps:        steps,
		CanAddToCart: combo.CanAddToCart(cfg, sel),
		Errors:       errs,
	}
}

// comboConfig resolves the product's combo categories, answering 404 for a non-combo product.
func (h *handlers) comboConfig(c *gin.Context) (domain.ComboConfiguration, bool) {
	id, ok := productID(c)
	if !ok {
		return nil, false
	}
	cfg := h.deps.Combos.ComboConfig(c.Request.Context(), id)
	if len(cfg) == 0 {
		writeAPIError(c, http.StatusNotFound, "ResourceNotFound", "product is not a combo")
		return nil, false
	}
	return cfg, true
}

type comboStepsRequest struct {
	Selections domain.ComboSelection `json:"selections"`
}

// comboSteps reports per-step progress of the wizard for the given selection.
func (h *handlers) comboSteps(c *gin.Context) {
	cfg, ok := h.comboConfig(c)
	if !ok {
		return
	}
	var req comboStepsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, "InvalidJsonInput", err.Error())
		return
	}
	c.JSON(http.StatusOK, newComboState(cfg, req.Selections))
}

type comboToggleRequest struct {
	CategoryID string                `json:"categoryId" binding:"required"`
	Pick       domain.ComboPick      `json:"pick"`
	Selections domain.ComboSelection `json:"selections"`
}

func (h *handlers) comboToggle(c *gin.Context) {
	cfg, ok := h.comboConfig(c)
	if !ok {
		return
	}
	var req comboToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, "InvalidJsonInput", err.Error())
		return
	}
	if _, known := cfg.Category(req.CategoryID); !known {
		writeAPIError(c, http.StatusBadRequest, "InvalidInput", "unknown combo category")
		return
	}
	if req.Pick.ID <= 0 {
		writeAPIError(c, http.StatusBadRequest, "InvalidInput", "invalid pick id")
		return
	}
	c.JSON(http.StatusOK, newComboState(cfg, combo.Toggle(cfg, req.Selections, req.CategoryID, req.Pick)))
}

func (h *handlers) labels(c *gin.Context) {
	ctx := c.Request.Context()
	raw := c.Query("productId")
	if raw == "" {
		c.JSON(http.StatusOK, gin.H{"results": h.deps.Combos.AllLabels(ctx)})
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeAPIError(c, http.StatusBadRequest, "InvalidInput", "invalid product id")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results": h.deps.Combos.ProductLabels(ctx, id),
		"isCombo": h.deps.Combos.IsCombo(ctx, id),
	})
}

func (h *handlers) attributes(c *gin.Context) {
	attrs, err := h.deps.Catalog.FetchAttributes(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": attrs, "count": len(attrs)})
}

func (h *handlers) attributeTerms(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeAPIError(c, http.StatusBadRequest, "InvalidInput", "invalid attribute id")
		return
	}
	terms, err := h.deps.Catalog.FetchAttributeTerms(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": terms, "count": len(terms)})
}

// clearCaches drops the cached store settings and combo configuration so the next read refetches.
func (h *handlers) clearCaches(c *gin.Context) {
	h.deps.Catalog.ClearCache()
	h.deps.Combos.ClearCache()
	h.logger.Info("caches cleared", "remote", c.ClientIP())
	c.Status(http.StatusNoContent)
}

// adminAuth admits requests carrying the configured token.
func adminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(adminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			writeAPIError(c, http.StatusUnauthorized, "Unauthorized", "invalid admin token")
			c.Abort()
			return
		}
		c.Next()
	}
}
