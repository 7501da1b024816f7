package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pizza-storefront/internal/domain"
)

type apiError struct {
	StatusCode int                      `json:"statusCode"`
	Message    string                   `json:"message"`
	Code       string                   `json:"code"`
	Retryable  bool                     `json:"retryable,omitempty"`
	Errors     []domain.ValidationError `json:"errors,omitempty"`
}

func writeAPIError(c *gin.Context, status int, code, message string) {
	c.JSON(status, apiError{StatusCode: status, Code: code, Message: message})
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func (h *handlers) writeError(c *gin.Context, err error) {
	var (
		verrs  domain.ValidationErrors
		submit *domain.OrderSubmissionError
		cat    *domain.CatalogUnavailableError
	)
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, apiError{
			StatusCode: http.StatusUnprocessableEntity,
			Code:       "InvalidInput",
			Message:    "validation failed",
			Errors:     verrs,
		})
	case errors.As(err, &submit):
		c.JSON(http.StatusBadGateway, apiError{
			StatusCode: http.StatusBadGateway,
			Code:       "OrderSubmissionFailed",
			Message:    "the order could not be placed, please try again",
			Retryable:  true,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeAPIError(c, http.StatusNotFound, "ResourceNotFound", "resource not found")
	case errors.Is(err, domain.ErrSuperseded):
		writeAPIError(c, http.StatusConflict, "Superseded", err.Error())
	case errors.As(err, &cat):
		c.JSON(http.StatusBadGateway, apiError{
			StatusCode: http.StatusBadGateway,
			Code:       "CatalogUnavailable",
			Message:    cat.Error(),
			Retryable:  true,
		})
	default:
		h.logger.Error("request failed", "path", c.FullPath(), "err", err)
		writeAPIError(c, http.StatusInternalServerError, "General", "internal error")
	}
}
