package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
)

// ErrorMapping maps one sentinel error to a response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

// ErrorMapper converts service errors into HTTP responses. Rules are
// checked in order; the first match wins.
type ErrorMapper struct {
	mappings []ErrorMapping
	logger   *logging.Logger
}

func NewErrorMapper(logger *logging.Logger) *ErrorMapper {
	return &ErrorMapper{
		logger: logger,
		mappings: []ErrorMapping{
			{apperrors.ErrNotFound, http.StatusNotFound, "not found"},
			{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
			{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
			{apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
			{apperrors.ErrInvalidTransition, http.StatusConflict, ""},
			{apperrors.ErrCouponUnavailable, http.StatusConflict, ""},
			{apperrors.ErrDuplicate, http.StatusConflict, ""},
			{apperrors.ErrConflict, http.StatusConflict, "resource was modified concurrently"},
			{context.DeadlineExceeded, http.StatusGatewayTimeout, "request timeout"},
			{context.Canceled, http.StatusRequestTimeout, "request cancelled"},
		},
	}
}

// Map returns the status code and body for err. An empty Message in a
// mapping means the error's own text is safe to show.
func (m *ErrorMapper) Map(err error) (int, gin.H) {
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		body := gin.H{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		return http.StatusBadRequest, body
	}

	for _, mapping := range m.mappings {
		if errors.Is(err, mapping.Error) {
			msg := mapping.Message
			if msg == "" {
				msg = err.Error()
			}
			return mapping.Status, gin.H{"error": msg}
		}
	}

	return http.StatusInternalServerError, gin.H{"error": "internal server error"}
}

func (h *Handlers) handleError(c *gin.Context, err error) {
	status, body := h.mapper.Map(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", logging.Fields{
			"path":       c.Request.URL.Path,
			"request_id": logging.RequestIDFromContext(c.Request.Context()),
			"error":      err.Error(),
		})
	}
	_ = c.Error(err)
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// bindJSON decodes the body into dst, answering 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}
