package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

// GetRestaurant handles GET /api/v1/restaurant
func (h *Handlers) GetRestaurant(c *gin.Context) {
	restaurant, err := h.restaurant.Current(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, restaurant)
}

// UpdateRestaurant handles PUT /api/v1/restaurant
func (h *Handlers) UpdateRestaurant(c *gin.Context) {
	var req models.UpdateRestaurantRequest
	if !bindJSON(c, &req) {
		return
	}

	restaurant, err := h.restaurant.Update(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, restaurant)
}

// UpdateTax handles PUT /api/v1/restaurant/tax
func (h *Handlers) UpdateTax(c *gin.Context) {
	var req models.UpdateTaxRequest
	if !bindJSON(c, &req) {
		return
	}

	restaurant, err := h.restaurant.UpdateTax(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, restaurant)
}

// DeleteRestaurant handles DELETE /api/v1/restaurant
func (h *Handlers) DeleteRestaurant(c *gin.Context) {
	if err := h.restaurant.Delete(c.Request.Context()); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
