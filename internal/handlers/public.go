package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

// Customer-facing endpoints. None of them require a token; the
// restaurant comes from the path.

// GetPublicRestaurant handles GET /api/v1/public/restaurants/:restaurantId
func (h *Handlers) GetPublicRestaurant(c *gin.Context) {
	restaurant, err := h.restaurant.GetPublic(c.Request.Context(), c.Param("restaurantId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, restaurant)
}

// GetMenu handles GET /api/v1/public/restaurants/:restaurantId/menu
func (h *Handlers) GetMenu(c *gin.Context) {
	menu, err := h.menu.GetMenu(c.Request.Context(), c.Param("restaurantId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, menu)
}

// GetQRCode handles GET /api/v1/public/restaurants/:restaurantId/qrcode
func (h *Handlers) GetQRCode(c *gin.Context) {
	png, err := h.qrcode.Generate(c.Request.Context(), c.Param("restaurantId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

// GetActiveOffers handles GET /api/v1/public/restaurants/:restaurantId/offers
func (h *Handlers) GetActiveOffers(c *gin.Context) {
	offers, err := h.loyalty.ActiveOffers(c.Request.Context(), c.Param("restaurantId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, nonNil(offers))
}

// GetActiveCombos handles GET /api/v1/public/restaurants/:restaurantId/combos
func (h *Handlers) GetActiveCombos(c *gin.Context) {
	combos, err := h.loyalty.ActiveCombos(c.Request.Context(), c.Param("restaurantId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, nonNil(combos))
}

// GetActivePopup handles GET /api/v1/public/restaurants/:restaurantId/popup
func (h *Handlers) GetActivePopup(c *gin.Context) {
	popup, err := h.loyalty.ActivePopup(c.Request.Context(), c.Param("restaurantId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, popup)
}

// GetActiveSliders handles GET /api/v1/public/restaurants/:restaurantId/sliders
func (h *Handlers) GetActiveSliders(c *gin.Context) {
	sliders, err := h.loyalty.ActiveSliders(c.Request.Context(), c.Param("restaurantId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, nonNil(sliders))
}

// ValidateCoupon handles POST /api/v1/public/restaurants/:restaurantId/coupons/validate
func (h *Handlers) ValidateCoupon(c *gin.Context) {
	var req models.ValidateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.loyalty.ValidateCoupon(c.Request.Context(), c.Param("restaurantId"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PlaceOrder handles POST /api/v1/public/restaurants/:restaurantId/orders
func (h *Handlers) PlaceOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), c.Param("restaurantId"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// TrackOrder handles GET /api/v1/public/orders/:orderId
func (h *Handlers) TrackOrder(c *gin.Context) {
	order, err := h.orders.TrackOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// RegisterUser handles POST /api/v1/public/users
func (h *Handlers) RegisterUser(c *gin.Context) {
	var req models.RegisterUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
