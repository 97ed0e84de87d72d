package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

// Resource groups the five CRUD handlers of one merchant-owned
// collection.
type Resource struct {
	List   gin.HandlerFunc
	Create gin.HandlerFunc
	Get    gin.HandlerFunc
	Update gin.HandlerFunc
	Delete gin.HandlerFunc
}

type crudOps[T any] struct {
	list   func(ctx context.Context) ([]*T, error)
	create func(ctx context.Context, v *T) (*T, error)
	get    func(ctx context.Context, id string) (*T, error)
	update func(ctx context.Context, id string, v *T) (*T, error)
	remove func(ctx context.Context, id string) error
}

func resource[T any](h *Handlers, ops crudOps[T]) Resource {
	return Resource{
		List: func(c *gin.Context) {
			items, err := ops.list(c.Request.Context())
			if err != nil {
				h.handleError(c, err)
				return
			}
			c.JSON(http.StatusOK, nonNil(items))
		},
		Create: func(c *gin.Context) {
			var v T
			if !bindJSON(c, &v) {
				return
			}
			created, err := ops.create(c.Request.Context(), &v)
			if err != nil {
				h.handleError(c, err)
				return
			}
			c.JSON(http.StatusCreated, created)
		},
		Get: func(c *gin.Context) {
			item, err := ops.get(c.Request.Context(), c.Param("id"))
			if err != nil {
				h.handleError(c, err)
				return
			}
			c.JSON(http.StatusOK, item)
		},
		Update: func(c *gin.Context) {
			var v T
			if !bindJSON(c, &v) {
				return
			}
			updated, err := ops.update(c.Request.Context(), c.Param("id"), &v)
			if err != nil {
				h.handleError(c, err)
				return
			}
			c.JSON(http.StatusOK, updated)
		},
		Delete: func(c *gin.Context) {
			if err := ops.remove(c.Request.Context(), c.Param("id")); err != nil {
				h.handleError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		},
	}
}

// Offers handles /api/v1/offers
func (h *Handlers) Offers() Resource {
	return resource(h, crudOps[models.Offer]{
		list:   h.loyalty.ListOffers,
		create: h.loyalty.CreateOffer,
		get:    h.loyalty.GetOffer,
		update: h.loyalty.UpdateOffer,
		remove: h.loyalty.DeleteOffer,
	})
}

// Coupons handles /api/v1/coupons
func (h *Handlers) Coupons() Resource {
	return resource(h, crudOps[models.CouponCode]{
		list:   h.loyalty.ListCoupons,
		create: h.loyalty.CreateCoupon,
		get:    h.loyalty.GetCoupon,
		update: h.loyalty.UpdateCoupon,
		remove: h.loyalty.DeleteCoupon,
	})
}

// Combos handles /api/v1/combos
func (h *Handlers) Combos() Resource {
	return resource(h, crudOps[models.ComboDeal]{
		list:   h.loyalty.ListCombos,
		create: h.loyalty.CreateCombo,
		get:    h.loyalty.GetCombo,
		update: h.loyalty.UpdateCombo,
		remove: h.loyalty.DeleteCombo,
	})
}

// Popups handles /api/v1/popups
func (h *Handlers) Popups() Resource {
	return resource(h, crudOps[models.PopUpImage]{
		list:   h.loyalty.ListPopups,
		create: h.loyalty.CreatePopup,
		get:    h.loyalty.GetPopup,
		update: h.loyalty.UpdatePopup,
		remove: h.loyalty.DeletePopup,
	})
}

// Sliders handles /api/v1/sliders
func (h *Handlers) Sliders() Resource {
	return resource(h, crudOps[models.SliderImage]{
		list:   h.loyalty.ListSliders,
		create: h.loyalty.CreateSlider,
		get:    h.loyalty.GetSlider,
		update: h.loyalty.UpdateSlider,
		remove: h.loyalty.DeleteSlider,
	})
}

// ActivatePopup handles POST /api/v1/popups/:id/activate
func (h *Handlers) ActivatePopup(c *gin.Context) {
	popup, err := h.loyalty.ActivatePopup(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, popup)
}
