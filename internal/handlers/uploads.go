package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/middleware"
)

const maxUploadSize = 5 << 20

// Upload handles POST /api/v1/uploads. The multipart field "file" is
// forwarded to the media host and only the resulting URL is returned.
func (h *Handlers) Upload(c *gin.Context) {
	if h.media == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image uploads are not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize+1<<10)
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required", "field": "file"})
		return
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be at most 5MB", "field": "file"})
		return
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be an image", "field": "file"})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer file.Close()

	url, err := h.media.Upload(c.Request.Context(), file, header.Filename)
	if err != nil {
		h.logger.Error("Image upload failed", logging.Fields{
			"restaurant_id": c.GetString(middleware.ContextKeyRestaurantID),
			"error":         err.Error(),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}
