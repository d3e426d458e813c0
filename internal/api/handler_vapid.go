package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// pushEnabled reports whether report completion can be pushed to browsers.
func (h *Handler) pushEnabled() bool {
	return h.webpush != nil && h.webpush.VAPIDPublicKey != ""
}

// GetVAPIDPublicKey hands out the application server key a browser needs
// before it can subscribe to report completion via
// PUT /api/reports/:report_id/subscription.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if !h.pushEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report push notifications are disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
