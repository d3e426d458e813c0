package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"store-monitor-backend/internal/model"
	"store-monitor-backend/internal/report"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription registers a push subscription to be notified once the report finishes.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if !h.pushEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report push notifications are disabled"})
		return
	}

	id := c.Param("report_id")
	status, err := h.reports.Status(id)
	if errors.Is(err, report.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid report_id"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "report already finished", "status": status})
		return
	}

	sub := model.ReportSubscription{
		ReportID: id,
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.store.SaveSubscription(c.Request.Context(), &sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// The report may have finished while saving, after its subscribers were
	// notified. Nobody would ever send or clean up this subscription then.
	status, err = h.reports.Status(id)
	if err == nil && !status.Terminal() {
		c.Status(http.StatusCreated)
		return
	}
	if delErr := h.store.DeleteSubscription(c.Request.Context(), id, req.Endpoint); delErr != nil {
		log.Printf("Failed to remove subscription of finished report %s: %v", id, delErr)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid report_id"})
		return
	}
	c.JSON(http.StatusConflict, gin.H{"error": "report already finished", "status": status})
}
