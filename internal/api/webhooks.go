package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/acapy"
)

// Webhook ingests agent event notifications. The agent treats any non-200 as
// a delivery failure and retries, so this endpoint acknowledges everything:
// unknown topics, unparseable bodies, and events for correlation ids we have
// never seen are logged and dropped.
func (h *Handlers) Webhook(c *gin.Context) {
	topic := c.Param("topic")
	if topic != acapy.TopicPresentations {
		h.logger.Debug("Ignoring webhook topic", zap.String("topic", topic))
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	var update acapy.PresentationUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Warn("Unparseable presentation webhook", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	if update.State != acapy.StatePresentationReceived {
		h.logger.Debug("Ignoring presentation state",
			zap.String("state", update.State),
			zap.String("thread_id", update.ThreadID))
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	if update.ThreadID == "" || update.Presentation == nil {
		h.logger.Warn("Presentation webhook missing thread id or proof",
			zap.String("thread_id", update.ThreadID))
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	if err := h.services.Session.Satisfy(c.Request.Context(), update.ThreadID, update.Presentation); err != nil {
		// Unknown correlation ids happen when the session expired and was
		// swept, or the webhook arrived for someone else's exchange.
		h.logger.Warn("Failed to apply presentation webhook",
			zap.Error(err),
			zap.String("thread_id", update.ThreadID))
	}

	c.JSON(http.StatusOK, gin.H{})
}
