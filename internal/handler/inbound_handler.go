package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amikeal/sms-checkin-relay/internal/dto"
	"github.com/amikeal/sms-checkin-relay/internal/service"
	"github.com/amikeal/sms-checkin-relay/pkg/logger"
)

// dedupeTTL bounds how long a carrier message SID is remembered.
// Carriers retry failed webhook deliveries for at most a few hours.
const dedupeTTL = 24 * time.Hour

// Deduper suppresses repeated processing of the same carrier delivery
type Deduper interface {
	// ClaimOnce returns true the first time a key is claimed
	ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// InboundHandler handles carrier webhook deliveries
type InboundHandler struct {
	relayService service.RelayService
	deduper      Deduper // optional
}

// NewInboundHandler creates a new InboundHandler. deduper may be nil to
// disable duplicate-delivery suppression.
func NewInboundHandler(relayService service.RelayService, deduper Deduper) *InboundHandler {
	return &InboundHandler{
		relayService: relayService,
		deduper:      deduper,
	}
}

// Handle processes one inbound SMS delivery and replies with plain text.
// The reply body is what the carrier forwards back to the sender; an
// internal error becomes HTTP 500 so the carrier reports delivery
// failure instead of texting an empty reply.
// POST /webhook/inbound
func (h *InboundHandler) Handle(c *gin.Context) {
	var req dto.InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "")
		return
	}

	ctx := c.Request.Context()
	log := logger.Get().WithContext(ctx)

	if h.deduper != nil && req.MessageSid != "" {
		first, err := h.deduper.ClaimOnce(ctx, "sms:sid:"+req.MessageSid, dedupeTTL)
		if err != nil {
			// Dedupe is best-effort; a cache outage must not drop messages.
			log.Warn("dedupe check failed, processing anyway",
				zap.String("message_sid", req.MessageSid),
				zap.Error(err),
			)
		} else if !first {
			log.Info("duplicate delivery suppressed",
				zap.String("message_sid", req.MessageSid),
			)
			c.String(http.StatusOK, "")
			return
		}
	}

	reply, err := h.relayService.HandleInbound(ctx, &req)
	if err != nil {
		log.Error("inbound handling failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "")
		return
	}

	c.String(http.StatusOK, reply)
}
