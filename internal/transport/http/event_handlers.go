package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/notify"
)

// Event type tokens accepted by the events endpoint. MessageSent is absent
// on purpose: message notifications are produced by the send-message path.
const (
	eventApplicationStatusChanged = "application_status_changed"
	eventPaymentStatusChanged     = "payment_status_changed"
	eventDealPosted               = "deal_posted"
)

// EventHandlers lets the deal, application and payment systems inject
// domain events into the notification dispatcher.
type EventHandlers struct {
	dispatcher *notify.Dispatcher
	log        *zerolog.Logger
}

// NewEventHandlers creates a new event handlers instance.
func NewEventHandlers(dispatcher *notify.Dispatcher, logger *zerolog.Logger) *EventHandlers {
	return &EventHandlers{
		dispatcher: dispatcher,
		log:        logger,
	}
}

// EventRequest represents the dispatch request body. Fields beyond type and
// user_id are variant-specific.
type EventRequest struct {
	Type   string `json:"type" binding:"required"`
	UserID int64  `json:"user_id" binding:"required"`

	DealTitle   string  `json:"deal_title"`
	BrandName   string  `json:"brand_name"`
	Status      string  `json:"status"`
	Amount      float64 `json:"amount"`
	PaymentType string  `json:"payment_type"`
	Budget      float64 `json:"budget"`
}

// Dispatch formats and delivers one domain event.
// POST /api/events
func (h *EventHandlers) Dispatch(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid event request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "type and user_id are required"})
		return
	}

	var event notify.Event
	switch req.Type {
	case eventApplicationStatusChanged:
		event = notify.ApplicationStatusChanged{
			DealTitle: req.DealTitle,
			Status:    req.Status,
			BrandName: req.BrandName,
			UserID:    req.UserID,
		}
	case eventPaymentStatusChanged:
		event = notify.PaymentStatusChanged{
			Amount: req.Amount,
			Type:   req.PaymentType,
			Status: req.Status,
			UserID: req.UserID,
		}
	case eventDealPosted:
		event = notify.DealPosted{
			DealTitle: req.DealTitle,
			BrandName: req.BrandName,
			Budget:    req.Budget,
			UserID:    req.UserID,
		}
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown event type"})
		return
	}

	n, err := h.dispatcher.Notify(c.Request.Context(), event)
	if err != nil {
		h.log.Error().Err(err).Str("event_type", req.Type).Int64("user_id", req.UserID).Msg("failed to dispatch event")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"notification_id": n.ID})
}
