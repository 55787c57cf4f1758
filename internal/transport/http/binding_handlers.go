package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/store"
)

// BindingHandlers provides HTTP handlers for channel binding registration.
// The caller supplying (user_id, chat_id) pairs is trusted; establishing
// that the pair actually belongs together happens outside this service.
type BindingHandlers struct {
	store store.BindingStore
	log   *zerolog.Logger
}

// NewBindingHandlers creates a new binding handlers instance.
func NewBindingHandlers(st store.BindingStore, logger *zerolog.Logger) *BindingHandlers {
	return &BindingHandlers{
		store: st,
		log:   logger,
	}
}

// BindingRequest represents the binding registration request body.
type BindingRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	ChatID string `json:"chat_id" binding:"required"`
}

// Register creates or overwrites a user's channel binding.
// POST /api/telegram/bindings
func (h *BindingHandlers) Register(c *gin.Context) {
	var req BindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid binding request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id and chat_id are required"})
		return
	}

	if err := h.store.UpsertBinding(c.Request.Context(), req.UserID, req.ChatID); err != nil {
		h.log.Error().Err(err).Int64("user_id", req.UserID).Msg("failed to register binding")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("user_id", req.UserID).Str("chat_id", req.ChatID).Msg("channel binding registered")
	c.JSON(http.StatusOK, gin.H{"success": true})
}
