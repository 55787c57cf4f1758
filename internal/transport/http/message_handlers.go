package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/conversations"
	"github.com/vovakirdan/dealhub-server/internal/notify"
	"github.com/vovakirdan/dealhub-server/internal/store"
)

// MessageHandlers provides HTTP handlers for messaging endpoints.
type MessageHandlers struct {
	store         store.Store
	conversations *conversations.Service
	dispatcher    *notify.Dispatcher
	log           *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.Store, convs *conversations.Service, dispatcher *notify.Dispatcher, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store:         st,
		conversations: convs,
		dispatcher:    dispatcher,
		log:           logger,
	}
}

// SendMessageRequest represents the send message request body.
type SendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID         string `json:"id"`
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

// UserResponse represents a counterpart in API responses.
type UserResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// ConversationResponse represents one conversation entry.
type ConversationResponse struct {
	Counterpart UserResponse    `json:"counterpart"`
	LastMessage MessageResponse `json:"last_message"`
	UnreadCount int             `json:"unread_count"`
}

func messageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339Nano),
	}
}

// SendMessage appends a message to the log and notifies the receiver.
// POST /api/messages
func (h *MessageHandlers) SendMessage(c *gin.Context) {
	senderID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "receiver_id and content are required"})
		return
	}

	// Check if receiver exists
	if _, err := h.store.GetUserByID(c.Request.Context(), req.ReceiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "receiver not found"})
			return
		}
		h.log.Error().Err(err).Int64("receiver_id", req.ReceiverID).Msg("failed to resolve receiver")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	msg, err := h.store.CreateMessage(c.Request.Context(), senderID, req.ReceiverID, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "content must not be empty"})
			return
		}
		h.log.Error().Err(err).Int64("sender_id", senderID).Msg("failed to create message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	// The message is durable at this point; a notification failure is
	// logged but does not turn the committed send into an error.
	senderName := c.GetString(ContextKeyUsername)
	if sender, err := h.store.GetUserByID(c.Request.Context(), senderID); err == nil && sender.DisplayName != "" {
		senderName = sender.DisplayName
	}
	if _, err := h.dispatcher.Notify(c.Request.Context(), notify.MessageSent{Message: msg, SenderName: senderName}); err != nil {
		h.log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to notify receiver")
	}

	c.JSON(http.StatusCreated, messageResponse(msg))
}

// ListThread returns the message thread with another user, oldest first,
// and marks the conversation as read for the caller.
// GET /api/messages?user_id=X
func (h *MessageHandlers) ListThread(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	raw := c.Query("user_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
		return
	}
	counterpartID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id must be an integer"})
		return
	}

	messages, err := h.conversations.OpenThread(c.Request.Context(), viewerID, counterpartID)
	if err != nil {
		h.log.Error().Err(err).Int64("viewer_id", viewerID).Int64("counterpart_id", counterpartID).Msg("failed to list thread")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, messageResponse(msg))
	}

	c.JSON(http.StatusOK, response)
}

// ListConversations returns the caller's conversation index.
// GET /api/conversations
func (h *MessageHandlers) ListConversations(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	convs, err := h.conversations.For(c.Request.Context(), viewerID)
	if err != nil {
		h.log.Error().Err(err).Int64("viewer_id", viewerID).Msg("failed to list conversations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		response = append(response, ConversationResponse{
			Counterpart: UserResponse{
				ID:          conv.Counterpart.ID,
				Username:    conv.Counterpart.Username,
				DisplayName: conv.Counterpart.DisplayName,
				Role:        string(conv.Counterpart.Role),
			},
			LastMessage: messageResponse(conv.LastMessage),
			UnreadCount: conv.UnreadCount,
		})
	}

	c.JSON(http.StatusOK, response)
}
