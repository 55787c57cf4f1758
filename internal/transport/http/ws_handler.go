package http

import (
	"context"
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/notify"
	"github.com/vovakirdan/dealhub-server/internal/store"
)

// WSHandler streams created notifications to the authenticated user over a
// websocket. The stream is one-way: server to client only.
type WSHandler struct {
	hub *notify.Hub
	log *zerolog.Logger
}

// NewWSHandler builds a new websocket notification handler.
func NewWSHandler(hub *notify.Hub, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: logger}
}

// wsNotification is the wire shape of one streamed notification.
type wsNotification struct {
	Type string               `json:"type"`
	Data NotificationResponse `json:"data"`
}

// Stream upgrades the connection and forwards the user's notifications
// until the client disconnects.
// GET /ws/notifications
func (h *WSHandler) Stream(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.AbortWithStatus(401)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	events, cancel := h.hub.Subscribe(userID)
	defer cancel()

	// No inbound messages are expected; CloseRead keeps control frames
	// flowing and cancels the context when the client goes away.
	ctx := conn.CloseRead(c.Request.Context())

	h.log.Debug().Int64("user_id", userID).Msg("notification stream opened")

	for {
		select {
		case n := <-events:
			if err := h.write(ctx, conn, n); err != nil {
				if !errors.Is(err, context.Canceled) {
					h.log.Warn().Err(err).Int64("user_id", userID).Msg("write ws notification")
				}
				conn.Close(websocket.StatusNormalClosure, "closing")
				return
			}
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "closing")
			return
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, n *store.Notification) error {
	return wsjson.Write(ctx, conn, wsNotification{
		Type: "notification",
		Data: NotificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339Nano),
		},
	})
}
