package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/auth"
	"github.com/vovakirdan/dealhub-server/internal/config"
	"github.com/vovakirdan/dealhub-server/internal/conversations"
	"github.com/vovakirdan/dealhub-server/internal/notify"
	"github.com/vovakirdan/dealhub-server/internal/store"
)

// NewServer builds the HTTP server with all API routes registered.
func NewServer(
	cfg config.Config,
	authService *auth.Service,
	st store.Store,
	convs *conversations.Service,
	dispatcher *notify.Dispatcher,
	hub *notify.Hub,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	engine.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	authHandlers := NewAuthHandlers(authService, logger)
	messageHandlers := NewMessageHandlers(st, convs, dispatcher, logger)
	notificationHandlers := NewNotificationHandlers(st, logger)
	eventHandlers := NewEventHandlers(dispatcher, logger)
	bindingHandlers := NewBindingHandlers(st, logger)
	wsHandler := NewWSHandler(hub, logger)

	api := engine.Group("/api")
	api.POST("/register", authHandlers.Register)
	api.POST("/login", authHandlers.Login)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.POST("/messages", messageHandlers.SendMessage)
	authed.GET("/messages", messageHandlers.ListThread)
	authed.GET("/conversations", messageHandlers.ListConversations)
	authed.GET("/notifications", notificationHandlers.List)
	authed.POST("/notifications/:id/read", notificationHandlers.MarkRead)
	authed.POST("/events", eventHandlers.Dispatch)
	authed.POST("/telegram/bindings", bindingHandlers.Register)

	engine.GET("/ws/notifications", AuthMiddleware(authService, logger), wsHandler.Stream)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
