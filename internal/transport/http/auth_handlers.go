package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/auth"
	"github.com/vovakirdan/dealhub-server/internal/store"
)

// AuthHandlers provides HTTP handlers for account endpoints.
type AuthHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAuthHandlers creates a new auth handlers instance.
func NewAuthHandlers(authService *auth.Service, logger *zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=32"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required,oneof=brand influencer"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string `json:"token"`
}

// Register handles user registration.
// POST /api/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Register(c.Request.Context(), req.Username, req.Password, req.DisplayName, store.Role(req.Role))
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to register user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("username", req.Username).Str("role", req.Role).Msg("user registered successfully")
	c.JSON(http.StatusCreated, AuthResponse{Token: token})
}

// Login handles user login.
// POST /api/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("username", req.Username).Msg("user logged in successfully")
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}
