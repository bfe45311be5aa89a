package http

import (
	"github.com/gin-gonic/gin"

	"roomsplit/internal/authprovider"
	"roomsplit/internal/token"
)

// LoginHandler is the login-adjacent path outside the room API table: it
// resolves an opaque external credential to a userId through the Auth
// Provider Client, then mints the bearer token every other endpoint
// checks. It never touches RoomService or RoomRepository.
type LoginHandler struct {
	authProvider authprovider.Client
	tokens       *token.Service
}

// NewLoginHandler creates a LoginHandler.
func NewLoginHandler(authProvider authprovider.Client, tokens *token.Service) *LoginHandler {
	if authProvider == nil || tokens == nil {
		panic("http: Client and token.Service must be non-nil for LoginHandler")
	}
	return &LoginHandler{authProvider: authProvider, tokens: tokens}
}

type loginRequest struct {
	Credential string `json:"credential" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /login.
func (h *LoginHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Failure(c, 400, "invalid request body")
		return
	}

	userID, err := h.authProvider.ExchangeCredential(c.Request.Context(), req.Credential)
	if err != nil {
		Failure(c, 401, "credential exchange failed")
		return
	}

	signed, err := h.tokens.Issue(userID)
	if err != nil {
		Failure(c, 500, "could not issue token")
		return
	}

	Success(c, loginResponse{Token: signed})
}
