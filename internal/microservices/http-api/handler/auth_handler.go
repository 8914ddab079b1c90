package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", h.Signup)
	rg.POST("/token", h.Token)
}

// Signup handles POST /auth/signup. A repeated request for an existing
// username/email pair resends the code and also answers 200.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.authService.Signup(ctx, req.Username, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SignupResponse{Username: user.Username, Email: user.Email})
}

// Token handles POST /auth/token.
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	token, err := h.authService.ExchangeToken(ctx, req.Username, req.ConfirmationCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token})
}
