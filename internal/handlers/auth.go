package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"mixmate/internal/handlers/render"
	"mixmate/internal/models"
)

// TokenExchanger trades OAuth authorization codes for user tokens
type TokenExchanger interface {
	Exchange(ctx context.Context, platform models.Source, code, redirectURL string) (*oauth2.Token, error)
}

// TokenRequest carries the code returned to the client's redirect
type TokenRequest struct {
	Code        string `json:"code" binding:"required"`
	RedirectURI string `json:"redirect_uri"`
}

// TokenResponse is handed back to the client, which holds the token
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// AuthHandler handles OAuth code exchange
type AuthHandler struct {
	exchanger TokenExchanger
	redirects func(platform string) string
}

// NewAuthHandler creates a new auth handler. redirects supplies the
// configured redirect URL used when a request does not name one.
func NewAuthHandler(exchanger TokenExchanger, redirects func(platform string) string) *AuthHandler {
	return &AuthHandler{exchanger: exchanger, redirects: redirects}
}

// ExchangeToken handles POST /api/v1/auth/:platform/token
func (h *AuthHandler) ExchangeToken(c *gin.Context) {
	platform := c.Param("platform")

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.BadRequest(c, "Invalid request body", err)
		return
	}

	redirect := req.RedirectURI
	if redirect == "" && h.redirects != nil {
		redirect = h.redirects(platform)
	}

	token, err := h.exchanger.Exchange(c.Request.Context(), models.Source(platform), req.Code, redirect)
	if err != nil {
		render.FromError(c, "Token exchange failed", err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  token.AccessToken,
		TokenType:    token.Type(),
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	})
}
