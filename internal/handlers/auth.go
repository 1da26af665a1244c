package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-ledger-backend/internal/services"
)

// AuthHandler exchanges an externally-verified account id for a session
// token. Identity verification itself happens upstream; this service
// trusts the id it is handed and only guarantees the ledger record
// exists before issuing a token.
type AuthHandler struct {
	ledger     *services.Ledger
	jwtService *services.JWTService
}

func NewAuthHandler(ledger *services.Ledger, jwtService *services.JWTService) *AuthHandler {
	return &AuthHandler{ledger: ledger, jwtService: jwtService}
}

type sessionRequest struct {
	AccountID string `json:"accountId" binding:"required"`
}

func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	// First authentication creates the account with its seeded balance.
	acc, err := h.ledger.EnsureAccount(c.Request.Context(), req.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.jwtService.GenerateToken(acc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"account": acc,
	})
}
