package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-ledger-backend/internal/models"
	"casino-ledger-backend/internal/services"
)

type LedgerHandler struct {
	ledger *services.Ledger
}

func NewLedgerHandler(ledger *services.Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// domainStatus maps a typed ledger error to an HTTP status and a stable
// machine-readable code. Anything unrecognized is a transient failure
// the client may retry.
func domainStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidAmount):
		return http.StatusBadRequest, "INVALID_AMOUNT"
	case errors.Is(err, models.ErrInvalidBet):
		return http.StatusBadRequest, "INVALID_BET"
	case errors.Is(err, models.ErrInvalidPayout):
		return http.StatusBadRequest, "INVALID_PAYOUT"
	case errors.Is(err, models.ErrInvalidUsername):
		return http.StatusBadRequest, "INVALID_USERNAME"
	case errors.Is(err, models.ErrAccountNotFound):
		return http.StatusNotFound, "ACCOUNT_NOT_FOUND"
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusConflict, "INSUFFICIENT_FUNDS"
	case errors.Is(err, models.ErrNoRakebackAvailable):
		return http.StatusConflict, "NO_RAKEBACK_AVAILABLE"
	case errors.Is(err, models.ErrTxConflict):
		return http.StatusServiceUnavailable, "TRY_AGAIN"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := domainStatus(err)
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  code,
	})
}

func (h *LedgerHandler) GetBalance(c *gin.Context) {
	accountID := c.GetString("account_id")

	acc, err := h.ledger.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":           acc.Balance,
		"totalWagered":      acc.TotalWagered,
		"totalWon":          acc.TotalWon,
		"gamesPlayed":       acc.GamesPlayed,
		"rakebackAvailable": acc.RakebackAvailable,
	})
}

func (h *LedgerHandler) GetMe(c *gin.Context) {
	accountID := c.GetString("account_id")

	acc, err := h.ledger.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      acc.ID,
		"account": acc,
	})
}

type depositRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (h *LedgerHandler) Deposit(c *gin.Context) {
	accountID := c.GetString("account_id")

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	balance, err := h.ledger.Deposit(c.Request.Context(), accountID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *LedgerHandler) Settle(c *gin.Context) {
	accountID := c.GetString("account_id")

	var req models.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, err := h.ledger.Settle(c.Request.Context(), accountID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *LedgerHandler) ClaimRakeback(c *gin.Context) {
	accountID := c.GetString("account_id")

	claim, err := h.ledger.ClaimRakeback(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, claim)
}

// GetVIP reports the account's tier and its progress toward the next one.
// Read-only; shares the exact tier logic the settlement path uses.
func (h *LedgerHandler) GetVIP(c *gin.Context) {
	accountID := c.GetString("account_id")

	acc, err := h.ledger.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	tier := models.TierFor(acc.TotalWager)
	resp := gin.H{
		"totalWager":          acc.TotalWager,
		"tier":                tier,
		"rakebackAvailable":   acc.RakebackAvailable,
		"totalRakebackEarned": acc.TotalRakebackEarned,
		"lastRakebackClaim":   acc.LastRakebackClaim,
	}
	if next, ok := models.NextTier(acc.TotalWager); ok {
		resp["nextTier"] = next
		resp["wagerToNextTier"] = models.Round2(next.WagerRequired - acc.TotalWager)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *LedgerHandler) GetHistory(c *gin.Context) {
	accountID := c.GetString("account_id")

	limit := int64(50)
	entries, err := h.ledger.History(c.Request.Context(), accountID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type profileRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	IsPrivate *bool   `json:"isPrivate"`
}

func (h *LedgerHandler) UpdateProfile(c *gin.Context) {
	accountID := c.GetString("account_id")

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	acc, err := h.ledger.UpdateProfile(c.Request.Context(), accountID, req.Username, req.Email, req.IsPrivate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": acc})
}
