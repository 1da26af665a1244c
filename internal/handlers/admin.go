package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"casino-ledger-backend/internal/models"
	"casino-ledger-backend/internal/services"
)

type AdminHandler struct {
	admin *services.Admin
}

func NewAdminHandler(admin *services.Admin) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.admin.ListAllAccounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]gin.H, 0, len(accounts))
	for _, acc := range accounts {
		ids = append(ids, gin.H{"id": acc.ID, "account": acc})
	}
	c.JSON(http.StatusOK, gin.H{"accounts": ids, "count": len(ids)})
}

func (h *AdminHandler) Leaderboard(c *gin.Context) {
	limit := 25
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	accounts, err := h.admin.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	rows := make([]gin.H, 0, len(accounts))
	for i, acc := range accounts {
		rows = append(rows, gin.H{
			"rank":         i + 1,
			"username":     acc.Username,
			"totalWagered": acc.TotalWagered,
			"totalWon":     acc.TotalWon,
			"gamesPlayed":  acc.GamesPlayed,
			"tier":         models.TierFor(acc.TotalWager).Name,
		})
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
}

type adjustBalanceRequest struct {
	Balance float64 `json:"balance"`
}

func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	id := c.Param("id")

	var req adjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	acc, err := h.admin.AdjustBalance(c.Request.Context(), id, req.Balance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acc})
}

type adminFlagRequest struct {
	Admin bool `json:"admin"`
}

func (h *AdminHandler) SetAdminFlag(c *gin.Context) {
	id := c.Param("id")

	var req adminFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	acc, err := h.admin.SetAdminFlag(c.Request.Context(), id, req.Admin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acc})
}

func (h *AdminHandler) ResetStats(c *gin.Context) {
	id := c.Param("id")

	acc, err := h.admin.ResetStats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acc})
}

func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	id := c.Param("id")

	if err := h.admin.DeleteAccount(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *AdminHandler) Migrate(c *gin.Context) {
	report, err := h.admin.MigrateMissingFields(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
