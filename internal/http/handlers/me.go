package handlers

import (
	"net/http"

	"playearn/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	user, err := h.Services.Accounts.Profile(c.Request.Context(), userID, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":           user,
		"money_balance":  user.MoneyBalance().StringFixed(2),
		"coins_per_unit": domain.CoinsPerUnit,
		"admin":          h.Services.Accounts.IsAdmin(user),
	})
}

// CoinsHistory returns the user's recent rewarded ads.
func (h *Handler) CoinsHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	events, err := h.Services.Ads.History(c.Request.Context(), userID, queryLimit(c, 50, 200))
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []domain.AdEvent{}
	}

	c.JSON(http.StatusOK, gin.H{"history": events})
}
