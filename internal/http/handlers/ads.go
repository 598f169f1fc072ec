package handlers

import (
	"net/http"

	"playearn/internal/domain"

	"github.com/gin-gonic/gin"
)

type AdCompleteRequest struct {
	AdType string `json:"ad_type" binding:"required"`
	GameID string `json:"game_id"`
}

// AdRequest is the pre-check before the client shows an ad. A denied ad is a
// normal answer, not an error.
func (h *Handler) AdRequest(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	v, err := h.Services.Ads.Request(c.Request.Context(), userID, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, v)
}

func (h *Handler) AdComplete(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req AdCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	res, err := h.Services.Ads.CompleteAd(c.Request.Context(), userID, domain.AdType(req.AdType), req.GameID, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reward_granted": res.Granted,
		"reward_amount":  res.RewardCoins,
		"bonus":          res.Bonus,
		"reason":         res.Reason,
		"money_earned":   domain.CoinsToMoney(res.RewardCoins).StringFixed(4),
		"verdict":        res.Verdict,
	})
}
