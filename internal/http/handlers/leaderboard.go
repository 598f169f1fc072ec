package handlers

import (
	"net/http"

	"playearn/internal/domain"

	"github.com/gin-gonic/gin"
)

// Ranking returns the top ad earners for ?period=today|week|month.
func (h *Handler) Ranking(c *gin.Context) {
	period := c.DefaultQuery("period", "today")

	top, err := h.Services.Ads.Ranking(c.Request.Context(), period, queryLimit(c, 100, 100), h.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	if top == nil {
		top = []domain.RankEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"ranking": top,
		"period":  period,
	})
}
