package handlers

import (
	"net/http"

	"playearn/internal/service"

	"github.com/gin-gonic/gin"
)

type GameStartRequest struct {
	GameID string `json:"game_id" binding:"required"`
}

type GameCompleteRequest struct {
	GameID         string `json:"game_id" binding:"required"`
	SessionID      string `json:"session_id"`
	SessionTime    int64  `json:"session_time"`
	Score          int64  `json:"score"`
	LevelCompleted bool   `json:"level_completed"`
}

func (h *Handler) Games(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": h.Services.Games.Catalog()})
}

func (h *Handler) GameStart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req GameStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	start, err := h.Services.Games.Start(c.Request.Context(), userID, req.GameID, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, start)
}

func (h *Handler) GameComplete(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req GameCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	res, err := h.Services.Games.Complete(c.Request.Context(), userID, service.GameResult{
		GameID:         req.GameID,
		SessionID:      req.SessionID,
		SessionSeconds: req.SessionTime,
		LevelCompleted: req.LevelCompleted,
	}, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
