package handlers

import (
	"net/http"

	"playearn/internal/domain"
	"playearn/internal/service"

	"github.com/gin-gonic/gin"
)

type WithdrawRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Method      string `json:"method"`
	Destination string `json:"destination"`
}

type WithdrawCheckRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// WithdrawCheck reports every unmet requirement without changing anything.
func (h *Handler) WithdrawCheck(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req WithdrawCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	cents, err := domain.ParseAmount(req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	v, err := h.Services.Withdrawals.Evaluate(c.Request.Context(), userID, cents, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	if v.Violations == nil {
		v.Violations = []domain.Violation{}
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":         v.OK,
		"errors":     v.Messages(),
		"violations": v.Violations,
	})
}

func (h *Handler) Withdraw(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	cents, err := domain.ParseAmount(req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	w, err := h.Services.Withdrawals.Create(c.Request.Context(), service.WithdrawalRequest{
		UserID:      userID,
		AmountCents: cents,
		Method:      req.Method,
		Destination: req.Destination,
	}, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"withdrawal": w,
		"amount":     w.Amount(),
	})
}

func (h *Handler) Withdrawals(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	list, err := h.Services.Withdrawals.ListForUser(c.Request.Context(), userID, queryLimit(c, 20, 100))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []domain.Withdrawal{}
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}
