package handlers

import (
	"net/http"

	"playearn/internal/domain"
	"playearn/internal/service"

	"github.com/gin-gonic/gin"
)

type RejectRequest struct {
	Reason string `json:"reason"`
}

type WithdrawalActionRequest struct {
	WithdrawalID string `json:"withdrawal_id" binding:"required"`
	Action       string `json:"action" binding:"required"`
	Reason       string `json:"reason"`
}

func (h *Handler) AdminWithdrawals(c *gin.Context) {
	list, err := h.Services.Admin.GetPendingWithdrawals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []service.PendingWithdrawal{}
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

func (h *Handler) AdminApprove(c *gin.Context) {
	h.resolve(c, c.Param("id"), domain.WithdrawalApprove, "")
}

func (h *Handler) AdminReject(c *gin.Context) {
	var req RejectRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)
	h.resolve(c, c.Param("id"), domain.WithdrawalReject, req.Reason)
}

// AdminWithdrawalAction takes the action in the body.
func (h *Handler) AdminWithdrawalAction(c *gin.Context) {
	var req WithdrawalActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	h.resolve(c, req.WithdrawalID, domain.WithdrawalAction(req.Action), req.Reason)
}

func (h *Handler) resolve(c *gin.Context, id string, action domain.WithdrawalAction, reason string) {
	adminID, _ := getUserID(c)

	w, err := h.Services.Withdrawals.Resolve(c.Request.Context(), adminID, id, action, reason, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

func (h *Handler) AdminSuspects(c *gin.Context) {
	list, err := h.Services.Admin.GetSuspects(c.Request.Context(), queryLimit(c, 10, 50))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []service.Suspect{}
	}
	c.JSON(http.StatusOK, gin.H{"suspects": list})
}

func (h *Handler) AdminClearSuspect(c *gin.Context) {
	adminID, _ := getUserID(c)

	if err := h.Services.Admin.ClearSuspect(c.Request.Context(), adminID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.Services.Admin.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) AdminAudit(c *gin.Context) {
	ctx := c.Request.Context()
	limit := queryLimit(c, 100, 500)

	var (
		logs []domain.AuditLog
		err  error
	)
	if userID := c.Query("user_id"); userID != "" {
		logs, err = h.Services.Audit.GetUserAuditLogs(ctx, userID, limit)
	} else {
		logs, err = h.Services.Admin.RecentAudit(ctx, limit)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
