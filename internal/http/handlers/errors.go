package handlers

import (
	"errors"
	"net/http"

	"playearn/internal/domain"
	"playearn/internal/logger"
	"playearn/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	var elig *domain.EligibilityError
	switch {
	case errors.As(err, &elig):
		msgs := make([]string, 0, len(elig.Violations))
		for _, v := range elig.Violations {
			msgs = append(msgs, v.Message)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "withdrawal requirements not met",
			"errors":     msgs,
			"violations": elig.Violations,
		})

	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, domain.ErrWithdrawalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})

	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "withdrawal is not pending"})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, domain.ErrInsufficientFunds):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient balance"})
	case errors.Is(err, domain.ErrWeeklyCapExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "approval would exceed the weekly withdrawal cap"})
	case errors.Is(err, domain.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "game session already finished"})

	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, domain.ErrAccountBlocked):
		c.JSON(http.StatusForbidden, gin.H{"error": "account blocked"})

	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDestination),
		errors.Is(err, domain.ErrInvalidAction),
		errors.Is(err, domain.ErrInvalidAdType),
		errors.Is(err, domain.ErrUnknownGame),
		errors.Is(err, service.ErrInvalidRegistration),
		errors.Is(err, service.ErrInvalidSessionTime),
		errors.Is(err, service.ErrUnknownPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		logger.WithContext(c.Request.Context()).Error("request failed",
			"path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
}
