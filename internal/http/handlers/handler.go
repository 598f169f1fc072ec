package handlers

import (
	"strconv"
	"time"

	"playearn/internal/http/middleware"
	"playearn/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Services *service.Services

	// Now is the request clock. Tests replace it.
	Now func() time.Time
}

func NewHandler(svc *service.Services) *Handler {
	return &Handler{
		Services: svc,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// getUserID returns the user id set by the JWT middleware
func getUserID(c *gin.Context) (string, bool) {
	return middleware.UserID(c)
}

// queryLimit reads ?limit=, falling back to def and capped at upper.
func queryLimit(c *gin.Context, def, upper int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, upper)
}
