package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	last  time.Time
	count int
}

// memoryWindow is the in-process fixed window used when Redis is absent.
type memoryWindow struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
}

const memoryWindowMaxKeys = 100000

var local = &memoryWindow{clients: make(map[string]*clientInfo)}

// hit counts one request for key and returns the count inside the window.
func (m *memoryWindow) hit(key string, window time.Duration, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	ci, ok := m.clients[key]
	if !ok || now.Sub(ci.last) > window {
		if !ok && len(m.clients) >= memoryWindowMaxKeys {
			m.prune(window, now)
		}
		m.clients[key] = &clientInfo{last: now, count: 1}
		return 1
	}
	ci.count++
	return ci.count
}

func (m *memoryWindow) prune(window time.Duration, now time.Time) {
	for k, ci := range m.clients {
		if now.Sub(ci.last) > window {
			delete(m.clients, k)
		}
	}
}

// SimpleRateLimit blocks clients that send more than maxRequests per window
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if local.hit("ip:"+c.ClientIP(), window, time.Now()) > maxRequests {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
