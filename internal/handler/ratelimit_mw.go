package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterTTL = 5 * time.Minute

type limiterEntry struct {
	limiter *rate.Limiter
	expires time.Time
}

// rateLimiter is a token bucket per key that forgets keys idle for limiterTTL.
type rateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}

	return &rateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   max(perMinute/2, 1),
		entries: map[string]*limiterEntry{},
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for k, entry := range l.entries {
		if now.After(entry.expires) {
			delete(l.entries, k)
		}
	}

	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.expires = now.Add(limiterTTL)

	return entry.limiter.Allow()
}

func (h *Handler) upvoteRateLimitMiddleware(c *gin.Context) {
	key := c.ClientIP()
	if user := h.getCachedUserFromRequest(c); user != nil {
		key = user.ID.String()
	}

	if !h.upvoteLimiter.allow(key) {
		c.JSON(http.StatusTooManyRequests, dto.NewBasicResponse(false, errRateLimited.Error()))
		c.Abort()
		return
	}

	c.Next()
}
