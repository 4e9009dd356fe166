package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stackmesh/chunkstore/internal/pkg/errcode"
	"github.com/stackmesh/chunkstore/internal/pkg/response"
)

type rateLimiter struct {
	mu            sync.Mutex
	window        time.Duration
	last          map[string]time.Time
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

// RateLimit allows one request per client+path within the window.
func RateLimit(window time.Duration) gin.HandlerFunc {
	limiter := &rateLimiter{
		window:        window,
		last:          make(map[string]time.Time),
		sweepInterval: window,
		now:           time.Now,
	}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.window <= 0 {
		c.Next()
		return
	}
	ip := c.ClientIP()
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{ip, path}, "|")

	now := l.now()
	l.mu.Lock()
	l.cleanupExpiredLocked(now)
	last, exists := l.last[key]
	if exists && now.Sub(last) < l.window {
		l.mu.Unlock()
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("ip", ip),
			zap.String("path", path),
		)
		response.Error(c, http.StatusTooManyRequests, errcode.TooMany, http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	l.last[key] = now
	l.mu.Unlock()
	c.Next()
}

// cleanupExpiredLocked drops entries older than the window, at most once per
// sweep interval. Caller holds l.mu.
func (l *rateLimiter) cleanupExpiredLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.sweepInterval {
		return
	}
	for key, seen := range l.last {
		if now.Sub(seen) >= l.window {
			delete(l.last, key)
		}
	}
	l.lastSweep = now
}
