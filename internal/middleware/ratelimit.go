package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 30 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-IP token bucket. Burst requests are allowed at once,
// then one more every interval.
type RateLimiter struct {
	name      string
	every     time.Duration
	burst     int
	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

// NewRateLimiter allows burst requests per window for each client IP.
func NewRateLimiter(name string, burst int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		name:    name,
		every:   window / time.Duration(burst),
		burst:   burst,
		clients: make(map[string]*client),
	}
}

func (l *RateLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, v := range l.clients {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	cl, found := l.clients[ip]
	if !found {
		cl = &client{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.allow(ip, time.Now()) {
			logrus.WithFields(logrus.Fields{"limiter": l.name, "ip": ip}).Warn("Rate limit exceeded")
			c.Header("Retry-After", retryAfter(l.every))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.CodedErrorResponse("TOO_MANY_REQUESTS", "Too many requests, please try again later"))
			return
		}
		c.Next()
	}
}

func retryAfter(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
