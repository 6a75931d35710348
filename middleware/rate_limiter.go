package middleware

import (
	"net/http"
	"sync"
	"time"

	"loadline/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterPool struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

var pool = &limiterPool{clients: make(map[string]*clientLimiter)}

// Idle clients are pruned lazily so the map does not grow unbounded.
const limiterIdleTTL = 10 * time.Minute

func (p *limiterPool) get(ip string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if len(p.clients) > 1024 {
		for k, cl := range p.clients {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(p.clients, k)
			}
		}
	}

	cl, ok := p.clients[ip]
	if !ok {
		perMin := config.AppConfig.RateLimitPerMinute
		if perMin <= 0 {
			perMin = 120
		}
		burst := config.AppConfig.RateLimitBurst
		if burst <= 0 {
			burst = perMin / 3
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), burst)}
		p.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// RateLimitMiddleware throttles requests per client IP.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := clientIP(c)
		if !pool.get(ip).Allow() {
			zap.L().Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
