package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"photo-recipe/internal/pkg/common"
)

// RateLimiter 單一來源的令牌桶
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		lastTime: time.Now(),
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow() bool {
	return rl.allowAt(time.Now())
}

func (rl *RateLimiter) allowAt(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	elapsed := now.Sub(rl.lastTime).Seconds()
	rl.lastTime = now
	if elapsed > 0 {
		rl.tokens = math.Min(rl.capacity, rl.tokens+elapsed*rl.rate)
	}

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// ipLimiters 依客戶端 IP 分桶
type ipLimiters struct {
	mu       sync.Mutex
	requests int
	window   time.Duration
	buckets  map[string]*bucketEntry
	lastGC   time.Time
}

type bucketEntry struct {
	limiter  *RateLimiter
	lastSeen time.Time
}

func (l *ipLimiters) get(ip string, now time.Time) *RateLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	// 閒置超過兩個視窗的桶已回滿，可以丟棄
	if now.Sub(l.lastGC) > l.window {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > 2*l.window {
				delete(l.buckets, k)
			}
		}
		l.lastGC = now
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucketEntry{limiter: NewRateLimiter(l.requests, l.window)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

// RateLimit 記憶體限流中間件，每個客戶端 IP 一個令牌桶
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiters := &ipLimiters{
		requests: requests,
		window:   window,
		buckets:  make(map[string]*bucketEntry),
		lastGC:   time.Now(),
	}

	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP(), time.Now()).Allow() {
			rejectRateLimited(c, window)
			return
		}
		c.Next()
	}
}

// RedisRateLimit 以 Redis 固定視窗計數的限流中間件，多個實例共用額度。
// Redis 無法使用時放行請求。
func RedisRateLimit(client *redis.Client, requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := redisAllow(c.Request.Context(), client, c.ClientIP(), requests, window, time.Now())
		if err != nil {
			common.LogWarn("Redis rate limit unavailable, allowing request",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}
		if !allowed {
			rejectRateLimited(c, window)
			return
		}
		c.Next()
	}
}

// redisAllow INCR 當前視窗的計數，第一次寫入時設定過期
func redisAllow(ctx context.Context, client *redis.Client, ip string, requests int, window time.Duration, now time.Time) (bool, error) {
	slot := now.UnixNano() / int64(window)
	key := fmt.Sprintf("photo-recipe:ratelimit:%s:%d", ip, slot)

	pipe := client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(requests), nil
}

func rejectRateLimited(c *gin.Context, window time.Duration) {
	common.LogInfo("Rate limit exceeded",
		zap.String("ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)
	c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
		Code:  common.ErrCodeTooManyRequests,
		Error: common.ErrTooManyRequests.Message,
	})
}
