package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"photo-recipe/internal/core/ai/service"
	"photo-recipe/internal/core/session"
	"photo-recipe/internal/infrastructure/config"
	"photo-recipe/internal/pkg/common"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	AI        *AIStatus              `json:"ai,omitempty"`
	Sessions  map[string]interface{} `json:"sessions,omitempty"`
}

// AIStatus 模型供應商狀態
type AIStatus struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Contract string `json:"contract"`
	Timeout  string `json:"timeout"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	// 獲取配置
	cfg, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Configuration not found",
		})
		return
	}
	conf, ok := cfg.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid configuration type",
		})
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   conf.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if v, ok := c.Get("ai_service"); ok {
		if aiSvc, ok := v.(*service.Service); ok {
			p := aiSvc.Provider()
			response.AI = &AIStatus{
				Provider: p.Name(),
				Model:    p.GetModel(),
				Contract: conf.AI.Contract,
				Timeout:  p.GetTimeout().String(),
			}
		}
	}

	if v, ok := c.Get("sessions"); ok {
		if sessions, ok := v.(*session.Manager); ok {
			response.Sessions = sessions.GetStats()
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器，有 Redis 時確認連線
func ReadinessCheck(c *gin.Context) {
	checks := gin.H{}

	if _, ok := c.Get("ai_service"); !ok {
		checks["ai_service"] = "missing"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"checks": checks,
		})
		return
	}
	checks["ai_service"] = "ok"

	if v, ok := c.Get("redis"); ok {
		if client, ok := v.(*redis.Client); ok && client != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := client.Ping(ctx).Err(); err != nil {
				common.LogWarn("Redis readiness check failed", zap.Error(err))
				checks["redis"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "not_ready",
					"checks": checks,
				})
				return
			}
			checks["redis"] = "ok"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "alive",
		"goroutines": runtime.NumGoroutine(),
	})
}
