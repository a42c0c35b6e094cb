package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"photo-recipe/internal/api/handlers/health"
	recipeHandler "photo-recipe/internal/api/handlers/recipe"
	"photo-recipe/internal/api/handlers/web"
	"photo-recipe/internal/api/middleware"
	"photo-recipe/internal/core/ai/provider"
	"photo-recipe/internal/core/ai/service"
	"photo-recipe/internal/core/image"
	recipeService "photo-recipe/internal/core/recipe"
	"photo-recipe/internal/core/session"
	"photo-recipe/internal/infrastructure/config"
	"photo-recipe/internal/pkg/common"
)

// multipart 與 base64 的額外開銷
const bodyOverhead = 1 << 20

// Router 路由與需要在關閉時釋放的資源
type Router struct {
	Engine   *gin.Engine
	Sessions *session.Manager
}

// SetupRouter 設置路由。redisClient 為 nil 時使用記憶體限流。
func SetupRouter(cfg *config.Config, aiProvider provider.Provider, redisClient *redis.Client) (*Router, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if aiProvider == nil {
		return nil, fmt.Errorf("ai provider is required")
	}

	// 初始化服務
	aiService := service.NewService(aiProvider)

	contract, err := recipeService.NewContract(recipeService.ContractVariant(cfg.AI.Contract))
	if err != nil {
		common.LogError("Failed to build suggestion contract", zap.Error(err))
		return nil, fmt.Errorf("failed to build suggestion contract: %w", err)
	}
	suggestionSvc := recipeService.NewSuggestionService(aiService, contract)
	imageService := image.NewService(cfg.Image.MaxSizeBytes)

	previews := session.NewPreviewRegistry()
	sessions := session.NewManager(cfg.Session, func() *session.Controller {
		return session.NewController(suggestionSvc, imageService, previews)
	})

	tmpl, err := web.LoadTemplates()
	if err != nil {
		_ = sessions.Close()
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	common.LogInfo("Services initialized",
		zap.String("provider", aiProvider.Name()),
		zap.String("model", aiProvider.GetModel()),
		zap.String("contract", string(contract.Variant())),
		zap.Bool("redis_enabled", redisClient != nil),
	)

	// 創建路由引擎
	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// data URI 比原始檔案大約多 1/3
	maxBodySize := cfg.Image.MaxSizeBytes*4/3 + bodyOverhead
	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 注入配置與服務
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Set("ai_service", aiService)
		c.Set("suggestion_service", suggestionSvc)
		c.Set("sessions", sessions)
		if redisClient != nil {
			c.Set("redis", redisClient)
		}
		c.Next()
	})

	limiter := rateLimiter(cfg.RateLimit, redisClient)

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// 頁面路由
	page := web.NewHandler(sessions, previews, imageService, cfg.Session)
	router.GET("/", page.Index)
	router.POST("/select", page.Select)
	router.POST("/submit", limiter, page.Submit)
	router.GET("/preview/:token", page.Preview)

	// API 路由組
	api := router.Group("/api/v1")
	api.Use(limiter)
	{
		recipeHandlerInstance := recipeHandler.NewHandler(suggestionSvc, imageService)

		recipeGroup := api.Group("/recipe")
		recipeGroup.Use(middleware.Deduplication(cfg.DedupWindow))
		{
			// 以 data URI 推薦食譜
			recipeGroup.POST("/suggest", recipeHandlerInstance.HandleSuggest)

			// 以上傳照片推薦食譜
			recipeGroup.POST("/photo", recipeHandlerInstance.HandlePhotoUpload)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", maxBodySize),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
	)

	return &Router{Engine: router, Sessions: sessions}, nil
}

// rateLimiter 依設定選擇限流方式，未啟用時直接放行
func rateLimiter(cfg config.RateLimitConfig, redisClient *redis.Client) gin.HandlerFunc {
	switch {
	case !cfg.Enabled:
		return func(c *gin.Context) { c.Next() }
	case redisClient != nil:
		return middleware.RedisRateLimit(redisClient, cfg.Requests, cfg.Window)
	default:
		return middleware.RateLimit(cfg.Requests, cfg.Window)
	}
}
