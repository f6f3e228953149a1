package api

import (
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/api/handlers/health"
	recipeHandler "github.com/cooperwalter/recipe-and-me/internal/api/handlers/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/api/middleware"
	recipeService "github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/core/similarity"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/metrics"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies 路由所需的服務；Cache、LLM、Voice 可為 nil
type Dependencies struct {
	Recipes *recipeService.Service
	Cache   health.Cache
	LLM     health.QueueReporter
	URL     recipeHandler.Importer
	Voice   recipeHandler.Importer
	Photos  recipeHandler.PhotoValidator
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.UserIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(metrics.Middleware())
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimit))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(health.Deps{
		Version: cfg.App.Version,
		Env:     cfg.App.Env,
		Store:   deps.Recipes,
		Cache:   deps.Cache,
		LLM:     deps.LLM,
	})
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler := recipeHandler.NewHandler(deps.Recipes, recipeHandler.Options{
		URL:       deps.URL,
		Voice:     deps.Voice,
		Photos:    deps.Photos,
		Scorer:    similarity.Default,
		Threshold: cfg.Duplicate.Threshold,
		Debug:     cfg.App.Debug,
	})
	dedup := middleware.NewDeduplicator(cfg.DedupWindow).Middleware()

	// API 路由組
	api := router.Group("/api/v1")
	{
		recipes := api.Group("/recipes", middleware.RequireUser())
		{
			recipes.POST("", dedup, handler.CreateRecipe)
			recipes.GET("", handler.ListRecipes)
			recipes.POST("/duplicates", handler.CheckDuplicates)
			recipes.POST("/extract/url", dedup, handler.ExtractURL)
			recipes.POST("/extract/voice", dedup, handler.ExtractVoice)

			recipes.GET("/:id", handler.GetRecipe)
			recipes.PUT("/:id", handler.UpdateRecipe)
			recipes.DELETE("/:id", handler.DeleteRecipe)
			recipes.POST("/:id/favorite", handler.ToggleFavorite)
			recipes.POST("/:id/photos", handler.AddPhoto)
			recipes.PATCH("/:id/ingredients/:ingredientId", handler.UpdateIngredientAmount)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("cache_enabled", deps.Cache != nil),
		zap.Bool("voice_enabled", deps.Voice != nil),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
