package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/api"
	"github.com/cooperwalter/recipe-and-me/internal/core/ai/queue"
	"github.com/cooperwalter/recipe-and-me/internal/core/ai/service"
	"github.com/cooperwalter/recipe-and-me/internal/core/cache"
	"github.com/cooperwalter/recipe-and-me/internal/core/extract"
	"github.com/cooperwalter/recipe-and-me/internal/core/photo"
	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/metrics"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/resilience"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/store/memory"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/store/postgres"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

func main() {
	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("env", cfg.App.Env),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("database", cfg.Database.DSN != ""),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("llm_api_key", config.MaskSecret(cfg.LLM.APIKey)),
	)

	metrics.Register()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 初始化儲存層
	var store recipe.Store
	if cfg.Database.DSN != "" {
		pg, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			common.LogFatal("Failed to connect to database", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			common.LogFatal("Failed to migrate database schema", zap.Error(err))
		}
		store = pg
	} else {
		common.LogWarn("未設定資料庫，使用記憶體儲存")
		store = memory.NewStore()
	}

	// 初始化快取
	cacheBackend := cache.New(ctx, cfg)
	if cacheBackend != nil {
		defer cacheBackend.Close()
	}

	// 外部呼叫的重試與斷路器
	executor := resilience.NewExecutor(resilience.PolicyFromConfig(cfg.Resilience)).
		OnStateChange(func(operation string, from, to gobreaker.State) {
			// 網頁擷取依主機分開斷路器，指標只保留操作名稱
			name, _, _ := strings.Cut(operation, ":")
			metrics.BreakerTransitionsTotal.WithLabelValues(name, to.String()).Inc()
		})

	deps := api.Dependencies{
		Recipes: recipe.NewService(store, cacheBackend, cfg.Cache.TTL),
		Cache:   cacheBackend,
		URL:     extract.NewURLExtractor(extract.NewFetcher(cfg.Extraction, executor), cacheBackend, cfg.Cache.ExtractTTL),
		Photos:  photo.NewService(cfg.Photo),
	}

	// 語言模型為選用
	if cfg.LLM.Enabled() {
		provider, err := service.NewProvider(cfg.LLM)
		if err != nil {
			common.LogFatal("Failed to initialize LLM provider", zap.Error(err))
		}
		llm := service.NewService(provider, executor,
			service.WithQueue(queue.NewManager(cfg.LLM.Workers, cfg.LLM.QueueSize)),
			service.WithCache(cacheBackend, cfg.Cache.TTL),
		)
		defer llm.Close()

		deps.LLM = llm
		deps.Voice = extract.NewTranscriptExtractor(llm)
	} else {
		common.LogWarn("未設定語言模型，語音匯入停用")
	}

	// 設置路由
	router := api.SetupRouter(cfg, deps)

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
