package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Extraction  ExtractionConfig `mapstructure:"extraction"`
	LLM         LLMConfig        `mapstructure:"llm"`
	Resilience  ResilienceConfig `mapstructure:"resilience"`
	Duplicate   DuplicateConfig  `mapstructure:"duplicate"`
	Photo       PhotoConfig      `mapstructure:"photo"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig PostgreSQL 設定，DSN 為空時使用記憶體儲存
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	ExtractTTL      time.Duration `mapstructure:"extract_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ExtractionConfig 網頁擷取設定
type ExtractionConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxPageBytes int64         `mapstructure:"max_page_bytes"`
	// AllowPrivateHosts 允許連線至回環與內部網段，僅供本機開發
	AllowPrivateHosts bool `mapstructure:"allow_private_hosts"`
}

// LLMConfig 語言模型設定
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openrouter | openai
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Workers     int           `mapstructure:"workers"`    // 同時進行的呼叫數
	QueueSize   int           `mapstructure:"queue_size"` // 等待中的呼叫上限
}

// Enabled 是否已設定 API Key
func (c LLMConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// ResilienceConfig 重試與斷路器設定
type ResilienceConfig struct {
	RetryMaxAttempts    int           `mapstructure:"retry_max_attempts"`
	RetryInitialBackoff time.Duration `mapstructure:"retry_initial_backoff"`
	RetryMaxBackoff     time.Duration `mapstructure:"retry_max_backoff"`
	BreakerEnabled      bool          `mapstructure:"breaker_enabled"`
	BreakerMinRequests  uint32        `mapstructure:"breaker_min_requests"`
	BreakerFailureRatio float64       `mapstructure:"breaker_failure_ratio"`
	BreakerOpenTimeout  time.Duration `mapstructure:"breaker_open_timeout"`
}

// DuplicateConfig 重複檢查設定
type DuplicateConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

// PhotoConfig 照片設定
type PhotoConfig struct {
	ValidateRemote bool          `mapstructure:"validate_remote"`
	MaxSizeBytes   int64         `mapstructure:"max_size_bytes"`
	Timeout        time.Duration `mapstructure:"timeout"`
	// AllowPrivateHosts 允許下載回環與內部網段的照片
	AllowPrivateHosts bool `mapstructure:"allow_private_hosts"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	Burst    int           `mapstructure:"burst"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時只使用環境變數
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"server.port":         "PORT",
		"database.dsn":        "DATABASE_URL",
		"redis.addr":          "REDIS_ADDR",
		"redis.password":      "REDIS_PASSWORD",
		"cache.enabled":       "CACHE_ENABLED",
		"cache.backend":       "CACHE_BACKEND",
		"llm.provider":        "LLM_PROVIDER",
		"llm.model":           "LLM_MODEL",
		"llm.base_url":        "LLM_BASE_URL",
		"llm.max_tokens":      "MODEL_MAX_TOKENS",
		"duplicate.threshold": "DUPLICATE_THRESHOLD",
		"rate_limit.enabled":  "RATE_LIMIT_ENABLED",
		"rate_limit.requests": "RATE_LIMIT_REQUESTS",
		"rate_limit.window":   "RATE_LIMIT_WINDOW",
		"dedup_window":        "DEDUP_WINDOW",
		"log_level":           "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}
	// OpenAI 相容服務的金鑰
	if err := v.BindEnv("llm.api_key", "APP_LLM_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env OPENAI_API_KEY: %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskSecret 遮罩金鑰，只顯示前後各 4 個字符
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-and-me")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "45s")
	v.SetDefault("server.max_body_bytes", 2<<20)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.extract_ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("extraction.fetch_timeout", "15s")
	v.SetDefault("extraction.user_agent", "Mozilla/5.0 (compatible; RecipeAndMe/1.0; +https://recipeand.me)")
	v.SetDefault("extraction.max_page_bytes", 5<<20)
	v.SetDefault("extraction.allow_private_hosts", false)

	v.SetDefault("llm.provider", "openrouter")
	v.SetDefault("llm.model", "anthropic/claude-3.5-sonnet")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.workers", 4)
	v.SetDefault("llm.queue_size", 32)

	v.SetDefault("resilience.retry_max_attempts", 2)
	v.SetDefault("resilience.retry_initial_backoff", "200ms")
	v.SetDefault("resilience.retry_max_backoff", "1s")
	v.SetDefault("resilience.breaker_enabled", true)
	v.SetDefault("resilience.breaker_min_requests", 10)
	v.SetDefault("resilience.breaker_failure_ratio", 0.5)
	v.SetDefault("resilience.breaker_open_timeout", "30s")

	v.SetDefault("duplicate.threshold", 0.7)

	v.SetDefault("photo.validate_remote", true)
	v.SetDefault("photo.max_size_bytes", 10<<20)
	v.SetDefault("photo.timeout", "10s")
	v.SetDefault("photo.allow_private_hosts", false)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("dedup_window", "2s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Redis.Addr == "" {
				return fmt.Errorf("redis address is required for redis cache")
			}
		default:
			return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.Extraction.FetchTimeout <= 0 {
		return fmt.Errorf("invalid extraction fetch timeout")
	}

	switch config.LLM.Provider {
	case "openrouter", "openai":
	default:
		return fmt.Errorf("unknown llm provider %q", config.LLM.Provider)
	}

	if config.Duplicate.Threshold < 0 || config.Duplicate.Threshold > 1 {
		return fmt.Errorf("duplicate threshold must be within [0,1]")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
