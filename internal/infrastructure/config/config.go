package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 支援的模型供應商
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
)

// 支援的輸出契約
const (
	ContractStructured = "structured"
	ContractRawText    = "raw_text"
)

// defaultModels 各供應商的預設模型
var defaultModels = map[string]string{
	ProviderOpenRouter: "google/gemini-2.0-flash-001",
	ProviderGemini:     "gemini-2.0-flash",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderAnthropic:  "claude-3-5-sonnet-latest",
	ProviderOllama:     "llava",
}

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	AI          AIConfig        `mapstructure:"ai"`
	Session     SessionConfig   `mapstructure:"session"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Image       ImageConfig     `mapstructure:"image"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogFile     string          `mapstructure:"log_file"`
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
}

// AIConfig 模型供應商配置
type AIConfig struct {
	Provider  string        `mapstructure:"provider"`
	Contract  string        `mapstructure:"contract"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
	BaseURL   string        `mapstructure:"base_url"`

	OpenRouterAPIKey string `mapstructure:"openrouter_api_key"`
	GeminiAPIKey     string `mapstructure:"gemini_api_key"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key"`
	AnthropicAPIKey  string `mapstructure:"anthropic_api_key"`
	OllamaHost       string `mapstructure:"ollama_host"`
}

// APIKey 回傳目前供應商使用的金鑰
func (c AIConfig) APIKey() string {
	switch c.Provider {
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return ""
	}
}

// SessionConfig 瀏覽器會話設定
type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	MaxSize         int           `mapstructure:"max_size"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	CookieName      string        `mapstructure:"cookie_name"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// RedisConfig Redis 配置，啟用時限流改由 Redis 計數
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// LoadConfig 載入設定。.env 不存在時只使用環境變數與預設值。
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.AI.Provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))
	config.AI.Contract = strings.ToLower(strings.TrimSpace(config.AI.Contract))
	if config.AI.Model == "" {
		config.AI.Model = defaultModels[config.AI.Provider]
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// bindEnv 綁定常用環境變量名稱
func bindEnv(v *viper.Viper) {
	bindings := map[string][]string{
		"ai.provider":           {"AI_PROVIDER"},
		"ai.contract":           {"AI_CONTRACT"},
		"ai.model":              {"AI_MODEL"},
		"ai.max_tokens":         {"MODEL_MAX_TOKENS"},
		"ai.timeout":            {"AI_TIMEOUT"},
		"ai.base_url":           {"AI_BASE_URL"},
		"ai.openrouter_api_key": {"OPENROUTER_API_KEY"},
		"ai.gemini_api_key":     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"ai.openai_api_key":     {"OPENAI_API_KEY"},
		"ai.anthropic_api_key":  {"ANTHROPIC_API_KEY"},
		"ai.ollama_host":        {"OLLAMA_HOST"},
		"server.port":           {"PORT"},
		"session.ttl":           {"SESSION_TTL"},
		"session.max_size":      {"SESSION_MAX_SIZE"},
		"rate_limit.enabled":    {"RATE_LIMIT_ENABLED"},
		"rate_limit.requests":   {"RATE_LIMIT_REQUESTS"},
		"rate_limit.window":     {"RATE_LIMIT_WINDOW"},
		"redis.enabled":         {"REDIS_ENABLED"},
		"redis.url":             {"REDIS_URL"},
		"redis.addr":            {"REDIS_ADDR"},
		"redis.password":        {"REDIS_PASSWORD"},
		"redis.db":              {"REDIS_DB"},
		"image.max_size_bytes":  {"IMAGE_MAX_SIZE_BYTES"},
		"dedup_window":          {"DEDUP_WINDOW"},
		"log_level":             {"LOG_LEVEL"},
		"log_file":              {"LOG_FILE"},
	}
	for key, envs := range bindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "photo-recipe")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "120s")

	// 模型設定
	v.SetDefault("ai.provider", ProviderOpenRouter)
	v.SetDefault("ai.contract", ContractStructured)
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.timeout", "90s")
	v.SetDefault("ai.ollama_host", "http://localhost:11434")

	// 會話設定
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.max_size", 1000)
	v.SetDefault("session.cleanup_interval", "5m")
	v.SetDefault("session.cookie_name", "photo_recipe_session")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", "1m")

	// Redis 設定
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if _, ok := defaultModels[config.AI.Provider]; !ok {
		return fmt.Errorf("unsupported ai provider %q", config.AI.Provider)
	}
	if config.AI.Contract != ContractStructured && config.AI.Contract != ContractRawText {
		return fmt.Errorf("unsupported ai contract %q", config.AI.Contract)
	}
	if config.AI.Provider != ProviderOllama && config.AI.APIKey() == "" {
		return fmt.Errorf("api key for provider %s is required", config.AI.Provider)
	}
	if config.AI.MaxTokens <= 0 {
		return fmt.Errorf("invalid ai max tokens")
	}
	if config.AI.Timeout <= 0 {
		return fmt.Errorf("invalid ai timeout")
	}

	if config.Session.MaxSize <= 0 {
		return fmt.Errorf("invalid session max size")
	}
	if config.Session.TTL <= 0 {
		return fmt.Errorf("invalid session ttl")
	}
	if config.Session.CleanupInterval <= 0 {
		return fmt.Errorf("invalid session cleanup interval")
	}
	if config.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit")
		}
	}

	if config.Redis.Enabled && config.Redis.URL == "" && config.Redis.Addr == "" {
		return fmt.Errorf("redis addr or url is required when redis is enabled")
	}

	if config.Image.MaxSizeBytes <= 0 {
		return fmt.Errorf("invalid image max size")
	}

	return nil
}
