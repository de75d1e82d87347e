// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Tekmetric  TekmetricConfig  `mapstructure:"tekmetric"`
	TokenCache TokenCacheConfig `mapstructure:"token_cache"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// TekmetricConfig holds the shop-management API settings. Credentials and the
// base URL may be empty here; that surfaces per request as a configuration
// error rather than at startup.
type TekmetricConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenURL     string `mapstructure:"token_url"`
	BaseURL      string `mapstructure:"base_url"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
	ExpandJobs   bool   `mapstructure:"expand_jobs"`
}

// TokenCacheConfig controls the optional Redis-backed bearer token cache.
type TokenCacheConfig struct {
	Enabled      bool        `mapstructure:"enabled"`
	KeyPrefix    string      `mapstructure:"key_prefix"`
	SafetyMargin int         `mapstructure:"safety_margin"` // milliseconds
	Redis        RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LLMConfig holds the completion endpoint settings.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // openai | gemini
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds

	// IncludeRelatedRecords sends vehicle and customer records to the model
	// alongside the repair order.
	IncludeRelatedRecords bool `mapstructure:"include_related_records"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	DefaultTokenURL     = "https://sandbox.tekmetric.com/oauth/token"
	DefaultOpenAIURL    = "https://api.openai.com/v1"
	DefaultOpenAIModel  = "gpt-4o-mini"
	DefaultGeminiModel  = "gemini-2.0-flash"
	DefaultPort         = 8080
	ProviderOpenAI      = "openai"
	ProviderGemini      = "gemini"
	defaultCachePrefix  = "vca:tekmetric:token:"
	defaultTemperature  = 0.2
	defaultLLMMaxTokens = 1500
)

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
