// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from path, or from configs/config.yaml (searched
// from the working directory and the module root) when path is empty.
// Environment variables and a discovered .env file override file values.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	registerKeys(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../../configs")
		if rootDir := findProjectRoot(); rootDir != "" {
			v.AddConfigPath(filepath.Join(rootDir, "configs"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	if path == "" {
		env := os.Getenv("APP_ENVIRONMENT")
		if env == "" {
			env = "development"
		}
		v.SetConfigName(fmt.Sprintf("config.%s", env))
		_ = v.MergeInConfig() // optional overlay
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// registerKeys makes every key known to viper so AutomaticEnv can populate it
// during Unmarshal. Real defaults are applied after env overrides.
func registerKeys(v *viper.Viper) {
	for _, key := range []string{
		"app.name", "app.version", "app.environment",
		"tekmetric.client_id", "tekmetric.client_secret", "tekmetric.token_url", "tekmetric.base_url",
		"token_cache.key_prefix", "token_cache.redis.address", "token_cache.redis.password",
		"llm.provider", "llm.api_key", "llm.base_url", "llm.model",
		"logging.level", "logging.format",
	} {
		v.SetDefault(key, "")
	}
	for _, key := range []string{
		"server.port", "server.read_timeout", "server.write_timeout", "server.shutdown_timeout",
		"tekmetric.timeout", "token_cache.safety_margin", "token_cache.redis.db",
		"llm.max_tokens", "llm.timeout",
	} {
		v.SetDefault(key, 0)
	}
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("tekmetric.expand_jobs", false)
	v.SetDefault("token_cache.enabled", false)
	v.SetDefault("llm.include_related_records", false)
}

func loadEnvFile() string {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return ""
}

// overrideFromEnv applies the Tekmetric dual naming schemes (first non-empty
// wins) and the conventional provider key names.
func overrideFromEnv(cfg *Config) {
	if val := firstEnv("TEKMETRIC_CLIENT_ID", "TM_CLIENT_ID"); val != "" {
		cfg.Tekmetric.ClientID = val
	}
	if val := firstEnv("TEKMETRIC_CLIENT_SECRET", "TM_CLIENT_SECRET"); val != "" {
		cfg.Tekmetric.ClientSecret = val
	}
	if val := firstEnv("TM_TOKEN_URL", "TEKMETRIC_TOKEN_URL"); val != "" {
		cfg.Tekmetric.TokenURL = val
	}
	if val := firstEnv("TM_BASE_URL", "TEKMETRIC_BASE_URL"); val != "" {
		cfg.Tekmetric.BaseURL = val
	}

	if val := firstEnv("PORT"); val != "" {
		var port int
		if _, err := fmt.Sscanf(val, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}

	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case ProviderGemini:
			cfg.LLM.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
		default:
			cfg.LLM.APIKey = firstEnv("OPENAI_API_KEY")
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = firstEnv("LOG_LEVEL")
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = firstEnv("LOG_FORMAT")
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "vca-advisor"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 90000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Tekmetric.TokenURL == "" {
		cfg.Tekmetric.TokenURL = DefaultTokenURL
	}
	cfg.Tekmetric.BaseURL = strings.TrimSuffix(cfg.Tekmetric.BaseURL, "/")
	if cfg.Tekmetric.Timeout == 0 {
		cfg.Tekmetric.Timeout = 15000
	}

	if cfg.TokenCache.KeyPrefix == "" {
		cfg.TokenCache.KeyPrefix = defaultCachePrefix
	}
	if cfg.TokenCache.SafetyMargin == 0 {
		cfg.TokenCache.SafetyMargin = 60000
	}

	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderOpenAI
	}
	if cfg.LLM.Model == "" {
		if cfg.LLM.Provider == ProviderGemini {
			cfg.LLM.Model = DefaultGeminiModel
		} else {
			cfg.LLM.Model = DefaultOpenAIModel
		}
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == ProviderOpenAI {
		cfg.LLM.BaseURL = DefaultOpenAIURL
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = defaultTemperature
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = defaultLLMMaxTokens
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig rejects structurally invalid values only. Missing secrets
// are reported per request by the components that need them.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	switch cfg.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, cfg.LLM.Provider)
	}

	if cfg.LLM.Temperature <= 0 || cfg.LLM.Temperature > 1 {
		return fmt.Errorf("llm.temperature must be in (0, 1], got %v", cfg.LLM.Temperature)
	}

	if cfg.TokenCache.Enabled && cfg.TokenCache.Redis.Address == "" {
		return fmt.Errorf("token_cache.redis.address is required when token_cache.enabled is true")
	}

	return nil
}
