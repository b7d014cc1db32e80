// README: Config loader; reads .env and the environment through viper with defaults for HTTP, AI, search, cache and logging.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when the generation credential for the selected provider is absent.
var ErrMissingAPIKey = errors.New("generation api key is required")

// searchKeyPlaceholder is the value shipped in example env files; it counts as "not configured".
const searchKeyPlaceholder = "your_parallel_api_key_here"

type SearchConfig struct {
	APIKey  string
	BaseURL string
	// Timeout bounds each individual provider lookup.
	Timeout time.Duration
}

// Enabled reports whether provider lookups can run. A missing key is the supported degraded mode.
func (s SearchConfig) Enabled() bool {
	key := strings.TrimSpace(s.APIKey)
	return key != "" && key != searchKeyPlaceholder
}

type CacheConfig struct {
	// Mode is one of "off", "memory" or "redis".
	Mode         string
	RedisAddr    string
	TTL          time.Duration
	MaxCostBytes int64
}

type AIConfig struct {
	// Provider is "gemini" or "openai".
	Provider    string
	GeminiKey   string
	OpenAIKey   string
	OpenAIModel string
	PromptsFile string
}

// APIKey returns the credential for the selected provider.
func (a AIConfig) APIKey() string {
	if strings.EqualFold(a.Provider, "openai") {
		return a.OpenAIKey
	}
	return a.GeminiKey
}

type Config struct {
	HTTP struct {
		Addr       string
		CORSOrigin string
	}
	AI     AIConfig
	Search SearchConfig
	Maps   struct {
		APIKey string
	}
	Cache CacheConfig
	Log   struct {
		Level  string
		Format string
	}
}

// Load reads configuration from the environment (and a .env file when present).
// It fails when the generation credential is missing, since every endpoint classifies or generates.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	cfg.HTTP.Addr = v.GetString("WONDURA_HTTP_ADDR")
	cfg.HTTP.CORSOrigin = v.GetString("WONDURA_CORS_ORIGIN")

	cfg.AI.Provider = strings.ToLower(v.GetString("WONDURA_LLM_PROVIDER"))
	cfg.AI.GeminiKey = v.GetString("GOOGLE_AI_KEY")
	cfg.AI.OpenAIKey = v.GetString("OPENAI_API_KEY")
	cfg.AI.OpenAIModel = v.GetString("OPENAI_MODEL")
	cfg.AI.PromptsFile = v.GetString("WONDURA_PROMPTS_FILE")

	cfg.Search.APIKey = v.GetString("PARALLEL_API_KEY")
	cfg.Search.BaseURL = strings.TrimRight(v.GetString("PARALLEL_BASE_URL"), "/")
	cfg.Search.Timeout = v.GetDuration("WONDURA_PROVIDER_TIMEOUT")

	cfg.Maps.APIKey = v.GetString("GOOGLE_MAPS_API_KEY")

	cfg.Cache.Mode = strings.ToLower(v.GetString("WONDURA_CACHE_MODE"))
	cfg.Cache.RedisAddr = v.GetString("WONDURA_REDIS_ADDR")
	cfg.Cache.TTL = v.GetDuration("WONDURA_CACHE_TTL")
	cfg.Cache.MaxCostBytes = v.GetInt64("WONDURA_CACHE_MAX_BYTES")

	cfg.Log.Level = v.GetString("WONDURA_LOG_LEVEL")
	cfg.Log.Format = v.GetString("WONDURA_LOG_FORMAT")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("WONDURA_HTTP_ADDR", ":8080")
	v.SetDefault("WONDURA_CORS_ORIGIN", "*")
	v.SetDefault("WONDURA_LLM_PROVIDER", "gemini")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("PARALLEL_BASE_URL", "https://api.parallel.ai")
	v.SetDefault("WONDURA_PROVIDER_TIMEOUT", 25*time.Second)
	v.SetDefault("WONDURA_CACHE_MODE", "off")
	v.SetDefault("WONDURA_REDIS_ADDR", "localhost:6379")
	v.SetDefault("WONDURA_CACHE_TTL", 30*time.Minute)
	v.SetDefault("WONDURA_CACHE_MAX_BYTES", int64(64<<20))
	v.SetDefault("WONDURA_LOG_LEVEL", "info")
	v.SetDefault("WONDURA_LOG_FORMAT", "json")
}

func (c Config) validate() error {
	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported WONDURA_LLM_PROVIDER %q", c.AI.Provider)
	}
	if strings.TrimSpace(c.AI.APIKey()) == "" {
		return fmt.Errorf("%w (provider %s)", ErrMissingAPIKey, c.AI.Provider)
	}
	switch c.Cache.Mode {
	case "off", "memory", "redis":
	default:
		return fmt.Errorf("unsupported WONDURA_CACHE_MODE %q", c.Cache.Mode)
	}
	if c.Search.Timeout <= 0 {
		return fmt.Errorf("WONDURA_PROVIDER_TIMEOUT must be positive")
	}
	return nil
}
