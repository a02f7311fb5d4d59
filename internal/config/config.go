// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/lead-agent/internal/domain"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`
	// AgentProvider is the raw provider mode; use ProviderMode() for the validated value.
	AgentProvider string `env:"AGENT_PROVIDER" envDefault:"auto"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-5-mini"`
	GroqAPIKey    string `env:"GROQ_API_KEY"`
	GroqBaseURL   string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel     string `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`
	// MaxOutputTokens is the output ceiling sent with every provider call.
	MaxOutputTokens int `env:"AGENT_MAX_OUTPUT_TOKENS" envDefault:"420"`
	MaxToolRounds   int `env:"AGENT_MAX_TOOL_ROUNDS" envDefault:"4"`
	// FallbackPolicy is "restrictive" (auth/quota failures only) or "any".
	FallbackPolicy  string        `env:"AGENT_FALLBACK_POLICY" envDefault:"restrictive"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"25s"`
	// Provider transport retries (network errors and 5xx only)
	ProviderMaxRetries       int           `env:"PROVIDER_MAX_RETRIES" envDefault:"1"`
	AIBackoffInitialInterval time.Duration `env:"AI_BACKOFF_INITIAL_INTERVAL" envDefault:"250ms"`
	AIBackoffMaxInterval     time.Duration `env:"AI_BACKOFF_MAX_INTERVAL" envDefault:"2s"`
	AIBackoffMultiplier      float64       `env:"AI_BACKOFF_MULTIPLIER" envDefault:"2.0"`
	// Chat admission control
	RateLimitPerWindow int           `env:"RATE_LIMIT_PER_WINDOW" envDefault:"20"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	OpsRateLimitPerMin int           `env:"OPS_RATE_LIMIT_PER_MIN" envDefault:"120"`
	// Optional infrastructure; empty disables the component.
	RedisURL     string   `env:"REDIS_URL"`
	DBURL        string   `env:"DB_URL"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	LeadTopic    string   `env:"LEAD_TOPIC" envDefault:"quote-requests"`
	// Quote mirror retention; the sweep runs every QuoteCleanupInterval.
	QuoteRetentionDays   int           `env:"QUOTE_RETENTION_DAYS" envDefault:"90"`
	QuoteCleanupInterval time.Duration `env:"QUOTE_CLEANUP_INTERVAL" envDefault:"24h"`
	// ProfilePath overrides the embedded site profile when set.
	ProfilePath           string        `env:"PROFILE_PATH"`
	OTLPEndpoint          string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName       string        `env:"OTEL_SERVICE_NAME" envDefault:"lead-agent"`
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT" envDefault:"45s"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// ProviderMode returns the validated provider mode. Unknown values fall back to auto.
func (c Config) ProviderMode() domain.ProviderMode {
	mode := strings.ToLower(strings.TrimSpace(c.AgentProvider))
	if err := getValidator().Var(mode, "required,oneof=openai groq auto"); err != nil {
		return domain.ModeAuto
	}
	return domain.ProviderMode(mode)
}

// PermissiveFallback reports whether the legacy retry-on-any-failure policy is selected.
func (c Config) PermissiveFallback() bool {
	return strings.EqualFold(strings.TrimSpace(c.FallbackPolicy), "any")
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }
