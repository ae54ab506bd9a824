package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	HMACKey    string `env:"HMAC_KEY" envDefault:"change-me-in-production"`

	DatabaseDSN string `env:"DATABASE_DSN"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LLMProvider      string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	OpenAIModel      string `env:"OPENAI_MODEL"`
	YandexOAuthToken string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string `env:"YANDEX_FOLDER_ID"`

	TTSModel string `env:"TTS_MODEL" envDefault:"tts-1"`
	STTModel string `env:"STT_MODEL" envDefault:"whisper-1"`

	FirebaseAPIKey       string        `env:"FIREBASE_API_KEY"`
	VerifyEmailURL       string        `env:"VERIFY_EMAIL_URL"`
	VerificationCooldown time.Duration `env:"VERIFICATION_COOLDOWN" envDefault:"60s"`

	RetentionMaxInteractions int    `env:"RETENTION_MAX_INTERACTIONS" envDefault:"1000"`
	RetentionSchedule        string `env:"RETENTION_SCHEDULE" envDefault:"0 3 * * *"`

	WidgetRateLimitRPS   float64 `env:"WIDGET_RATE_LIMIT_RPS" envDefault:"2"`
	WidgetRateLimitBurst int     `env:"WIDGET_RATE_LIMIT_BURST" envDefault:"10"`

	WidgetIdleTimeout time.Duration `env:"WIDGET_IDLE_TIMEOUT" envDefault:"30m"`

	StaticDir string `env:"STATIC_DIR" envDefault:"./static"`
}

// LoadConfig reads .env when present and then the process environment,
// which wins over the file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return ParseConfig()
}

func ParseConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case "yandex":
		if c.YandexOAuthToken == "" || c.YandexFolderID == "" {
			return errors.New("YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID are required for the yandex provider")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.VerificationCooldown <= 0 {
		return errors.New("VERIFICATION_COOLDOWN must be positive")
	}
	if c.WidgetRateLimitRPS <= 0 || c.WidgetRateLimitBurst <= 0 {
		return errors.New("widget rate limit must be positive")
	}
	if c.WidgetIdleTimeout <= 0 {
		return errors.New("WIDGET_IDLE_TIMEOUT must be positive")
	}
	return nil
}

// SpeechEnabled reports whether voice input and output can be offered.
func (c *Config) SpeechEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// VerificationEnabled reports whether verification emails can be sent.
func (c *Config) VerificationEnabled() bool {
	return c.FirebaseAPIKey != ""
}
