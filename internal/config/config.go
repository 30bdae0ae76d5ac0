package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"khrafet/internal/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ClientTypeOpenRouter = "openrouter"
	ClientTypeOllama     = "ollama"

	apiKeySecretName        = "openrouter_api_key"
	redisPasswordSecretName = "redis_password"
)

// Config хранит конфигурацию сервиса.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"HTTP_SERVER_PORT" default:"8080"`

	// AI
	AIClientType string        `envconfig:"AI_CLIENT_TYPE" default:"openrouter"` // openrouter | ollama
	AIBaseURL    string        `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel      string        `envconfig:"AI_MODEL" default:"deepseek/deepseek-r1-0528:free"`
	AITimeout    time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	// Пустой ключ допустим при старте: каждая генерация вернёт AuthError.
	AIAPIKey string `envconfig:"OPENROUTER_API_KEY"`
	SiteURL  string `envconfig:"SITE_URL"`  // -> HTTP-Referer
	SiteName string `envconfig:"SITE_NAME"` // -> X-Title

	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"2h"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Redis нужен только для rate limit. Пустой адрес отключает лимитер.
	RedisAddr         string        `envconfig:"REDIS_ADDR"`
	RedisDB           int           `envconfig:"REDIS_DB" default:"0"`
	RedisPassword     string        `envconfig:"REDIS_PASSWORD"`
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"30"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	SecretsDir string `envconfig:"SECRETS_DIR" default:"/run/secrets"`
}

// GetAllowedOrigins возвращает список разрешённых CORS origins.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// RateLimitEnabled - true, если настроен Redis и положительный лимит.
func (c *Config) RateLimitEnabled() bool {
	return c.RedisAddr != "" && c.RateLimitRequests > 0 && c.RateLimitWindow > 0
}

// Validate проверяет значения, которые envconfig не может проверить сам.
func (c *Config) Validate() error {
	switch c.AIClientType {
	case ClientTypeOpenRouter, ClientTypeOllama:
	default:
		return fmt.Errorf("unsupported AI_CLIENT_TYPE %q", c.AIClientType)
	}
	if c.AIBaseURL == "" {
		return fmt.Errorf("AI_BASE_URL must not be empty")
	}
	if c.AIModel == "" {
		return fmt.Errorf("AI_MODEL must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// LoadConfig загружает .env (если файл есть), переменные окружения и секреты.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err = godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	// Переменная окружения приоритетнее Docker secret.
	if cfg.AIAPIKey == "" {
		key, err := utils.ReadSecretFrom(cfg.SecretsDir, apiKeySecretName)
		if err == nil {
			cfg.AIAPIKey = key
		} else {
			log.Printf("Optional secret '%s' not found: %v. Generation requests will fail until a key is configured.", apiKeySecretName, err)
		}
	}
	if cfg.RedisPassword == "" && cfg.RedisAddr != "" {
		if pass, err := utils.ReadSecretFrom(cfg.SecretsDir, redisPasswordSecretName); err == nil {
			cfg.RedisPassword = pass
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
