package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the full rpg-server configuration.
type Config struct {
	// Server
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Secret field, loaded from the secret store below.
	DBPassword string

	// Redis (per-character generation locks)
	RedisAddr string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL   time.Duration `envconfig:"GENERATION_LOCK_TTL" default:"2m"`

	// RabbitMQ (client update notifications); empty URL disables publishing.
	RabbitMQURL        string `envconfig:"RABBITMQ_URL" default:""`
	ClientUpdatesQueue string `envconfig:"CLIENT_UPDATES_QUEUE_NAME" default:"client_updates"`

	// Generation capability
	AIProvider           string        `envconfig:"AI_PROVIDER" default:"openai"` // openai | ollama
	AIBaseURL            string        `envconfig:"AI_BASE_URL" default:""`
	AIModel              string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout            time.Duration `envconfig:"AI_TIMEOUT" default:"90s"`
	AIHistoryTokenBudget int           `envconfig:"AI_HISTORY_TOKEN_BUDGET" default:"3000"`
	// Secret field
	AIAPIKey string

	// Stale waiting-flag sweep on startup
	StaleWaitingThreshold time.Duration `envconfig:"STALE_WAITING_THRESHOLD" default:"10m"`

	// Secret field
	JWTSecret string
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig loads configuration from environment variables and secrets.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load rpg-server config: %w", err)
	}

	var err error
	if cfg.DBPassword, err = readSecret("db_password"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = readSecret("jwt_secret"); err != nil {
		return nil, err
	}
	// The AI key is optional when running against a local ollama.
	cfg.AIAPIKey, _ = readSecret("ai_api_key")

	return &cfg, nil
}

// readSecret reads a secret from the standard Docker Secrets path, falling
// back to the upper-cased environment variable for local runs.
func readSecret(name string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", name)
	if b, err := os.ReadFile(filePath); err == nil {
		secret := strings.TrimSpace(string(b))
		if secret != "" {
			return secret, nil
		}
	}
	if v := strings.TrimSpace(os.Getenv(strings.ToUpper(name))); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("secret %s not found in %s or env %s", name, filePath, strings.ToUpper(name))
}
