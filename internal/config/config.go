package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Env         string     `yaml:"env" env:"ENV" env-default:"local"`
	LogLevel    string     `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTPServer  HTTPServer `yaml:"http_server"`
	StoreDriver string     `yaml:"store_driver" env:"STORE_DRIVER" env-default:"postgres"`
	DatabaseURL string     `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL    string     `yaml:"redis_url" env:"REDIS_URL"`
	TokenFile   string     `yaml:"token_file" env:"TOKEN_FILE" env-default:".TOKEN"`
	Discord     Discord    `yaml:"discord"`
	NameCache   NameCache  `yaml:"name_cache"`
	Kafka       Kafka      `yaml:"kafka"`
}

type HTTPServer struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Discord configures the guild-name lookup.
type Discord struct {
	BaseURL    string        `yaml:"base_url" env:"DISCORD_API_URL" env-default:"https://discord.com/api"`
	BotToken   string        `yaml:"bot_token" env:"DISCORD_BOT_TOKEN"`
	AuthScheme string        `yaml:"auth_scheme" env:"DISCORD_AUTH_SCHEME" env-default:"Bot"`
	UserAgent  string        `yaml:"user_agent" env:"DISCORD_USER_AGENT" env-default:"curl/7.58.0"`
	Timeout    time.Duration `yaml:"timeout" env:"DISCORD_TIMEOUT" env-default:"5s"`
	RateLimit  int           `yaml:"rate_limit" env:"DISCORD_RATE_LIMIT" env-default:"5"`
}

// NameCache configures guild-name caching. Budget bounds all lookups made
// while rendering one page.
type NameCache struct {
	TTL         time.Duration `yaml:"ttl" env:"NAME_CACHE_TTL" env-default:"24h"`
	FallbackTTL time.Duration `yaml:"fallback_ttl" env:"NAME_CACHE_FALLBACK_TTL" env-default:"10m"`
	Budget      time.Duration `yaml:"budget" env:"NAME_BUDGET" env-default:"3s"`
}

// Kafka configures the optional event mirror. No brokers means no mirror.
type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"guild-events"`
}

// Load reads configuration from the file named by CONFIG_PATH, if set, and
// then from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	return nil
}

// LoadToken reads the shared ingestion secret. Surrounding whitespace is
// dropped; an empty secret is rejected.
func LoadToken(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return token, nil
}
