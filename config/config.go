package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the loaded configuration
type Config struct {
	Environment    string        `env:"ENVIRONMENT" envDefault:"development"`
	Port           string        `env:"PORT" envDefault:"8080"`
	APIBaseURL     string        `env:"API_BASE_URL,notEmpty"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	RedisURL       string        `env:"REDIS_URL"`
	JWTSecret      string        `env:"JWT_SECRET,notEmpty"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`

	Ledger     Ledger     `envPrefix:"LEDGER_"`
	Listing    Listing    `envPrefix:"LISTING_"`
	Payment    Payment    `envPrefix:"PAYMENT_"`
	Midtrans   Midtrans   `envPrefix:"MIDTRANS_"`
	CloudWatch CloudWatch `envPrefix:"CLOUDWATCH_"`
}

// Ledger selects where per-user unpaid orders are kept.
type Ledger struct {
	Backend   string `env:"BACKEND" envDefault:"redis"`
	Namespace string `env:"NAMESPACE" envDefault:"bms"`
}

type Listing struct {
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

type Payment struct {
	AttemptTTL time.Duration `env:"ATTEMPT_TTL" envDefault:"30m"`
	TopicARN   string        `env:"TOPIC_ARN"`
}

// Midtrans holds the Snap settings. ServerKeySecret names an AWS Secrets Manager
// secret that overrides ServerKey when set.
type Midtrans struct {
	ServerKey       string `env:"SERVER_KEY"`
	ServerKeySecret string `env:"SERVER_KEY_SECRET"`
	ClientKey       string `env:"CLIENT_KEY"`
	Environment     string `env:"ENVIRONMENT" envDefault:"sandbox"`
	SnapURL         string `env:"SNAP_URL" envDefault:"https://app.sandbox.midtrans.com/snap/snap.js"`
}

type CloudWatch struct {
	Enabled   bool   `env:"ENABLED" envDefault:"false"`
	Namespace string `env:"NAMESPACE" envDefault:"BMSStorefront"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return Parse()
}

// Parse reads the current process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Ledger.Backend {
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when LEDGER_BACKEND=redis")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported LEDGER_BACKEND %q", c.Ledger.Backend)
	}
	switch c.Midtrans.Environment {
	case "sandbox", "production":
	default:
		return fmt.Errorf("unsupported MIDTRANS_ENVIRONMENT %q", c.Midtrans.Environment)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
