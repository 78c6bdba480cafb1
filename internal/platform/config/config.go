package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	Production = "production"
)

type Config struct {
	Addr              string `env:"APP_ADDR" envDefault:":8080"`
	DatabaseURL       string `env:"DATABASE_URL"`
	StoreDriver       string `env:"STORE_DRIVER" envDefault:"postgres"`
	JWTSecret         string `env:"JWT_SECRET"`
	DataEncryptionKey string `env:"DATA_ENCRYPTION_KEY"`
	Environment       string `env:"APP_ENV" envDefault:"development"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat         string `env:"LOG_FORMAT"`
	RunMigrations     bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	MaxBodyBytes      int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	MetricsEnabled    bool   `env:"METRICS_ENABLED" envDefault:"true"`
	ReportsDir        string `env:"REPORTS_DIR" envDefault:"reports"`
}

// LoadEnv loads whichever of the given dotenv files exist. Variables already set in the
// process environment win.
func LoadEnv(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func Load() (Config, error) {
	if _, err := LoadEnv(".env", ".env.local"); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case DriverMemory:
		if c.Environment == Production {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", DriverPostgres, DriverMemory)
	}
	if c.Environment == Production {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	return nil
}
