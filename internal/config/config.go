package config

import (
	"errors" // Error construction
	"fmt"    // Error wrapping
	"time"   // Durations for TTLs and pool lifetimes

	"github.com/caarlos0/env/v11" // Struct-tag based environment parsing
	"github.com/joho/godotenv"    // For loading .env files
)

// DevJWTSecret is the fallback signing secret used outside production
const DevJWTSecret = "dev-secret-change-me"

// Config holds the application configuration
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"` // Application port

	DBDriver          string        `env:"DB_DRIVER" envDefault:"mysql"`         // mysql or postgres
	DBUser            string        `env:"DB_USER"`                              // Database user
	DBPassword        string        `env:"DB_PASSWORD"`                          // Database password
	DBHost            string        `env:"DB_HOST" envDefault:"localhost"`       // Database host
	DBPort            string        `env:"DB_PORT"`                              // Database port, driver default when empty
	DBName            string        `env:"DB_NAME" envDefault:"contract_system"` // Database name
	DBSSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`      // Postgres sslmode
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`    // Idle pool size
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`   // Open connection cap
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"` // Connection recycle interval

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"` // JWT secret key
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`                     // Token lifetime

	RedisAddr string        `env:"REDIS_ADDR"`                 // Redis server address, caching disabled when empty
	RedisPass string        `env:"REDIS_PASS"`                 // Redis password
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`    // Redis database number
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"60s"` // Read cache TTL

	MaxSignatureBytes int `env:"MAX_SIGNATURE_BYTES" envDefault:"1048576"` // Decoded signature image cap

	IsProd bool `env:"IS_PROD" envDefault:"false"` // Is production environment
}

// LoadConfig loads configuration from a .env file (if present) and the environment
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	return Parse()
}

// Parse reads configuration from the process environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	// A production deployment must not sign tokens with the shared dev secret
	if c.IsProd && (c.JWTSecret == "" || c.JWTSecret == DevJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}
