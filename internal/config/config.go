// Package config resolves process-wide configuration once at startup from
// the environment (and an optional local .env file). Nothing here mutates at
// runtime.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Mail     MailConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `env:"SERVER_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `env:"DATABASE_PATH" env-default:"scraptrack.sqlite3"`
}

// AuthConfig holds the access gate credential pair and session token
// settings. Exactly one of Password/PasswordHash must be set.
type AuthConfig struct {
	Username     string        `env:"AUTH_USERNAME"      env-default:"admin"`
	Password     string        `env:"AUTH_PASSWORD"`
	PasswordHash string        `env:"AUTH_PASSWORD_HASH"`
	JWTSecret    string        `env:"AUTH_JWT_SECRET"`
	TokenTTL     time.Duration `env:"AUTH_TOKEN_TTL"     env-default:"168h"`
}

// MailConfig holds the SMTP transport settings.
type MailConfig struct {
	Host        string        `env:"MAIL_HOST"         env-default:"smtp.gmail.com"`
	Port        int           `env:"MAIL_PORT"         env-default:"587"`
	Username    string        `env:"MAIL_USERNAME"`
	Password    string        `env:"MAIL_PASSWORD"`
	From        string        `env:"MAIL_FROM"`
	SendTimeout time.Duration `env:"MAIL_SEND_TIMEOUT" env-default:"30s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
	File  string `env:"LOG_FILE"`
}

// Load reads configuration from a local .env file (if present) and the
// process environment, then validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field constraints cleanenv tags can't express.
func (c *Config) Validate() error {
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return errors.New("one of AUTH_PASSWORD or AUTH_PASSWORD_HASH must be set")
	}
	if c.Mail.From == "" {
		return errors.New("MAIL_FROM must be set")
	}
	if c.Mail.SendTimeout <= 0 {
		return errors.New("MAIL_SEND_TIMEOUT must be positive")
	}
	return nil
}
