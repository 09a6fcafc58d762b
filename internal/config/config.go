package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	minSecretLen = 32
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	I18n      I18nConfig
}

type AppConfig struct {
	Name        string
	Environment string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver string
	Path   string // sqlite
	DSN    string // postgres
}

type SessionConfig struct {
	Secret      string
	CookieName  string
	IdleTimeout time.Duration
	// CookieSecure fuerza el flag Secure aunque el request no llegue por TLS.
	CookieSecure bool
	// TrustProxy habilita X-Forwarded-Proto / X-Forwarded-For.
	TrustProxy bool
	// Ephemeral indica que el secreto se generó al arrancar (solo development).
	Ephemeral bool
}

type LogConfig struct {
	Level  string
	Format string
	Output string // stdout | file
	File   string
}

type RateLimitConfig struct {
	AuthRequestsPerMinute int
	AuthBurst             int
}

type I18nConfig struct {
	DefaultLanguage string
}

// Load lee .env (si existe) y luego el entorno. El entorno siempre gana.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv construye la configuración sin tocar archivos.
func FromEnv() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "shelter-records"),
			Environment: strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("PORT", 5001),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 10<<20)),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Path:   getEnv("DB_PATH", "data/shelter.sqlite"),
			DSN:    getEnv("DB_DSN", ""),
		},
		Session: SessionConfig{
			Secret:       getEnv("SESSION_SECRET", ""),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "shelter_sid"),
			IdleTimeout:  getEnvDuration("SESSION_IDLE_TIMEOUT", 8*time.Hour),
			CookieSecure: getEnvBool("COOKIE_SECURE", false),
			TrustProxy:   getEnvBool("TRUST_PROXY", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
			File:   getEnv("LOG_FILE", "logs/app.log"),
		},
		RateLimit: RateLimitConfig{
			AuthRequestsPerMinute: getEnvInt("RATE_LIMIT_AUTH_RPM", 10),
			AuthBurst:             getEnvInt("RATE_LIMIT_AUTH_BURST", 5),
		},
		I18n: I18nConfig{
			DefaultLanguage: getEnv("DEFAULT_LANG", "pt-BR"),
		},
	}

	if cfg.Session.Secret == "" && cfg.App.Environment == EnvDevelopment {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Session.Secret = secret
		cfg.Session.Ephemeral = true
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Session.Secret == "" {
		errs = append(errs, "SESSION_SECRET is required")
	} else if len(cfg.Session.Secret) < minSecretLen && cfg.App.Environment != EnvDevelopment {
		errs = append(errs, fmt.Sprintf("SESSION_SECRET must be at least %d characters", minSecretLen))
	}

	if cfg.Session.IdleTimeout <= 0 {
		errs = append(errs, "SESSION_IDLE_TIMEOUT must be positive")
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		errs = append(errs, "SESSION_COOKIE_NAME must not be empty")
	}

	switch cfg.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.Database.Path) == "" {
			errs = append(errs, "DB_PATH is required for sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			errs = append(errs, "DB_DSN is required for postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER %q is not supported", cfg.Database.Driver))
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "PORT must be between 1 and 65535")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		errs = append(errs, "MAX_BODY_BYTES must be positive")
	}
	if cfg.RateLimit.AuthRequestsPerMinute <= 0 || cfg.RateLimit.AuthBurst <= 0 {
		errs = append(errs, "RATE_LIMIT_AUTH_RPM and RATE_LIMIT_AUTH_BURST must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, minSecretLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return fallback
}
