package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"matlog/internal/db"
)

const defaultSQLiteDSN = "file:matlog.db?_pragma=foreign_keys(1)"

type Config struct {
	Port                  string
	AppEnv                string
	DBDriver              string
	DatabaseURL           string
	JWTSecret             string
	JWTIssuer             string
	EncryptionSecret      string
	AllowedOrigins        []string
	TrustForwardedHeaders bool
}

func (c Config) Development() bool { return c.AppEnv == "development" }

func defaults() Config {
	return Config{
		Port:                  "8080",
		AppEnv:                "production",
		DBDriver:              db.DriverPostgres,
		AllowedOrigins:        []string{"*"},
		TrustForwardedHeaders: true,
	}
}

type fileConfig struct {
	Port                  string   `toml:"port"`
	AppEnv                string   `toml:"app_env"`
	DBDriver              string   `toml:"db_driver"`
	DatabaseURL           string   `toml:"database_url"`
	JWTIssuer             string   `toml:"jwt_issuer"`
	AllowedOrigins        []string `toml:"allowed_origins"`
	TrustForwardedHeaders bool     `toml:"trust_forwarded_headers"`
}

// Load reads .env if present, then the optional TOML file named by
// CONFIG_FILE, then the process environment. Later sources win.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv resolves configuration using getenv for environment lookups.
// Secrets are only read from the environment.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(getenv("CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(getenv("APP_ENV")); v != "" {
		cfg.AppEnv = v
	}
	if v := strings.TrimSpace(getenv("DB_DRIVER")); v != "" {
		cfg.DBDriver = v
	}
	if v := strings.TrimSpace(getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(getenv("JWT_ISSUER")); v != "" {
		cfg.JWTIssuer = v
	}
	if v := strings.TrimSpace(getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := strings.TrimSpace(getenv("TRUST_FORWARDED_HEADERS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse TRUST_FORWARDED_HEADERS: %w", err)
		}
		cfg.TrustForwardedHeaders = b
	}
	cfg.JWTSecret = getenv("JWT_SECRET")
	cfg.EncryptionSecret = getenv("ENCRYPTION_SECRET")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config file: %w", err)
	}
	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("app_env") {
		cfg.AppEnv = strings.TrimSpace(raw.AppEnv)
	}
	if meta.IsDefined("db_driver") {
		cfg.DBDriver = strings.TrimSpace(raw.DBDriver)
	}
	if meta.IsDefined("database_url") {
		cfg.DatabaseURL = strings.TrimSpace(raw.DatabaseURL)
	}
	if meta.IsDefined("jwt_issuer") {
		cfg.JWTIssuer = strings.TrimSpace(raw.JWTIssuer)
	}
	if meta.IsDefined("allowed_origins") {
		cfg.AllowedOrigins = normalizeList(raw.AllowedOrigins)
	}
	if meta.IsDefined("trust_forwarded_headers") {
		cfg.TrustForwardedHeaders = raw.TrustForwardedHeaders
	}
	return nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case db.DriverSQLite:
		if c.DatabaseURL == "" {
			c.DatabaseURL = defaultSQLiteDSN
		}
	case db.DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the pgx driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

func splitList(s string) []string {
	return normalizeList(strings.Split(s, ","))
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
