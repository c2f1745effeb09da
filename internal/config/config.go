// Package config reads the board service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	defaultCacheTTL = 5 * time.Minute
	minSecretLength = 32
)

type Config struct {
	DBDriver  string
	DSN       string
	Redis     *redis.Options
	CacheTTL  time.Duration
	JWTSecret string
	LogLevel  log.Level
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup, reporting every missing
// required variable at once.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDriver: getenv("DB_DRIVER"),
		CacheTTL: defaultCacheTTL,
		LogLevel: log.InfoLevel,
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = DriverPostgres
	}

	var required []string
	switch cfg.DBDriver {
	case DriverPostgres:
		required = []string{
			"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
			"POSTGRES_HOST", "POSTGRES_PORT",
		}
	case DriverSQLite:
		required = []string{"SQLITE_PATH"}
	default:
		return nil, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, cfg.DBDriver)
	}
	var missing []string
	for _, env := range required {
		if getenv(env) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("environment variables must be set: %s", strings.Join(missing, ", "))
	}

	if cfg.DBDriver == DriverPostgres {
		cfg.DSN = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			getenv("POSTGRES_HOST"), getenv("POSTGRES_USER"), getenv("POSTGRES_PASSWORD"),
			getenv("POSTGRES_DB"), getenv("POSTGRES_PORT"))
	} else {
		cfg.DSN = getenv("SQLITE_PATH")
	}

	if v := getenv("REDIS_URL"); v != "" {
		opts, err := redis.ParseURL(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		cfg.Redis = opts
	}

	if v := getenv("BOARD_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid BOARD_CACHE_TTL %q", v)
		}
		cfg.CacheTTL = d
	}

	cfg.JWTSecret = getenv("JWT_SECRET")
	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		lvl, err := log.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	} else if dbg, err := strconv.ParseBool(getenv("DEBUG")); err == nil && dbg {
		cfg.LogLevel = log.DebugLevel
	}
	return cfg, nil
}

// ConfigureLogging applies the level to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	log.SetLevel(c.LogLevel)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
