package config

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func postgresEnv() map[string]string {
	return map[string]string{
		"POSTGRES_USER":     "board",
		"POSTGRES_PASSWORD": "secret",
		"POSTGRES_DB":       "boards",
		"POSTGRES_HOST":     "db",
		"POSTGRES_PORT":     "5432",
	}
}

func TestFromEnv_PostgresDefaults(t *testing.T) {
	cfg, err := FromEnv(envFrom(postgresEnv()))
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "host=db user=board password=secret dbname=boards port=5432 sslmode=disable", cfg.DSN)
	assert.Nil(t, cfg.Redis)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
	assert.Empty(t, cfg.JWTSecret)
}

func TestFromEnv_SQLite(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"DB_DRIVER":       "sqlite3",
		"SQLITE_PATH":     "boards.db",
		"REDIS_URL":       "redis://localhost:6379/2",
		"BOARD_CACHE_TTL": "30s",
		"JWT_SECRET":      "0123456789abcdef0123456789abcdef",
		"LOG_LEVEL":       "warn",
	}))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "boards.db", cfg.DSN)
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, log.WarnLevel, cfg.LogLevel)
}

func TestFromEnv_DebugFlag(t *testing.T) {
	env := postgresEnv()
	env["DEBUG"] = "true"
	cfg, err := FromEnv(envFrom(env))
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing postgres vars",
			env:     map[string]string{"POSTGRES_USER": "board"},
			wantErr: "POSTGRES_PASSWORD, POSTGRES_DB, POSTGRES_HOST, POSTGRES_PORT",
		},
		{
			name:    "missing sqlite path",
			env:     map[string]string{"DB_DRIVER": "sqlite3"},
			wantErr: "SQLITE_PATH",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"DB_DRIVER": "mysql"},
			wantErr: "DB_DRIVER",
		},
		{
			name:    "bad cache ttl",
			env:     map[string]string{"DB_DRIVER": "sqlite3", "SQLITE_PATH": "x.db", "BOARD_CACHE_TTL": "soon"},
			wantErr: "BOARD_CACHE_TTL",
		},
		{
			name:    "short jwt secret",
			env:     map[string]string{"DB_DRIVER": "sqlite3", "SQLITE_PATH": "x.db", "JWT_SECRET": "short"},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"DB_DRIVER": "sqlite3", "SQLITE_PATH": "x.db", "LOG_LEVEL": "loud"},
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "bad redis url",
			env:     map[string]string{"DB_DRIVER": "sqlite3", "SQLITE_PATH": "x.db", "REDIS_URL": "http://nope"},
			wantErr: "REDIS_URL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromEnv(envFrom(tt.env))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
