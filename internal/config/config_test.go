package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWithEnv("", envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "USD", cfg.Ledger.Currency)
	assert.Equal(t, time.Hour, cfg.Ledger.CheckInterval)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=dashboard sslmode=disable", cfg.PostgresDSN())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
storage:
  backend: Redis
  key_prefix: alice
  redis:
    addr: "cache:6379"
oracle:
  url: "https://quotes.example/api"
  list_path: "$.data"
  timeout: 3s
ledger:
  timezone: Europe/Paris
  check_interval: 30m
`), 0o600))

	cfg, err := LoadWithEnv(path, envOf(map[string]string{
		"HTTP_ADDR": ":7000",
		"REDIS_DB":  "2",
		"LOG_LEVEL": "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "alice", cfg.Storage.KeyPrefix)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, "$.data", cfg.Oracle.ListPath)
	assert.Equal(t, 3*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Ledger.CheckInterval)
	assert.Equal(t, "debug", cfg.Log.Level)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"STORAGE_BACKEND": "sqlite"}},
		{name: "bad timezone", env: map[string]string{"LEDGER_TIMEZONE": "Mars/Olympus"}},
		{name: "bad redis db", env: map[string]string{"REDIS_DB": "two"}},
		{name: "bad events flag", env: map[string]string{"EVENTS_ENABLED": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithEnv("", envOf(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"), envOf(nil))
	assert.Error(t, err)
}

func TestPostgresDSN_Explicit(t *testing.T) {
	cfg, err := LoadWithEnv("", envOf(map[string]string{"DB_CONN_STR": "postgres://u:p@db/ledger"}))
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db/ledger", cfg.PostgresDSN())
}
