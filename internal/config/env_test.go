package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "local", env.Env)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, "triage/", env.S3Prefix)
	assert.Equal(t, 10.0, env.CapacityHours)
	assert.Equal(t, 30*time.Second, env.LockTTL)
	assert.Equal(t, ":3100", env.Addr)
	assert.Equal(t, []string{"*"}, env.CORSOrigins)
	assert.Empty(t, env.APISecret)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRIAGE_ENV", "production")
	t.Setenv("TRIAGE_STORAGE_TYPE", "s3")
	t.Setenv("TRIAGE_S3_BUCKET", "backlog")
	t.Setenv("TRIAGE_CAPACITY_HOURS", "7.5")
	t.Setenv("TRIAGE_LOCK_TTL", "2m")
	t.Setenv("TRIAGE_CORS_ORIGINS", "https://a.example,https://b.example")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "production", env.Env)
	assert.Equal(t, "backlog", env.S3Bucket)
	assert.Equal(t, 7.5, env.CapacityHours)
	assert.Equal(t, 2*time.Minute, env.LockTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, env.CORSOrigins)
}

func TestLoadEnvInvalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"unknown storage", map[string]string{"TRIAGE_STORAGE_TYPE": "ftp"}, "unknown storage type"},
		{"s3 without bucket", map[string]string{"TRIAGE_STORAGE_TYPE": "s3"}, "TRIAGE_S3_BUCKET"},
		{"postgres without dsn", map[string]string{"TRIAGE_STORAGE_TYPE": "postgres"}, "TRIAGE_POSTGRES_DSN"},
		{"zero capacity", map[string]string{"TRIAGE_CAPACITY_HOURS": "0"}, "CAPACITY_HOURS"},
		{"unparsable ttl", map[string]string{"TRIAGE_LOCK_TTL": "soon"}, "failed to load env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.vars {
				t.Setenv(k, v)
			}
			_, err := LoadEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, (&BaseEnv{LogLevel: tt.in}).SlogLevel())
		})
	}

	var nilEnv *BaseEnv
	assert.Equal(t, slog.LevelInfo, nilEnv.SlogLevel())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	(&BaseEnv{Env: "production", LogLevel: "info"}).NewLogger(&buf).Info("hello", "k", "v")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())

	buf.Reset()
	(&BaseEnv{Env: "local", LogLevel: "info"}).NewLogger(&buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello k=v")

	buf.Reset()
	(&BaseEnv{Env: "local", LogLevel: "warn"}).NewLogger(&buf).Info("quiet")
	assert.Empty(t, buf.String())
}
