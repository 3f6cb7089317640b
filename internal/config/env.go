package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type StorageEnv struct {
	Type string `envconfig:"STORAGE_TYPE" default:"local"`
	// BaseDir overrides the per-project default under ~/.triage.
	BaseDir string `envconfig:"STORAGE_BASE_DIR"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"triage/"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
	// Postgres settings (used when Type == "postgres")
	PostgresDSN string `envconfig:"POSTGRES_DSN"`
}

type EngineEnv struct {
	ModelPath     string        `envconfig:"MODEL_PATH"`
	CapacityHours float64       `envconfig:"CAPACITY_HOURS" default:"10"`
	LockTTL       time.Duration `envconfig:"LOCK_TTL" default:"30s"`
}

type HTTPEnv struct {
	Addr        string   `envconfig:"HTTP_ADDR" default:":3100"`
	APISecret   string   `envconfig:"API_SECRET"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

type Env struct {
	BaseEnv
	StorageEnv
	EngineEnv
	HTTPEnv
}

const namespace = "TRIAGE"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

// Validate checks the settings the selected storage type depends on.
func (e *Env) Validate() error {
	switch e.StorageEnv.Type {
	case "local":
	case "s3":
		if e.S3Bucket == "" {
			return fmt.Errorf("%s_S3_BUCKET is required for s3 storage", namespace)
		}
	case "postgres":
		if e.PostgresDSN == "" {
			return fmt.Errorf("%s_POSTGRES_DSN is required for postgres storage", namespace)
		}
	default:
		return fmt.Errorf("unknown storage type %q (valid: local, s3, postgres)", e.StorageEnv.Type)
	}
	if e.CapacityHours <= 0 {
		return fmt.Errorf("%s_CAPACITY_HOURS must be positive", namespace)
	}
	return nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds the process logger: text when running locally, JSON
// everywhere else.
func (e *BaseEnv) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: e.SlogLevel()}
	if e == nil || e.Env == "local" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
