package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/adaptive"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"neuravia-cat"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	Security Security
	Adaptive Adaptive
	Bank     Bank
}

// Postgres captures connection info for the item bank database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds session state store configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing session tokens.
type Security struct {
	SessionTokenSecret string        `env:"SESSION_TOKEN_SECRET,notEmpty"`
	SessionTokenTTL    time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"2h"`
}

// Adaptive is the tuning surface of the selection engine. These are the main
// knobs of the whole system, so every one is an environment variable.
type Adaptive struct {
	WindowSize          int           `env:"ADAPTIVE_WINDOW_SIZE" envDefault:"3"`
	MinDifficulty       int           `env:"ADAPTIVE_MIN_DIFFICULTY" envDefault:"1"`
	MaxDifficulty       int           `env:"ADAPTIVE_MAX_DIFFICULTY" envDefault:"3"`
	HighAccuracy        float64       `env:"ADAPTIVE_HIGH_ACCURACY" envDefault:"0.8"`
	LowAccuracy         float64       `env:"ADAPTIVE_LOW_ACCURACY" envDefault:"0.4"`
	FastResponseSeconds float64       `env:"ADAPTIVE_FAST_RESPONSE_SECONDS" envDefault:"20"`
	SessionTTL          time.Duration `env:"SESSION_STATE_TTL" envDefault:"2h"`
}

// Bank sizes the synthetic item bank loaded by cmd/bankgen.
type Bank struct {
	Modules   []string `env:"BANK_MODULES" envSeparator:"," envDefault:"concentration,calculation,simulation"`
	PerModule int      `env:"BANK_ITEMS_PER_MODULE" envDefault:"500"`
}

// EngineConfig converts the tuning block into an engine configuration.
func (a Adaptive) EngineConfig() adaptive.Config {
	return adaptive.Config{
		WindowSize: a.WindowSize,
		Tuning: adaptive.Tuning{
			MinDifficulty:       a.MinDifficulty,
			MaxDifficulty:       a.MaxDifficulty,
			HighAccuracy:        a.HighAccuracy,
			LowAccuracy:         a.LowAccuracy,
			FastResponseSeconds: a.FastResponseSeconds,
		},
	}
}

// Load parses environment variables into App config. Adaptive tuning is
// validated here so a misconfigured deployment dies at startup, not on the
// first session.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Adaptive.WindowSize <= 0 {
		return nil, fmt.Errorf("validate config: ADAPTIVE_WINDOW_SIZE must be positive, got %d", cfg.Adaptive.WindowSize)
	}
	if err := cfg.Adaptive.EngineConfig().Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
