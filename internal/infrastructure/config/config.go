// Package config loads application configuration from the environment.
//
// A .env file in the working directory is honoured before the process
// environment is read, so local development does not require exporting
// variables by hand.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// APIBaseURL is the backend root, e.g. https://api.fieldops.example.com.
	// The process refuses to run without it.
	APIBaseURL string `env:"FIELDOPS_API_BASE_URL, required"`
	// WSBaseURL optionally overrides the base used for the notifications
	// socket. When empty the socket URL is derived from APIBaseURL.
	WSBaseURL string `env:"FIELDOPS_WS_BASE_URL"`
	// APIPrefix is the versioned path prefix for most endpoints. Auth and
	// media endpoints live at the unversioned root.
	APIPrefix string `env:"FIELDOPS_API_PREFIX, default=/api/v1"`

	Env         string        `env:"FIELDOPS_ENV,          default=development"`
	LogLevel    string        `env:"FIELDOPS_LOG_LEVEL,    default=info"`
	HTTPTimeout time.Duration `env:"FIELDOPS_HTTP_TIMEOUT, default=30s"`
	// RateLimit caps outbound API calls per second.
	RateLimit float64 `env:"FIELDOPS_RATE_LIMIT, default=10"`

	Storage StorageConfig
	Redis   RedisConfig
	Obs     ObsConfig
}

// StorageConfig selects where credentials and local state live.
type StorageConfig struct {
	// Backend is "file" for per-user on-disk stores or "redis" for shared
	// kiosk deployments.
	Backend string `env:"FIELDOPS_STORAGE_BACKEND, default=file"`
	// Dir is the state directory for the file backend. Defaults to
	// $HOME/.fieldops when empty.
	Dir string `env:"FIELDOPS_STATE_DIR"`
	// Passphrase seals the credential store at rest.
	Passphrase string `env:"FIELDOPS_STORE_KEY, default=fieldops-dev-key"`
}

type RedisConfig struct {
	Addr string `env:"FIELDOPS_REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"FIELDOPS_REDIS_DB,   default=0"`
}

// ObsConfig configures the local observability server run by `fieldops watch`.
type ObsConfig struct {
	Addr string `env:"FIELDOPS_OBS_ADDR, default=127.0.0.1:9465"`
}

// Load reads configuration from a .env file (when present) and the
// environment using go-envconfig.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
