// Package config loads client configuration from the environment and an
// optional .env file using Viper.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds the client configuration.
type Config struct {
	// APIBaseURL is the fleet backend base URL, including any path prefix
	// (e.g. https://fleet.example.com/api).
	APIBaseURL string `mapstructure:"FLEET_API_URL"`
	// DataDir is where session state (tokens, cached user) is persisted.
	DataDir string `mapstructure:"FLEET_DATA_DIR"`
	// HTTPTimeout is the per-request timeout (e.g. "30s").
	HTTPTimeout string `mapstructure:"FLEET_HTTP_TIMEOUT"`
	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"FLEET_LOG_LEVEL"`
	// AppName is used for display purposes.
	AppName string `mapstructure:"FLEET_APP_NAME"`
}

// Load reads .env (if present) then the environment. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("FLEET_API_URL", "http://localhost:5000/api")
	v.SetDefault("FLEET_DATA_DIR", defaultDataDir())
	v.SetDefault("FLEET_HTTP_TIMEOUT", "30s")
	v.SetDefault("FLEET_LOG_LEVEL", "warn")
	v.SetDefault("FLEET_APP_NAME", "fleetcli")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "[config.Load] unmarshal")
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("config: FLEET_API_URL must be set")
	}
	if cfg.DataDir == "" {
		return nil, errors.New("config: FLEET_DATA_DIR must be set")
	}

	return &cfg, nil
}

// Timeout parses HTTPTimeout as a duration. Returns 30s if unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fleetcli"
	}
	return filepath.Join(home, ".fleetcli")
}
