// Package daemon manages the Shadow daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	User         UserConfig         `toml:"user"`
	API          APIConfig          `toml:"api"`
	Stats        StatsConfig        `toml:"stats"`
	Presentation PresentationConfig `toml:"presentation"`
	Telemetry    TelemetryConfig    `toml:"telemetry"`
	Logging      LoggingConfig      `toml:"logging"`
}

// UserConfig identifies the practicing user.
type UserConfig struct {
	ID       string `toml:"id"`
	Timezone string `toml:"timezone"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StatsConfig controls the statistics engine.
type StatsConfig struct {
	SyncThreshold int    `toml:"sync_threshold"`
	RetentionDays int    `toml:"retention_days"`
	PruneAt       string `toml:"prune_at"` // "HH:MM" local time
}

// PresentationConfig controls popup auto-close timings.
type PresentationConfig struct {
	SnackbarMS  int `toml:"snackbar_ms"`
	MilestoneMS int `toml:"milestone_ms"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		User: UserConfig{
			ID:       "local",
			Timezone: "UTC",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7531,
		},
		Stats: StatsConfig{
			SyncThreshold: 10,
			RetentionDays: 365,
			PruneAt:       "03:30",
		},
		Presentation: PresentationConfig{
			SnackbarMS:  2000,
			MilestoneMS: 4000,
		},
		Telemetry: TelemetryConfig{
			Prometheus: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads config from ~/.shadow/config.toml, falling back to
// defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(shadowHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.shadow/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(shadowHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// shadowHome returns the Shadow data directory.
func shadowHome() string {
	if env := os.Getenv("SHADOW_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".shadow")
}

// ShadowHome is exported for use by other packages.
func ShadowHome() string {
	return shadowHome()
}
