/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings come from an optional YAML file plus operating system environment
variables. Precedence is environment variables > YAML file > built-in defaults.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig contains all configuration parameters required for the chat core to run.
type AppConfig struct {
	// General Settings
	Environment string `yaml:"environment"`

	// Storage Settings
	DataDir string `yaml:"data_dir"`

	// Session Lifecycle Settings
	PurgeDelay  time.Duration `yaml:"-"`
	InviteRate  float64       `yaml:"invite_rate"`
	InviteBurst int           `yaml:"invite_burst"`

	// PurgeDelaySeconds is the YAML-facing form of PurgeDelay.
	PurgeDelaySeconds int `yaml:"purge_delay_seconds"`
}

// LoadConfig reads and parses the application configuration.
// It starts from defaults, merges the YAML file referenced by CONFIG_FILE when
// set, then applies environment variable overrides and validates the result.
// It returns a pointer to the AppConfig struct and any error encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		Environment:       "development",
		DataDir:           "data",
		PurgeDelaySeconds: 60,
		InviteRate:        1,
		InviteBurst:       5,
	}

	// --- Optional YAML file ---
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// --- Environment variable overrides ---
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Environment = env
	}

	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	if delayStr := os.Getenv("PURGE_DELAY_SECONDS"); delayStr != "" {
		delay, err := strconv.Atoi(delayStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PURGE_DELAY_SECONDS environment variable: %w", err)
		}
		cfg.PurgeDelaySeconds = delay
	}

	if rateStr := os.Getenv("INVITE_RATE"); rateStr != "" {
		rate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid INVITE_RATE environment variable: %w", err)
		}
		cfg.InviteRate = rate
	}

	if burstStr := os.Getenv("INVITE_BURST"); burstStr != "" {
		burst, err := strconv.Atoi(burstStr)
		if err != nil {
			return nil, fmt.Errorf("invalid INVITE_BURST environment variable: %w", err)
		}
		cfg.InviteBurst = burst
	}

	// --- Validation ---
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data directory must not be empty")
	}

	if cfg.PurgeDelaySeconds < 1 {
		return nil, fmt.Errorf("purge delay of %d seconds is below the minimum of 1 second", cfg.PurgeDelaySeconds)
	}

	if cfg.InviteRate < 0 {
		return nil, fmt.Errorf("invite rate must not be negative, got %f", cfg.InviteRate)
	}

	if cfg.InviteRate > 0 && cfg.InviteBurst < 1 {
		return nil, fmt.Errorf("invite burst must be at least 1 when rate limiting is enabled, got %d", cfg.InviteBurst)
	}

	cfg.PurgeDelay = time.Duration(cfg.PurgeDelaySeconds) * time.Second

	return cfg, nil
}
