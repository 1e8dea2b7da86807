package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is loaded once at startup from configs/config.<env>.json.
type Config struct {
	Environment string `json:"environment"`
	Server      struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`
	MongoDB struct {
		URI      string `json:"uri"`
		Database string `json:"database"`
	} `json:"mongodb"`
	Admin struct {
		TokenSecret string `json:"tokenSecret"`
	} `json:"admin"`
	Frontend struct {
		URL string `json:"url"`
	} `json:"frontend"`
	Tournament struct {
		MaxTeams          int   `json:"maxTeams"`
		MaxParallelRounds int   `json:"maxParallelRounds"`
		PerTurnCapMs      int64 `json:"perTurnCapMs"`
		MatchBankMs       int64 `json:"matchBankMs"`
		SetupTimeoutMs    int64 `json:"setupTimeoutMs"`
	} `json:"tournament"`
}

// Load reads configs/config.<env>.json, expanding ${VAR} references against
// the process environment before parsing.
func Load(env string) (*Config, error) {
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "configs"
	}

	filename := fmt.Sprintf("config.%s.json", env)
	configPath := filepath.Join(configDir, filename)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	configStr := expandEnvVars(string(data))

	var cfg Config
	if err := json.Unmarshal([]byte(configStr), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Environment = env
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in the spec-mandated constants when a config file
// omits them, so a minimal config.<env>.json is still valid.
func (c *Config) applyDefaults() {
	if c.Tournament.MaxTeams == 0 {
		c.Tournament.MaxTeams = 20
	}
	if c.Tournament.MaxParallelRounds == 0 {
		c.Tournament.MaxParallelRounds = 5
	}
	if c.Tournament.PerTurnCapMs == 0 {
		c.Tournament.PerTurnCapMs = int64(10 * time.Second / time.Millisecond)
	}
	if c.Tournament.MatchBankMs == 0 {
		c.Tournament.MatchBankMs = int64(240 * time.Second / time.Millisecond)
	}
	if c.Tournament.SetupTimeoutMs == 0 {
		c.Tournament.SetupTimeoutMs = int64(30 * time.Second / time.Millisecond)
	}
}

func (c *Config) PerTurnCap() time.Duration {
	return time.Duration(c.Tournament.PerTurnCapMs) * time.Millisecond
}

func (c *Config) MatchBank() time.Duration {
	return time.Duration(c.Tournament.MatchBankMs) * time.Millisecond
}

func (c *Config) SetupTimeout() time.Duration {
	return time.Duration(c.Tournament.SetupTimeoutMs) * time.Millisecond
}

// expandEnvVars replaces ${VAR_NAME} with environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}

// GetEnv returns the active environment name, defaulting to "dev".
func GetEnv() string {
	env := os.Getenv("C4_ENV")
	if env == "" {
		return "dev"
	}
	return env
}
