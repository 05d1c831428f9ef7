package config

import (
	"os"
	"path/filepath"
	"time"

	kdl "github.com/sblinch/kdl-go"
)

// KDL configuration file names
const (
	GlobalConfigFile  = "config.kdl"
	ProjectConfigFile = ".abletonmcp.kdl"
)

// KDLConfig represents the KDL configuration structure.
// Uses kdl struct tags for unmarshaling.
type KDLConfig struct {
	SocketPath string      `kdl:"socket-path"`
	LogLevel   string      `kdl:"log-level"`
	Connect    *KDLConnect `kdl:"connect"`
}

// KDLConnect holds acquisition settings from KDL. Durations are seconds.
type KDLConnect struct {
	MaxAttempts  int `kdl:"max-attempts"`
	RetryBackoff int `kdl:"retry-backoff"`
	DialTimeout  int `kdl:"dial-timeout"`
}

// Load returns the effective configuration: defaults, overlaid with the
// global config file (if present), overlaid with a project-local
// .abletonmcp.kdl in the working directory (if present).
func Load() (*Config, error) {
	cfg := Default()

	if path := globalConfigPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadFile(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	if _, err := os.Stat(ProjectConfigFile); err == nil {
		data, err := os.ReadFile(ProjectConfigFile)
		if err != nil {
			return nil, err
		}
		if err := applyKDL(cfg, string(data)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadFile loads configuration from a specific file path on top of defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse parses KDL configuration data on top of defaults.
func Parse(data string) (*Config, error) {
	cfg := Default()
	if err := applyKDL(cfg, data); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyKDL overlays KDL data onto cfg, keeping existing values for anything
// the document omits.
func applyKDL(cfg *Config, data string) error {
	var kdlCfg KDLConfig
	if err := kdl.Unmarshal([]byte(data), &kdlCfg); err != nil {
		return err
	}

	if kdlCfg.SocketPath != "" {
		cfg.SocketPath = kdlCfg.SocketPath
	}
	if kdlCfg.LogLevel != "" {
		cfg.LogLevel = kdlCfg.LogLevel
	}
	if kdlCfg.Connect != nil {
		if kdlCfg.Connect.MaxAttempts > 0 {
			cfg.MaxAttempts = kdlCfg.Connect.MaxAttempts
		}
		if kdlCfg.Connect.RetryBackoff > 0 {
			cfg.RetryBackoff = time.Duration(kdlCfg.Connect.RetryBackoff) * time.Second
		}
		if kdlCfg.Connect.DialTimeout > 0 {
			cfg.DialTimeout = time.Duration(kdlCfg.Connect.DialTimeout) * time.Second
		}
	}
	return nil
}

// globalConfigPath returns the XDG location of the global config file, or
// empty when no home directory is resolvable.
func globalConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "abletonmcp", GlobalConfigFile)
}
