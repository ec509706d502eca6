package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config but uses strings for durations to make the file
// format friendly. Both TOML and YAML files decode into it.
type FileConfig struct {
	DBPath              string   `toml:"db_path" yaml:"db_path"`
	LegacyDirs          []string `toml:"legacy_dirs" yaml:"legacy_dirs"`
	LegacyDump          string   `toml:"legacy_dump" yaml:"legacy_dump"`
	ModulePath          string   `toml:"module" yaml:"module"`
	WatchDir            string   `toml:"watch_dir" yaml:"watch_dir"`
	LogLevel            string   `toml:"log_level" yaml:"log_level"`
	SurfacePollInterval string   `toml:"surface_poll_interval" yaml:"surface_poll_interval"`
	SurfaceMaxInterval  string   `toml:"surface_max_interval" yaml:"surface_max_interval"`
	ShutdownTimeout     string   `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoadFileConfig reads and parses a config file. Files ending in .yaml or
// .yml are YAML; anything else is TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.gonesbridge/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if dir := DefaultDataDir(); dir != "" {
		return filepath.Join(dir, "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("db", fc.DBPath, &cfg.DBPath)
	s.setStrings("legacy-dir", fc.LegacyDirs, &cfg.LegacyDirs)
	s.setString("legacy-dump", fc.LegacyDump, &cfg.LegacyDump)
	s.setString("module", fc.ModulePath, &cfg.ModulePath)
	s.setString("watch", fc.WatchDir, &cfg.WatchDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("surface-poll", fc.SurfacePollInterval, &cfg.SurfacePollInterval); err != nil {
		return err
	}
	if err := s.setDuration("surface-max", fc.SurfaceMaxInterval, &cfg.SurfaceMaxInterval); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
