package cliconfig

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "GONESBRIDGE_"

// EnvConfig is the environment form of Config.
type EnvConfig struct {
	DBPath              string        `env:"DB_PATH"`
	LegacyDirs          []string      `env:"LEGACY_DIRS" envSeparator:","`
	LegacyDump          string        `env:"LEGACY_DUMP"`
	ModulePath          string        `env:"MODULE"`
	WatchDir            string        `env:"WATCH_DIR"`
	LogLevel            string        `env:"LOG_LEVEL"`
	SurfacePollInterval time.Duration `env:"SURFACE_POLL_INTERVAL"`
	SurfaceMaxInterval  time.Duration `env:"SURFACE_MAX_INTERVAL"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// LoadEnvConfig decodes GONESBRIDGE_* variables.
func LoadEnvConfig() (EnvConfig, error) {
	var ec EnvConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: EnvPrefix}); err != nil {
		return ec, fmt.Errorf("parse env: %w", err)
	}
	return ec, nil
}

// ApplyEnvConfig applies GONESBRIDGE_* variables to cfg.
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	ec, err := LoadEnvConfig()
	if err != nil {
		return err
	}

	s := newConfigSetter(changed)

	s.setString("db", ec.DBPath, &cfg.DBPath)
	s.setStrings("legacy-dir", ec.LegacyDirs, &cfg.LegacyDirs)
	s.setString("legacy-dump", ec.LegacyDump, &cfg.LegacyDump)
	s.setString("module", ec.ModulePath, &cfg.ModulePath)
	s.setString("watch", ec.WatchDir, &cfg.WatchDir)
	s.setString("log-level", ec.LogLevel, &cfg.LogLevel)

	s.setDurationValue("surface-poll", ec.SurfacePollInterval, &cfg.SurfacePollInterval)
	s.setDurationValue("surface-max", ec.SurfaceMaxInterval, &cfg.SurfaceMaxInterval)
	s.setDurationValue("shutdown-timeout", ec.ShutdownTimeout, &cfg.ShutdownTimeout)

	return nil
}
