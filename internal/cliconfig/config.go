package cliconfig

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/pkg/log"
)

// DefaultDBName is the database file created under the data directory.
const DefaultDBName = "gones.db"

// Config holds CLI configuration for gonesbridge.
type Config struct {
	DBPath     string
	LegacyDirs []string
	LegacyDump string
	ModulePath string
	WatchDir   string
	LogLevel   string

	SurfacePollInterval time.Duration
	SurfaceMaxInterval  time.Duration
	ShutdownTimeout     time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		LogLevel:            "info",
		SurfacePollInterval: 10 * time.Millisecond,
		SurfaceMaxInterval:  250 * time.Millisecond,
		ShutdownTimeout:     30 * time.Second,
		DBPath:              "", // Derived from the data directory during Validate
	}
}

// DefaultDataDir returns ~/.gonesbridge, or "" when the home directory is unknown.
func DefaultDataDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".gonesbridge")
	}
	return ""
}

// Validate checks the configuration for errors and sets derived defaults.
// Failures wrap domain.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		dir := DefaultDataDir()
		if dir == "" {
			return fmt.Errorf("%w: db path is required (no home directory)", domain.ErrInvalidConfig)
		}
		c.DBPath = filepath.Join(dir, DefaultDBName)
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", domain.ErrInvalidConfig, c.LogLevel)
	}

	if c.SurfacePollInterval <= 0 {
		return fmt.Errorf("%w: surface poll interval must be positive", domain.ErrInvalidConfig)
	}
	if c.SurfaceMaxInterval < c.SurfacePollInterval {
		return fmt.Errorf("%w: surface max interval must not be below the poll interval", domain.ErrInvalidConfig)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", domain.ErrInvalidConfig)
	}

	// Drop empty entries left by trailing separators.
	dirs := c.LegacyDirs[:0]
	for _, d := range c.LegacyDirs {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	c.LegacyDirs = dirs

	return nil
}

// Logger builds the process logger at the configured level.
func (c Config) Logger(w io.Writer) log.Logger {
	return log.NewZerologAdapter(w, c.LogLevel)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setDurationValue sets an already-parsed duration if positive and flag not changed.
func (s *configSetter) setDurationValue(flag string, value time.Duration, dst *time.Duration) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}
