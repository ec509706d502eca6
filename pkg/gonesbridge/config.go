package gonesbridge

import (
	"fmt"
	"time"

	"github.com/bft-labs/gonesbridge/internal/app"
	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/pkg/lifecycle"
)

// Config holds the configuration for a Bridge.
type Config struct {
	// DBPath is the SQLite database holding save states and battery saves.
	DBPath string

	// LegacyDirs are searched, in order, for pre-database save files
	// ("<name>.sav", "<name>.state.gz") imported on first open.
	LegacyDirs []string

	// LegacyDump is a JSON object of legacy key/value pairs imported on first open.
	LegacyDump string

	// ModulePath is the emulator script. Ignored when WithLoader is used.
	ModulePath string

	// SurfacePollInterval is the first delay between rendering surface lookups.
	SurfacePollInterval time.Duration

	// SurfaceMaxInterval caps the delay between rendering surface lookups.
	SurfaceMaxInterval time.Duration

	// ShutdownTimeout bounds how long Stop waits for a running session.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with default timings.
func DefaultConfig() Config {
	return Config{
		SurfacePollInterval: app.DefaultSurfacePollInterval,
		SurfaceMaxInterval:  app.DefaultSurfaceMaxInterval,
		ShutdownTimeout:     lifecycle.ShutdownTimeout,
	}
}

// SetDefaults fills zero-valued timings.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.SurfacePollInterval <= 0 {
		c.SurfacePollInterval = d.SurfacePollInterval
	}
	if c.SurfaceMaxInterval <= 0 {
		c.SurfaceMaxInterval = d.SurfaceMaxInterval
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%w: db path is required", domain.ErrInvalidConfig)
	}
	if c.SurfaceMaxInterval < c.SurfacePollInterval {
		return fmt.Errorf("%w: surface max interval must not be below the poll interval", domain.ErrInvalidConfig)
	}
	return nil
}
