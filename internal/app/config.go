package app

import (
	"time"

	"github.com/bft-labs/gonesbridge/pkg/lifecycle"
)

// Default timings for the focus waiter.
const (
	DefaultSurfacePollInterval = 10 * time.Millisecond
	DefaultSurfaceMaxInterval  = 250 * time.Millisecond
)

// Config contains controller timings.
type Config struct {
	// SurfacePollInterval is the first delay between surface lookups.
	SurfacePollInterval time.Duration

	// SurfaceMaxInterval caps the delay between surface lookups.
	SurfaceMaxInterval time.Duration

	// ShutdownTimeout bounds how long Close waits for a session to end.
	ShutdownTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.SurfacePollInterval <= 0 {
		c.SurfacePollInterval = DefaultSurfacePollInterval
	}
	if c.SurfaceMaxInterval < c.SurfacePollInterval {
		c.SurfaceMaxInterval = DefaultSurfaceMaxInterval
		if c.SurfaceMaxInterval < c.SurfacePollInterval {
			c.SurfaceMaxInterval = c.SurfacePollInterval
		}
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = lifecycle.ShutdownTimeout
	}
	return c
}
