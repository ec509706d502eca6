package app

import (
	"context"

	"github.com/bft-labs/gonesbridge/internal/ports"
	"github.com/bft-labs/gonesbridge/pkg/lifecycle"
	"github.com/bft-labs/gonesbridge/pkg/log"
)

// focusWhenReady polls for the session's rendering surface and focuses it
// once it appears. It gives up when the session ends.
func (c *Controller) focusWhenReady(ctx context.Context, mod ports.Module, logger log.Logger) {
	defer c.lifecycle.WorkerDone()

	locator := c.locatorFor(mod)
	if locator == nil {
		logger.Debug("no surface locator, skipping focus")
		return
	}

	backoff := lifecycle.NewBackoff(c.config.SurfacePollInterval, c.config.SurfaceMaxInterval)
	for {
		if surface, ok := locator.Surface(); ok {
			c.mu.Lock()
			if ctx.Err() == nil {
				c.surface = surface
			}
			c.mu.Unlock()

			if err := surface.Focus(); err != nil {
				logger.Warn("failed to focus surface", log.Err(err))
				return
			}
			logger.Debug("surface focused")
			return
		}
		logger.Debug("surface not ready", log.Duration("retry_in", backoff.Current()))
		if err := backoff.Wait(ctx); err != nil {
			return
		}
	}
}

func (c *Controller) locatorFor(mod ports.Module) ports.SurfaceLocator {
	if l, ok := mod.(ports.SurfaceLocator); ok {
		return l
	}
	return c.locator
}

// FocusWindow re-focuses the session's surface, as when the host window
// regains focus. It is a no-op until the surface has been located.
func (c *Controller) FocusWindow() error {
	c.mu.Lock()
	surface := c.surface
	c.mu.Unlock()

	if surface == nil {
		return nil
	}
	return surface.Focus()
}
