package gonesbridge

import (
	"github.com/bft-labs/gonesbridge/internal/ports"
	"github.com/bft-labs/gonesbridge/pkg/log"
	"github.com/bft-labs/gonesbridge/pkg/protocol"
)

// Option configures optional behavior of a Bridge.
type Option func(*options)

// options holds the optional configuration for a Bridge instance.
type options struct {
	logger        log.Logger
	eventHandler  EventHandler
	loader        ports.ModuleLoader
	locator       ports.SurfaceLocator
	legacySources []ports.LegacySource
	plugins       []Plugin
	conn          protocol.Conn
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NoopLogger{},
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithEventHandler registers a handler for state changes.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithLoader supplies the module loader, replacing Config.ModulePath.
func WithLoader(loader ports.ModuleLoader) Option {
	return func(o *options) {
		o.loader = loader
	}
}

// WithSurfaceLocator sets the locator used for modules that do not locate
// their own rendering surface.
func WithSurfaceLocator(locator ports.SurfaceLocator) Option {
	return func(o *options) {
		o.locator = locator
	}
}

// WithLegacySource adds a legacy source imported on the database's first
// open, after Config.LegacyDirs and Config.LegacyDump.
func WithLegacySource(src ports.LegacySource) Option {
	return func(o *options) {
		o.legacySources = append(o.legacySources, src)
	}
}

// WithPlugin registers a plugin to be initialized when the bridge starts.
// Plugins are initialized in registration order and shutdown in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithConn serves the frame over conn, typically a protocol.StreamConn on a
// host process's stdio, instead of the in-process pipe. Host then returns
// nil, and plugins that need the host end cannot be used. Stop closes conn.
func WithConn(conn protocol.Conn) Option {
	return func(o *options) {
		o.conn = conn
	}
}
