package gonesbridge

import (
	"context"

	"github.com/bft-labs/gonesbridge/pkg/log"
	"github.com/bft-labs/gonesbridge/pkg/protocol"
)

// Plugin extends a Bridge. Plugins are initialized by Start in registration
// order and shut down by Stop in reverse order.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize starts the plugin. ctx ends when the bridge stops.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// PluginConfig is what a plugin gets to work with.
type PluginConfig struct {
	// Host is the host end of the protocol connection. Plugins may send
	// messages on it but must not receive from it.
	Host protocol.Conn

	// DBPath is the bridge's database.
	DBPath string

	Logger log.Logger
}

// BasePlugin provides no-op lifecycle methods for embedding.
type BasePlugin struct {
	PluginName string
}

// Name returns PluginName.
func (p BasePlugin) Name() string { return p.PluginName }

// Initialize does nothing.
func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }

// Shutdown does nothing.
func (BasePlugin) Shutdown(context.Context) error { return nil }
