package ports

import (
	"context"

	"github.com/bft-labs/gonesbridge/internal/domain"
)

// Module is a sandboxed emulator instance.
// Exit, SaveState and LoadState are fire-and-forget requests; they must not
// block and may be called from any goroutine while Run is executing.
type Module interface {
	// Run plays the cartridge and blocks until the module relinquishes control.
	Run(ctx context.Context, cart domain.Cartridge) error

	// Exit asks the module to save and return from Run.
	Exit()

	// SaveState asks the module to snapshot its state.
	SaveState()

	// LoadState asks the module to restore its last snapshot.
	LoadState()
}

// ModuleLoader instantiates a Module with the host's capabilities as its
// import object. Each call yields a fresh instance.
type ModuleLoader interface {
	Load(ctx context.Context, host Host) (Module, error)
}

// Host is the capability surface the controller exposes to a module.
type Host interface {
	// SetRomName reports the cartridge's display name to the host page.
	SetRomName(value string)

	// DBPut writes a blob through the host's persistence layer.
	DBPut(ctx context.Context, collection domain.Collection, name string, data []byte) error

	// DBGet reads a blob through the host's persistence layer; nil when absent.
	DBGet(ctx context.Context, collection domain.Collection, name string) ([]byte, error)
}
