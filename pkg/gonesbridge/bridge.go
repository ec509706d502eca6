package gonesbridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/gonesbridge/internal/adapters/legacy"
	"github.com/bft-labs/gonesbridge/internal/adapters/script"
	"github.com/bft-labs/gonesbridge/internal/adapters/sqlite"
	"github.com/bft-labs/gonesbridge/internal/app"
	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/internal/ports"
	"github.com/bft-labs/gonesbridge/pkg/log"
	"github.com/bft-labs/gonesbridge/pkg/protocol"
)

// Bridge hosts one emulator frame: a sandboxed module, its storage and the
// protocol connection to the host page. Use New() to create an instance,
// then Start() to load the module. A Bridge runs once.
type Bridge struct {
	config  Config
	opts    options
	logger  log.Logger
	loader  ports.ModuleLoader
	legacy  ports.LegacySource
	emitter *eventEmitterWrapper

	host    protocol.Conn
	sandbox protocol.Conn
	done    chan struct{}

	mu      sync.RWMutex
	ctrl    *app.Controller
	started bool
	stopped bool
	cancel  context.CancelFunc
	serving sync.WaitGroup
}

// New creates a Bridge. Nothing is opened or loaded until Start.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Bridge, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	loader := o.loader
	if loader == nil {
		if cfg.ModulePath == "" {
			return nil, fmt.Errorf("%w: module path is required without a loader", domain.ErrInvalidConfig)
		}
		l, err := script.LoadFile(cfg.ModulePath, script.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		loader = l
	}

	var host, sandbox protocol.Conn
	if o.conn != nil {
		sandbox = o.conn
	} else {
		host, sandbox = protocol.Pipe(protocol.DefaultPipeBuffer)
	}

	return &Bridge{
		config:  cfg,
		opts:    o,
		logger:  logger,
		loader:  loader,
		legacy:  legacySources(cfg, o.legacySources),
		emitter: &eventEmitterWrapper{handler: o.eventHandler},
		host:    host,
		sandbox: sandbox,
		done:    make(chan struct{}),
	}, nil
}

func legacySources(cfg Config, extra []ports.LegacySource) ports.LegacySource {
	var sources []ports.LegacySource
	if len(cfg.LegacyDirs) > 0 {
		sources = append(sources, legacy.NewDirSource(cfg.LegacyDirs...))
	}
	if cfg.LegacyDump != "" {
		sources = append(sources, legacy.NewDumpSource(cfg.LegacyDump))
	}
	sources = append(sources, extra...)
	if len(sources) == 0 {
		return nil
	}
	return legacy.Multi(sources...)
}

// Start opens the database (importing legacy data on first open), starts
// plugins, serves the protocol and loads the module. Ready is emitted on
// the host connection once the module is loaded.
// A load failure leaves the bridge in StateFailed; call Stop to release it.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	// Claimed before unlocking so a concurrent Start fails fast.
	b.started = true
	b.mu.Unlock()

	storeOpts := []sqlite.Option{sqlite.WithLogger(b.logger)}
	if b.legacy != nil {
		storeOpts = append(storeOpts, sqlite.WithLegacySource(b.legacy))
	}
	store, err := sqlite.Open(ctx, b.config.DBPath, storeOpts...)
	if err != nil {
		b.release()
		return err
	}

	var ctrlOpts []app.Option
	if b.opts.locator != nil {
		ctrlOpts = append(ctrlOpts, app.WithSurfaceLocator(b.opts.locator))
	}
	ctrl := app.NewController(app.Config{
		SurfacePollInterval: b.config.SurfacePollInterval,
		SurfaceMaxInterval:  b.config.SurfaceMaxInterval,
		ShutdownTimeout:     b.config.ShutdownTimeout,
	}, b.loader, store, b.sandbox, b.logger, b.emitter, ctrlOpts...)

	runCtx, cancel := context.WithCancel(ctx)

	// Initialize plugins
	pluginCfg := PluginConfig{
		Host:   b.host,
		DBPath: store.Path(),
		Logger: b.logger,
	}
	for i, p := range b.opts.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			b.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			b.shutdownPlugins(b.opts.plugins[:i])
			b.release()
			return err
		}
		b.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	b.mu.Lock()
	b.ctrl = ctrl
	b.cancel = cancel
	b.mu.Unlock()

	b.serving.Add(1)
	go func() {
		defer b.serving.Done()
		defer close(b.done)
		if err := ctrl.Serve(runCtx); err != nil && runCtx.Err() == nil {
			b.logger.Error("protocol loop failed", log.Err(err))
		}
	}()

	return ctrl.Load(runCtx)
}

// Stop asks a running session to exit, waits for it (up to
// Config.ShutdownTimeout), stops plugins and closes the connection.
// Returns an error wrapping ErrShutdownTimeout if the session did not end.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	if b.ctrl == nil || b.stopped {
		b.mu.Unlock()
		return ErrNotStarted
	}
	b.stopped = true
	ctrl := b.ctrl
	cancel := b.cancel
	b.mu.Unlock()

	err := ctrl.Close(context.Background())

	cancel()
	b.serving.Wait()

	b.shutdownPlugins(b.opts.plugins)

	if b.host != nil {
		_ = b.host.Close()
	} else {
		_ = b.sandbox.Close()
	}
	return err
}

// release undoes a Start that failed before the controller existed.
func (b *Bridge) release() {
	b.mu.Lock()
	b.started = false
	b.mu.Unlock()
}

// shutdownPlugins stops plugins in reverse order.
func (b *Bridge) shutdownPlugins(plugins []Plugin) {
	shutdownCtx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			b.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}

// Host returns the host end of the protocol connection: send Play, Exit,
// SaveState and LoadState on it; receive Ready, Name and Exit from it.
// It is nil when the bridge was created WithConn.
func (b *Bridge) Host() protocol.Conn {
	return b.host
}

// Done is closed when the bridge stops serving the protocol, either after
// Stop or because the host closed its side of the connection.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Status returns the frame's lifecycle state.
// Safe to call concurrently from any goroutine.
func (b *Bridge) Status() State {
	b.mu.RLock()
	ctrl := b.ctrl
	b.mu.RUnlock()

	if ctrl == nil {
		return StateLoading
	}
	return ctrl.State()
}

// Session returns the running session's ID, or "" when not playing.
func (b *Bridge) Session() string {
	b.mu.RLock()
	ctrl := b.ctrl
	b.mu.RUnlock()

	if ctrl == nil {
		return ""
	}
	return ctrl.Session()
}

// FocusWindow re-focuses the module's rendering surface. Call it when the
// host window regains focus.
func (b *Bridge) FocusWindow() error {
	b.mu.RLock()
	ctrl := b.ctrl
	b.mu.RUnlock()

	if ctrl == nil {
		return nil
	}
	return ctrl.FocusWindow()
}
