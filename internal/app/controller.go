package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/internal/ports"
	"github.com/bft-labs/gonesbridge/pkg/lifecycle"
	"github.com/bft-labs/gonesbridge/pkg/log"
	"github.com/bft-labs/gonesbridge/pkg/protocol"
)

// Controller drives one frame: it instantiates the sandboxed module, relays
// protocol messages between the host page and the module, and serves the
// module's storage calls.
type Controller struct {
	config    Config
	loader    ports.ModuleLoader
	store     ports.BlobStore
	conn      protocol.Conn
	locator   ports.SurfaceLocator
	logger    log.Logger
	lifecycle *lifecycle.DefaultManager
	host      *hostBridge

	// ctx outlives individual sessions and ends on Close.
	ctx     context.Context
	cancel  context.CancelFunc
	closing atomic.Bool

	// startMu orders session starts against Close, so Close never waits on
	// a worker group that a starting session has yet to join.
	startMu sync.Mutex

	mu      sync.Mutex
	module  ports.Module
	session string
	surface ports.Surface
}

// Option configures a Controller.
type Option func(*Controller)

// WithSurfaceLocator sets the locator used when the module does not locate
// its own surface.
func WithSurfaceLocator(l ports.SurfaceLocator) Option {
	return func(c *Controller) {
		c.locator = l
	}
}

// NewController creates a controller. conn is the sandbox end of the
// protocol connection.
func NewController(
	config Config,
	loader ports.ModuleLoader,
	store ports.BlobStore,
	conn protocol.Conn,
	logger log.Logger,
	emitter lifecycle.EventEmitter,
	opts ...Option,
) *Controller {
	logger = log.OrNoop(logger)
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		config:    config.withDefaults(),
		loader:    loader,
		store:     store,
		conn:      conn,
		logger:    logger,
		lifecycle: lifecycle.NewManager(logger, emitter),
		ctx:       ctx,
		cancel:    cancel,
	}
	c.host = &hostBridge{c: c}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the frame's lifecycle state.
func (c *Controller) State() lifecycle.State {
	return c.lifecycle.State()
}

// Session returns the ID of the running session, or "" when not playing.
func (c *Controller) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Host returns the capability bridge handed to modules.
func (c *Controller) Host() ports.Host {
	return c.host
}

// Load instantiates the module and announces readiness to the host.
// A failed instantiation is fatal: the frame moves to Failed and the error
// wraps ErrLoadFailed.
func (c *Controller) Load(ctx context.Context) error {
	if s := c.lifecycle.State(); s != lifecycle.StateLoading {
		return fmt.Errorf("%w: load in state %s", domain.ErrProtocolViolation, s)
	}

	mod, err := c.loader.Load(ctx, c.host)
	if err != nil {
		if !errors.Is(err, domain.ErrLoadFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrLoadFailed, err)
		}
		_ = c.lifecycle.TransitionTo(lifecycle.StateFailed, err.Error())
		c.logger.Error("module load failed", log.Err(err))
		return err
	}

	c.mu.Lock()
	c.module = mod
	c.mu.Unlock()

	if err := c.lifecycle.TransitionTo(lifecycle.StateReady, "module instantiated"); err != nil {
		return err
	}
	c.emit(protocol.NewReady())
	return nil
}

// Serve receives host messages and dispatches them until ctx ends or the
// connection closes. Malformed messages are logged and skipped.
func (c *Controller) Serve(ctx context.Context) error {
	in := &inbound{c: c}
	for {
		msg, err := c.conn.Receive(ctx)
		if err != nil {
			switch {
			case errors.Is(err, protocol.ErrClosed):
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				c.logger.Warn("dropping malformed message", log.Err(err))
				continue
			}
		}
		if err := protocol.Dispatch(msg, in); err != nil {
			c.logger.Warn("dropping message", log.Err(err))
		}
	}
}

// Play starts cart on the loaded module. The run loop and the focus waiter
// run on their own goroutines; Play returns once the session has started.
func (c *Controller) Play(ctx context.Context, cart domain.Cartridge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if c.closing.Load() {
		return fmt.Errorf("%w: controller closed", domain.ErrNotReady)
	}

	// Only Play leaves Ready, and Play holds startMu.
	if !c.lifecycle.CanPlay() {
		s := c.lifecycle.State()
		if s == lifecycle.StatePlaying {
			return domain.ErrAlreadyPlaying
		}
		return fmt.Errorf("%w: state %s", domain.ErrNotReady, s)
	}
	if err := c.lifecycle.TransitionTo(lifecycle.StatePlaying, "play "+cart.Name); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotReady, err)
	}

	// The module is fixed for as long as the frame is Playing.
	session := uuid.Must(uuid.NewV7()).String()
	c.mu.Lock()
	mod := c.module
	c.session = session
	c.surface = nil
	c.mu.Unlock()

	logger := c.logger.With(log.String("session", session), log.String("rom", cart.Name))
	logger.Info("session started", log.Size("cartridge", cart.Data))

	runCtx, stop := context.WithCancel(c.ctx)
	c.lifecycle.AddWorker()
	c.lifecycle.AddWorker()
	go c.run(runCtx, stop, mod, cart, logger)
	go c.focusWhenReady(runCtx, mod, logger)
	return nil
}

// run plays the cartridge and tears the session down when the module
// relinquishes control.
func (c *Controller) run(ctx context.Context, stop context.CancelFunc, mod ports.Module, cart domain.Cartridge, logger log.Logger) {
	defer c.lifecycle.WorkerDone()

	start := time.Now()
	err := mod.Run(ctx, cart)
	stop()

	reason := "run loop ended"
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("run loop failed", log.Err(err))
		reason = "run loop failed: " + err.Error()
	}
	logger.Info("session ended", log.Duration("duration", time.Since(start)))

	c.mu.Lock()
	c.module = nil
	c.session = ""
	c.surface = nil
	c.mu.Unlock()

	_ = c.lifecycle.TransitionTo(lifecycle.StateExited, reason)
	c.emit(protocol.NewExit())
	c.release(mod)
	c.reload()
}

// reload re-instantiates the module after a session so the frame can play again.
func (c *Controller) reload() {
	if c.closing.Load() {
		return
	}

	mod, err := c.loader.Load(c.ctx, c.host)
	if err != nil {
		c.logger.Error("module reload failed", log.Err(err))
		_ = c.lifecycle.TransitionTo(lifecycle.StateFailed, "reload failed: "+err.Error())
		return
	}
	if c.closing.Load() {
		c.release(mod)
		return
	}

	c.mu.Lock()
	c.module = mod
	c.mu.Unlock()

	if err := c.lifecycle.TransitionTo(lifecycle.StateReady, "module re-instantiated"); err != nil {
		c.logger.Error("unexpected transition failure", log.Err(err))
		return
	}
	c.emit(protocol.NewReady())
}

// command forwards a host command to the live module. Without a running
// session the command is a no-op.
func (c *Controller) command(tag protocol.Tag, fn func(ports.Module)) {
	c.mu.Lock()
	mod := c.module
	playing := c.lifecycle.State() == lifecycle.StatePlaying
	c.mu.Unlock()

	if !playing || mod == nil {
		c.logger.Debug("ignoring command",
			log.String("type", string(tag)),
			log.Err(domain.ErrProtocolViolation),
		)
		return
	}
	fn(mod)
}

// Exit asks the running module to save and quit.
func (c *Controller) Exit() {
	c.command(protocol.TagExit, ports.Module.Exit)
}

// SaveState asks the running module to snapshot its state.
func (c *Controller) SaveState() {
	c.command(protocol.TagSaveState, ports.Module.SaveState)
}

// LoadState asks the running module to restore its last snapshot.
func (c *Controller) LoadState() {
	c.command(protocol.TagLoadState, ports.Module.LoadState)
}

// Close asks a running module to exit, waits for the session to end and
// releases the module. The controller cannot be reused.
func (c *Controller) Close(ctx context.Context) error {
	c.startMu.Lock()
	if !c.closing.CompareAndSwap(false, true) {
		c.startMu.Unlock()
		return nil
	}
	c.mu.Lock()
	mod := c.module
	playing := c.lifecycle.State() == lifecycle.StatePlaying
	c.mu.Unlock()
	c.startMu.Unlock()

	if playing && mod != nil {
		mod.Exit()
	}

	timeout := c.config.ShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	err := c.lifecycle.WaitWithTimeout(timeout)
	c.cancel()

	c.mu.Lock()
	mod = c.module
	c.module = nil
	c.mu.Unlock()
	if mod != nil {
		c.release(mod)
	}

	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrShutdownTimeout, err)
	}
	return nil
}

func (c *Controller) release(mod ports.Module) {
	closer, ok := mod.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		c.logger.Warn("failed to release module", log.Err(err))
	}
}

// emit sends m to the host. Failures are logged; the frame keeps running.
func (c *Controller) emit(m protocol.Message) {
	if err := c.conn.Send(c.ctx, m); err != nil {
		c.logger.Warn("failed to emit message",
			log.String("type", string(m.Tag())),
			log.Err(err),
		)
	}
}
