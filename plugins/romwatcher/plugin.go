// Package romwatcher starts a play session whenever a ROM file lands in a
// watched directory. Each new or rewritten ROM is sent to the bridge as a
// Play message, the same way a host page would hand over a dropped file.
package romwatcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/gonesbridge/pkg/gonesbridge"
	"github.com/bft-labs/gonesbridge/pkg/log"
	"github.com/bft-labs/gonesbridge/pkg/protocol"
)

// Defaults.
const (
	DefaultDebounceDelay = 100 * time.Millisecond
	DefaultExtension     = ".nes"
)

// Plugin watches a directory and plays ROMs written to it.
type Plugin struct {
	mu sync.Mutex

	dir           string
	debounceDelay time.Duration
	extensions    map[string]bool

	host    protocol.Conn
	logger  log.Logger
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	pending map[string]*time.Timer
	ready   chan string
}

// Config holds configuration options for the ROM watcher plugin.
type Config struct {
	// Dir is the directory to watch. Required.
	Dir string

	// DebounceDelay is how long a file must stay unchanged before it is played.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// Extensions lists the file extensions treated as ROMs, matched
	// case-insensitively.
	// Default: .nes
	Extensions []string
}

// New creates a ROM watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{DefaultExtension}
	}

	exts := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}

	return &Plugin{
		dir:           cfg.Dir,
		debounceDelay: cfg.DebounceDelay,
		extensions:    exts,
		pending:       make(map[string]*time.Timer),
		ready:         make(chan string),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "romwatcher"
}

// Initialize starts watching. The watch is registered before Initialize
// returns, so files written afterwards are never missed.
func (p *Plugin) Initialize(ctx context.Context, cfg gonesbridge.PluginConfig) error {
	p.logger = log.OrNoop(cfg.Logger)
	p.host = cfg.Host

	if p.dir == "" {
		return errors.New("romwatcher: dir is required")
	}
	if p.host == nil {
		return errors.New("romwatcher: host connection is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("romwatcher: create watcher: %w", err)
	}
	if err := watcher.Add(p.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("romwatcher: watch %s: %w", p.dir, err)
	}
	p.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("rom watcher started", log.String("dir", p.dir))

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the watcher and drops ROMs still waiting out their debounce.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	for path, t := range p.pending {
		t.Stop()
		delete(p.pending, path)
	}
	p.mu.Unlock()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()
	defer p.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !p.isROM(event.Name) {
				continue
			}
			p.debouncePlay(ctx, event.Name)

		case path := <-p.ready:
			p.mu.Lock()
			delete(p.pending, path)
			p.mu.Unlock()
			p.play(ctx, path)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("rom watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) isROM(path string) bool {
	return p.extensions[strings.ToLower(filepath.Ext(path))]
}

// debouncePlay restarts path's timer, so a ROM still being copied is only
// played once writes stop. Expired timers hand the path back to the watch loop.
func (p *Plugin) debouncePlay(ctx context.Context, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.pending[path]; ok {
		t.Stop()
	}
	p.pending[path] = time.AfterFunc(p.debounceDelay, func() {
		select {
		case p.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (p *Plugin) play(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		p.logger.Warn("read rom failed", log.String("path", path), log.Err(err))
		return
	}

	play := protocol.NewPlay(filepath.Base(path), data)
	if err := p.host.Send(ctx, play); err != nil {
		p.logger.Warn("send play failed", log.String("rom", play.Name()), log.Err(err))
		return
	}
	p.logger.Info("rom queued", log.String("rom", play.Name()), log.Int("bytes", play.Size()))
}

// Ensure Plugin implements gonesbridge.Plugin.
var _ gonesbridge.Plugin = (*Plugin)(nil)
